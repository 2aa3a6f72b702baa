package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/academix-io/academix-api/internal/dto"
	"github.com/academix-io/academix-api/internal/models"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
)

type gradeReportRepository interface {
	CourseReportRows(ctx context.Context, courseID string) ([]models.GradeReportRow, error)
	CourseDistribution(ctx context.Context, courseID string) (*models.GradeDistribution, error)
	Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
}

type categoryTotalsReader interface {
	WeightedCategoryTotals(ctx context.Context, studentID, courseID string) (map[models.AssessmentCategory]models.CategoryWeightedTotal, error)
}

// GradeReportService builds grade reports with Redis read caching.
type GradeReportService struct {
	repo   gradeReportRepository
	totals categoryTotalsReader
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewGradeReportService constructs a GradeReportService.
func NewGradeReportService(repo gradeReportRepository, totals categoryTotalsReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *GradeReportService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeReportService{repo: repo, totals: totals, cache: cache, ttl: ttl, logger: logger}
}

func courseReportCacheKey(courseID string) string {
	return fmt.Sprintf("grades:report:course:%s", courseID)
}

// CourseReport returns ranked per-student rows plus the grade distribution.
func (s *GradeReportService) CourseReport(ctx context.Context, courseID string) (*models.CourseGradeReport, error) {
	var cached models.CourseGradeReport
	if hit, _ := s.cache.Get(ctx, courseReportCacheKey(courseID), &cached); hit {
		return &cached, nil
	}

	rows, err := s.repo.CourseReportRows(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build course report")
	}
	distribution, err := s.repo.CourseDistribution(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute grade distribution")
	}

	report := &models.CourseGradeReport{
		CourseID:     courseID,
		Distribution: distribution,
		Students:     rows,
	}
	if err := s.cache.Set(ctx, courseReportCacheKey(courseID), report, s.ttl); err != nil {
		s.logger.Warn("failed to cache course report", zap.String("course_id", courseID), zap.Error(err))
	}
	return report, nil
}

// Transcript returns resolved grades across a student's courses.
func (s *GradeReportService) Transcript(ctx context.Context, studentID string) (*models.StudentTranscript, error) {
	rows, err := s.repo.Transcript(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build transcript")
	}
	return &models.StudentTranscript{StudentID: studentID, Courses: rows}, nil
}

// CategoryTotals exposes the weighted per-category totals reporting view.
func (s *GradeReportService) CategoryTotals(ctx context.Context, studentID, courseID string) (*dto.CategoryTotalsResponse, error) {
	totals, err := s.totals.WeightedCategoryTotals(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	return &dto.CategoryTotalsResponse{StudentID: studentID, CourseID: courseID, Totals: totals}, nil
}

// InvalidateCourse drops cached reports for a course after grade resolution.
func (s *GradeReportService) InvalidateCourse(ctx context.Context, courseID string) {
	if err := s.cache.Invalidate(ctx, courseReportCacheKey(courseID)); err != nil {
		s.logger.Warn("failed to invalidate course report cache", zap.String("course_id", courseID), zap.Error(err))
	}
}
