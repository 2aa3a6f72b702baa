package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academix-io/academix-api/internal/dto"
	"github.com/academix-io/academix-api/internal/models"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
)

type gradeSummaryRepository interface {
	UpsertSummary(ctx context.Context, g *models.StudentCourseGrade) error
	FindSummary(ctx context.Context, studentID, courseID string) (*models.StudentCourseGrade, error)
	UpsertFinal(ctx context.Context, f *models.FinalGrade) error
	FindFinal(ctx context.Context, studentID, courseID string) (*models.FinalGrade, error)
}

type courseWeightReader interface {
	FindCourseWeights(ctx context.Context, courseID string) (*models.CourseWeights, error)
}

type scoreAggregator interface {
	NormalizedCategoryAverages(ctx context.Context, studentID, courseID string) (map[models.AssessmentCategory]float64, error)
}

type courseRoster interface {
	ListStudentIDsByCourse(ctx context.Context, courseID string) ([]string, error)
}

type gradeCacheInvalidator interface {
	InvalidateCourse(ctx context.Context, courseID string)
}

// GradeResolverService computes and persists weighted course grades.
type GradeResolverService struct {
	summaries gradeSummaryRepository
	weights   courseWeightReader
	scores    scoreAggregator
	roster    courseRoster
	cache     gradeCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeResolverService constructs a GradeResolverService.
func NewGradeResolverService(summaries gradeSummaryRepository, weights courseWeightReader, scores scoreAggregator, roster courseRoster, cache gradeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *GradeResolverService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeResolverService{summaries: summaries, weights: weights, scores: scores, roster: roster, cache: cache, validator: validate, logger: logger}
}

// LetterGrade maps a 0-100 total to a letter, inclusive lower bounds.
func LetterGrade(total float64) string {
	switch {
	case total >= 90:
		return "A"
	case total >= 80:
		return "B"
	case total >= 70:
		return "C"
	case total >= 60:
		return "D"
	default:
		return "F"
	}
}

// ResolveStudentCourse recomputes and stores the grade summary for one
// student in one course. Calling it again for the same pair replaces the row.
func (s *GradeResolverService) ResolveStudentCourse(ctx context.Context, studentID, courseID string) (*models.StudentCourseGrade, error) {
	weights, err := s.courseWeightsOrDefault(ctx, courseID)
	if err != nil {
		return nil, err
	}
	averages, err := s.scores.NormalizedCategoryAverages(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, category := range models.Categories {
		total += averages[category] * weights.ForCategory(category) / 100
	}

	grade := &models.StudentCourseGrade{
		StudentID:     studentID,
		CourseID:      courseID,
		AssignmentAvg: averages[models.CategoryAssignment],
		QuizAvg:       averages[models.CategoryQuiz],
		MidtermScore:  averages[models.CategoryMidterm],
		FinalScore:    averages[models.CategoryFinal],
		WeightedTotal: total,
		LetterGrade:   LetterGrade(total),
	}
	if err := s.summaries.UpsertSummary(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade summary")
	}
	if s.cache != nil {
		s.cache.InvalidateCourse(ctx, courseID)
	}
	return grade, nil
}

// ResolveCourse resolves every actively enrolled student of a course.
// A single student's failure is logged and skipped; the successes are returned.
func (s *GradeResolverService) ResolveCourse(ctx context.Context, courseID string) (*dto.ResolveCourseResponse, error) {
	studentIDs, err := s.roster.ListStudentIDsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}
	resp := &dto.ResolveCourseResponse{CourseID: courseID, Grades: make([]models.StudentCourseGrade, 0, len(studentIDs))}
	for _, studentID := range studentIDs {
		grade, err := s.ResolveStudentCourse(ctx, studentID, courseID)
		if err != nil {
			s.logger.Warn("skipping student during course resolution",
				zap.String("course_id", courseID),
				zap.String("student_id", studentID),
				zap.Error(err))
			resp.Skipped++
			continue
		}
		resp.Grades = append(resp.Grades, *grade)
		resp.Resolved++
	}
	return resp, nil
}

// GetStudentCourseGrade returns the stored summary for a pair.
func (s *GradeResolverService) GetStudentCourseGrade(ctx context.Context, studentID, courseID string) (*models.StudentCourseGrade, error) {
	grade, err := s.summaries.FindSummary(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade summary not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade summary")
	}
	return grade, nil
}

// UpsertFinalGrade stores a caller-computed final grade. The caller supplies
// the percentage; the letter is derived from it only when omitted.
func (s *GradeResolverService) UpsertFinalGrade(ctx context.Context, req dto.UpsertFinalGradeRequest) (*models.FinalGrade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid final grade payload")
	}
	letter := LetterGrade(req.FinalPercentage)
	if req.LetterGrade != nil {
		letter = *req.LetterGrade
	}
	final := &models.FinalGrade{
		StudentID:          req.StudentID,
		CourseID:           req.CourseID,
		FinalWeightedScore: req.FinalWeightedScore,
		WeightSum:          req.WeightSum,
		FinalPercentage:    req.FinalPercentage,
		LetterGrade:        letter,
	}
	if err := s.summaries.UpsertFinal(ctx, final); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store final grade")
	}
	return final, nil
}

// GetFinalGrade returns the stored caller-computed final grade for a pair.
func (s *GradeResolverService) GetFinalGrade(ctx context.Context, studentID, courseID string) (*models.FinalGrade, error) {
	final, err := s.summaries.FindFinal(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "final grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final grade")
	}
	return final, nil
}

func (s *GradeResolverService) courseWeightsOrDefault(ctx context.Context, courseID string) (*models.CourseWeights, error) {
	weights, err := s.weights.FindCourseWeights(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			fallback := models.DefaultCourseWeights
			fallback.CourseID = courseID
			return &fallback, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course weights")
	}
	return weights, nil
}
