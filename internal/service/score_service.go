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

type scoreRepository interface {
	Upsert(ctx context.Context, s *models.Score) error
	List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error)
	CategoryAverage(ctx context.Context, studentID, courseID string, category models.AssessmentCategory) (models.CategoryAverage, error)
	FetchByStudentCourse(ctx context.Context, studentID, courseID string) (map[models.AssessmentCategory][]models.Score, error)
}

type enrollmentChecker interface {
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
}

type assessmentWeightStore interface {
	FindAssessmentWeight(ctx context.Context, courseID string, category models.AssessmentCategory, itemID string) (*models.AssessmentWeight, error)
	UpsertAssessmentWeight(ctx context.Context, w *models.AssessmentWeight) error
}

// ScoreService records scores and derives per-category aggregates.
type ScoreService struct {
	repo        scoreRepository
	enrollments enrollmentChecker
	weights     assessmentWeightStore
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewScoreService constructs a ScoreService.
func NewScoreService(repo scoreRepository, enrollments enrollmentChecker, weights assessmentWeightStore, validate *validator.Validate, logger *zap.Logger) *ScoreService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoreService{repo: repo, enrollments: enrollments, weights: weights, validator: validate, logger: logger}
}

// Upsert records one score, replacing any earlier value for the same item.
func (s *ScoreService) Upsert(ctx context.Context, req dto.UpsertScoreRequest) (*models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if !req.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnknownCategory, "unknown assessment category")
	}
	if req.Score > req.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds max score")
	}
	enrolled, err := s.enrollments.Exists(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not enrolled in course")
	}
	score := &models.Score{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Category:  req.Category,
		ItemID:    req.ItemID,
		Score:     req.Score,
		MaxScore:  req.MaxScore,
	}
	if err := s.repo.Upsert(ctx, score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score")
	}
	if req.Weight != nil {
		weight := &models.AssessmentWeight{
			CourseID: req.CourseID,
			Category: req.Category,
			ItemID:   req.ItemID,
			Weight:   *req.Weight,
		}
		if err := s.weights.UpsertAssessmentWeight(ctx, weight); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store item weight")
		}
	}
	return score, nil
}

// List returns scores for the filter.
func (s *ScoreService) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnknownCategory, "unknown assessment category")
	}
	scores, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}
	return scores, nil
}

// CategoryAverage returns the mean score and mean max score in one category.
// A student with no scores in the category yields zeroes.
func (s *ScoreService) CategoryAverage(ctx context.Context, studentID, courseID string, category models.AssessmentCategory) (models.CategoryAverage, error) {
	if !category.Valid() {
		return models.CategoryAverage{}, appErrors.Clone(appErrors.ErrUnknownCategory, "unknown assessment category")
	}
	avg, err := s.repo.CategoryAverage(ctx, studentID, courseID, category)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.CategoryAverage{}, nil
		}
		return models.CategoryAverage{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute category average")
	}
	return avg, nil
}

// NormalizedCategoryAverages returns the mean of (score/maxScore)*100 per
// item within each category. Categories without scores are reported as 0.
func (s *ScoreService) NormalizedCategoryAverages(ctx context.Context, studentID, courseID string) (map[models.AssessmentCategory]float64, error) {
	byCategory, err := s.repo.FetchByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch scores")
	}
	averages := make(map[models.AssessmentCategory]float64, len(models.Categories))
	for _, category := range models.Categories {
		scores := byCategory[category]
		if len(scores) == 0 {
			averages[category] = 0
			continue
		}
		sum := 0.0
		for _, score := range scores {
			if score.MaxScore > 0 {
				sum += score.Score / score.MaxScore * 100
			}
		}
		averages[category] = sum / float64(len(scores))
	}
	return averages, nil
}

// WeightedCategoryTotals accumulates item-weighted contributions per category.
// Items without a configured weight contribute nothing. Read-only view.
func (s *ScoreService) WeightedCategoryTotals(ctx context.Context, studentID, courseID string) (map[models.AssessmentCategory]models.CategoryWeightedTotal, error) {
	byCategory, err := s.repo.FetchByStudentCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch scores")
	}
	totals := make(map[models.AssessmentCategory]models.CategoryWeightedTotal, len(byCategory))
	for category, scores := range byCategory {
		var acc models.CategoryWeightedTotal
		for _, score := range scores {
			weight := 0.0
			w, err := s.weights.FindAssessmentWeight(ctx, courseID, category, score.ItemID)
			if err != nil && err != sql.ErrNoRows {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment weight")
			}
			if w != nil {
				weight = w.Weight
			}
			if score.MaxScore > 0 {
				acc.TotalWeightedScore += score.Score / score.MaxScore * weight
			}
			acc.Count++
		}
		if acc.Count > 0 {
			acc.Average = acc.TotalWeightedScore / float64(acc.Count)
		}
		totals[category] = acc
	}
	return totals, nil
}
