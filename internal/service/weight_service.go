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

type weightRepository interface {
	UpsertCourseWeights(ctx context.Context, w *models.CourseWeights) error
	FindCourseWeights(ctx context.Context, courseID string) (*models.CourseWeights, error)
	UpsertAssessmentWeight(ctx context.Context, w *models.AssessmentWeight) error
	FindAssessmentWeight(ctx context.Context, courseID string, category models.AssessmentCategory, itemID string) (*models.AssessmentWeight, error)
	ListAssessmentWeights(ctx context.Context, courseID string) ([]models.AssessmentWeight, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

// WeightService manages course and per-item weight configuration.
type WeightService struct {
	repo      weightRepository
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeightService constructs a WeightService.
func NewWeightService(repo weightRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *WeightService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeightService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// SetCourseWeights validates and stores the category weights for a course.
func (s *WeightService) SetCourseWeights(ctx context.Context, req dto.SetCourseWeightsRequest) (*models.CourseWeights, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course weights payload")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	weights := &models.CourseWeights{
		CourseID:         course.ID,
		ProfessorID:      course.ProfessorID,
		AssignmentWeight: req.AssignmentWeight,
		QuizWeight:       req.QuizWeight,
		MidtermWeight:    req.MidtermWeight,
		FinalWeight:      req.FinalWeight,
	}
	if err := validateWeightSum(weights.Sum()); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertCourseWeights(ctx, weights); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store course weights")
	}
	return weights, nil
}

// GetCourseWeights returns the stored configuration for a course.
func (s *WeightService) GetCourseWeights(ctx context.Context, courseID string) (*models.CourseWeights, error) {
	weights, err := s.repo.FindCourseWeights(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course weights not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course weights")
	}
	return weights, nil
}

// SetAssessmentWeight validates and stores the weight of one graded item.
func (s *WeightService) SetAssessmentWeight(ctx context.Context, req dto.UpsertAssessmentWeightRequest) (*models.AssessmentWeight, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment weight payload")
	}
	if !req.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnknownCategory, "unknown assessment category")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	weight := &models.AssessmentWeight{
		CourseID: req.CourseID,
		Category: req.Category,
		ItemID:   req.ItemID,
		Weight:   req.Weight,
	}
	if err := s.repo.UpsertAssessmentWeight(ctx, weight); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store assessment weight")
	}
	return weight, nil
}

// GetAssessmentWeight returns the weight for one item, or nil when absent.
func (s *WeightService) GetAssessmentWeight(ctx context.Context, courseID string, category models.AssessmentCategory, itemID string) (*models.AssessmentWeight, error) {
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnknownCategory, "unknown assessment category")
	}
	weight, err := s.repo.FindAssessmentWeight(ctx, courseID, category, itemID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment weight")
	}
	return weight, nil
}

// ListAssessmentWeights returns all item weights for a course.
func (s *WeightService) ListAssessmentWeights(ctx context.Context, courseID string) ([]models.AssessmentWeight, error) {
	weights, err := s.repo.ListAssessmentWeights(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessment weights")
	}
	return weights, nil
}

func validateWeightSum(total float64) error {
	if total < 99.999 || total > 100.001 {
		return appErrors.Clone(appErrors.ErrInvalidWeights, "weights must sum to 100")
	}
	return nil
}
