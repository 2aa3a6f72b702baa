package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academix-io/academix-api/internal/models"
)

// WeightRepository manages persistence for course and item weight configuration.
type WeightRepository struct {
	db *sqlx.DB
}

// NewWeightRepository constructs a WeightRepository.
func NewWeightRepository(db *sqlx.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// UpsertCourseWeights inserts or replaces the category weights for a course.
func (r *WeightRepository) UpsertCourseWeights(ctx context.Context, w *models.CourseWeights) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	const query = `INSERT INTO course_weights (id, course_id, professor_id, assignment_weight, quiz_weight, midterm_weight, final_weight, created_at, updated_at)
        VALUES (:id, :course_id, :professor_id, :assignment_weight, :quiz_weight, :midterm_weight, :final_weight, :created_at, :updated_at)
        ON CONFLICT (course_id)
        DO UPDATE SET professor_id = EXCLUDED.professor_id,
            assignment_weight = EXCLUDED.assignment_weight,
            quiz_weight = EXCLUDED.quiz_weight,
            midterm_weight = EXCLUDED.midterm_weight,
            final_weight = EXCLUDED.final_weight,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, w); err != nil {
		return fmt.Errorf("upsert course weights: %w", err)
	}
	return nil
}

// FindCourseWeights fetches the weight configuration for a course.
func (r *WeightRepository) FindCourseWeights(ctx context.Context, courseID string) (*models.CourseWeights, error) {
	const query = `SELECT id, course_id, professor_id, assignment_weight, quiz_weight, midterm_weight, final_weight, created_at, updated_at
        FROM course_weights WHERE course_id = $1`
	var w models.CourseWeights
	if err := r.db.GetContext(ctx, &w, query, courseID); err != nil {
		return nil, err
	}
	return &w, nil
}

// UpsertAssessmentWeight inserts or replaces the weight for one graded item.
func (r *WeightRepository) UpsertAssessmentWeight(ctx context.Context, w *models.AssessmentWeight) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	const query = `INSERT INTO assessment_weights (id, course_id, category, item_id, weight, created_at, updated_at)
        VALUES (:id, :course_id, :category, :item_id, :weight, :created_at, :updated_at)
        ON CONFLICT (course_id, category, item_id)
        DO UPDATE SET weight = EXCLUDED.weight, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, w); err != nil {
		return fmt.Errorf("upsert assessment weight: %w", err)
	}
	return nil
}

// FindAssessmentWeight fetches the weight for one item, if configured.
func (r *WeightRepository) FindAssessmentWeight(ctx context.Context, courseID string, category models.AssessmentCategory, itemID string) (*models.AssessmentWeight, error) {
	const query = `SELECT id, course_id, category, item_id, weight, created_at, updated_at
        FROM assessment_weights WHERE course_id = $1 AND category = $2 AND item_id = $3`
	var w models.AssessmentWeight
	if err := r.db.GetContext(ctx, &w, query, courseID, category, itemID); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListAssessmentWeights returns all item weights of a course keyed by category and item.
func (r *WeightRepository) ListAssessmentWeights(ctx context.Context, courseID string) ([]models.AssessmentWeight, error) {
	const query = `SELECT id, course_id, category, item_id, weight, created_at, updated_at
        FROM assessment_weights WHERE course_id = $1 ORDER BY category, item_id`
	var weights []models.AssessmentWeight
	if err := r.db.SelectContext(ctx, &weights, query, courseID); err != nil {
		return nil, fmt.Errorf("list assessment weights: %w", err)
	}
	return weights, nil
}
