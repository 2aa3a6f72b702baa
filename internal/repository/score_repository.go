package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academix-io/academix-api/internal/models"
)

// ScoreRepository handles persistence of achieved scores.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert inserts or replaces one score by its natural key.
func (r *ScoreRepository) Upsert(ctx context.Context, s *models.Score) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	const query = `INSERT INTO scores (id, student_id, course_id, category, item_id, score, max_score, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :category, :item_id, :score, :max_score, :created_at, :updated_at)
        ON CONFLICT (student_id, course_id, category, item_id)
        DO UPDATE SET score = EXCLUDED.score, max_score = EXCLUDED.max_score, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// List returns scores matching the filter ordered by recency.
func (r *ScoreRepository) List(ctx context.Context, filter models.ScoreFilter) ([]models.Score, error) {
	query := `SELECT id, student_id, course_id, category, item_id, score, max_score, created_at, updated_at FROM scores WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		query += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", len(args)+1)
		args = append(args, filter.Category)
	}
	query += " ORDER BY updated_at DESC"
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// CategoryAverage computes the mean score and mean max score of one category.
// Both means are zero when no rows match.
func (r *ScoreRepository) CategoryAverage(ctx context.Context, studentID, courseID string, category models.AssessmentCategory) (models.CategoryAverage, error) {
	const query = `SELECT COALESCE(AVG(score), 0) AS avg_score, COALESCE(AVG(max_score), 0) AS avg_max_score
        FROM scores WHERE student_id = $1 AND course_id = $2 AND category = $3`
	var avg models.CategoryAverage
	row := r.db.QueryRowxContext(ctx, query, studentID, courseID, category)
	if err := row.Scan(&avg.AvgScore, &avg.AvgMaxScore); err != nil {
		return models.CategoryAverage{}, fmt.Errorf("category average: %w", err)
	}
	return avg, nil
}

// FetchByStudentCourse returns all scores of one student in one course keyed by category.
func (r *ScoreRepository) FetchByStudentCourse(ctx context.Context, studentID, courseID string) (map[models.AssessmentCategory][]models.Score, error) {
	const query = `SELECT id, student_id, course_id, category, item_id, score, max_score, created_at, updated_at
        FROM scores WHERE student_id = $1 AND course_id = $2 ORDER BY category, item_id`
	rows, err := r.db.QueryxContext(ctx, query, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetch scores: %w", err)
	}
	defer rows.Close()
	result := make(map[models.AssessmentCategory][]models.Score)
	for rows.Next() {
		var s models.Score
		if err := rows.StructScan(&s); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		result[s.Category] = append(result[s.Category], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return result, nil
}
