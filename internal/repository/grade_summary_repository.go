package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/academix-io/academix-api/internal/models"
)

// GradeSummaryRepository manages resolved grade summaries and final grades.
type GradeSummaryRepository struct {
	db *sqlx.DB
}

// NewGradeSummaryRepository constructs the repository.
func NewGradeSummaryRepository(db *sqlx.DB) *GradeSummaryRepository {
	return &GradeSummaryRepository{db: db}
}

// UpsertSummary inserts or replaces the resolved summary for a student and course.
func (r *GradeSummaryRepository) UpsertSummary(ctx context.Context, g *models.StudentCourseGrade) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO student_course_grades (id, student_id, course_id, assignment_avg, quiz_avg, midterm_score, final_score, weighted_total, letter_grade, updated_at)
        VALUES (:id, :student_id, :course_id, :assignment_avg, :quiz_avg, :midterm_score, :final_score, :weighted_total, :letter_grade, :updated_at)
        ON CONFLICT (student_id, course_id)
        DO UPDATE SET assignment_avg = EXCLUDED.assignment_avg, quiz_avg = EXCLUDED.quiz_avg,
            midterm_score = EXCLUDED.midterm_score, final_score = EXCLUDED.final_score,
            weighted_total = EXCLUDED.weighted_total, letter_grade = EXCLUDED.letter_grade,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, g); err != nil {
		return fmt.Errorf("upsert grade summary: %w", err)
	}
	return nil
}

// FindSummary fetches the resolved summary for one student and course.
func (r *GradeSummaryRepository) FindSummary(ctx context.Context, studentID, courseID string) (*models.StudentCourseGrade, error) {
	const query = `SELECT id, student_id, course_id, assignment_avg, quiz_avg, midterm_score, final_score, weighted_total, letter_grade, updated_at
        FROM student_course_grades WHERE student_id = $1 AND course_id = $2`
	var g models.StudentCourseGrade
	if err := r.db.GetContext(ctx, &g, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &g, nil
}

// UpsertFinal inserts or replaces a caller-computed final grade.
func (r *GradeSummaryRepository) UpsertFinal(ctx context.Context, f *models.FinalGrade) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CalculatedAt.IsZero() {
		f.CalculatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO final_grades (id, student_id, course_id, final_weighted_score, weight_sum, final_percentage, letter_grade, calculated_at)
        VALUES (:id, :student_id, :course_id, :final_weighted_score, :weight_sum, :final_percentage, :letter_grade, :calculated_at)
        ON CONFLICT (student_id, course_id)
        DO UPDATE SET final_weighted_score = EXCLUDED.final_weighted_score, weight_sum = EXCLUDED.weight_sum,
            final_percentage = EXCLUDED.final_percentage, letter_grade = EXCLUDED.letter_grade,
            calculated_at = EXCLUDED.calculated_at`
	if _, err := r.db.NamedExecContext(ctx, query, f); err != nil {
		return fmt.Errorf("upsert final grade: %w", err)
	}
	return nil
}

// FindFinal fetches the caller-computed final grade, if stored.
func (r *GradeSummaryRepository) FindFinal(ctx context.Context, studentID, courseID string) (*models.FinalGrade, error) {
	const query = `SELECT id, student_id, course_id, final_weighted_score, weight_sum, final_percentage, letter_grade, calculated_at
        FROM final_grades WHERE student_id = $1 AND course_id = $2`
	var f models.FinalGrade
	if err := r.db.GetContext(ctx, &f, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &f, nil
}

// CourseReportRows returns per-student resolved grade rows ranked within a course.
func (r *GradeSummaryRepository) CourseReportRows(ctx context.Context, courseID string) ([]models.GradeReportRow, error) {
	const query = `SELECT st.id AS student_id, st.full_name AS student_name, g.weighted_total, g.letter_grade,
        CASE WHEN g.weighted_total IS NULL THEN NULL ELSE RANK() OVER (ORDER BY g.weighted_total DESC) END AS rank
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        LEFT JOIN student_course_grades g ON g.student_id = e.student_id AND g.course_id = e.course_id
        WHERE e.course_id = $1 AND e.status = $2
        ORDER BY rank NULLS LAST, st.full_name`
	var rows []models.GradeReportRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("course report rows: %w", err)
	}
	return rows, nil
}

// CourseDistribution aggregates resolved grade metrics for a course.
func (r *GradeSummaryRepository) CourseDistribution(ctx context.Context, courseID string) (*models.GradeDistribution, error) {
	const query = `SELECT $1::text AS course_id,
        MIN(weighted_total) AS min, MAX(weighted_total) AS max, AVG(weighted_total) AS average
        FROM student_course_grades WHERE course_id = $1`
	var d models.GradeDistribution
	if err := r.db.GetContext(ctx, &d, query, courseID); err != nil {
		return nil, fmt.Errorf("course distribution: %w", err)
	}
	return &d, nil
}

// Transcript returns resolved grades across all of a student's courses.
func (r *GradeSummaryRepository) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	const query = `SELECT c.id AS course_id, c.code AS course_code, c.title AS course_title, g.weighted_total, g.letter_grade
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        LEFT JOIN student_course_grades g ON g.student_id = e.student_id AND g.course_id = e.course_id
        WHERE e.student_id = $1
        ORDER BY c.code`
	var rows []models.TranscriptRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	return rows, nil
}
