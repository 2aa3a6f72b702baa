package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/academix-io/academix-api/internal/models"
)

func newWeightRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestWeightRepositoryUpsertCourseWeights(t *testing.T) {
	db, mock, cleanup := newWeightRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	mock.ExpectExec("INSERT INTO course_weights").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := &models.CourseWeights{
		CourseID:         "course-1",
		ProfessorID:      "prof-1",
		AssignmentWeight: 20,
		QuizWeight:       20,
		MidtermWeight:    25,
		FinalWeight:      35,
	}
	require.NoError(t, repo.UpsertCourseWeights(context.Background(), w))
	require.NotEmpty(t, w.ID)
	require.False(t, w.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightRepositoryFindCourseWeights(t *testing.T) {
	db, mock, cleanup := newWeightRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "professor_id", "assignment_weight", "quiz_weight", "midterm_weight", "final_weight", "created_at", "updated_at"}).
		AddRow("cw-1", "course-1", "prof-1", 20.0, 20.0, 25.0, 35.0, now, now)
	mock.ExpectQuery("SELECT (.+) FROM course_weights WHERE course_id").
		WithArgs("course-1").
		WillReturnRows(rows)

	w, err := repo.FindCourseWeights(context.Background(), "course-1")
	require.NoError(t, err)
	require.InDelta(t, 100.0, w.Sum(), 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeightRepositoryUpsertAssessmentWeight(t *testing.T) {
	db, mock, cleanup := newWeightRepoMock(t)
	defer cleanup()
	repo := NewWeightRepository(db)

	mock.ExpectExec("INSERT INTO assessment_weights").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := &models.AssessmentWeight{
		CourseID: "course-1",
		Category: models.CategoryQuiz,
		ItemID:   "quiz-3",
		Weight:   10,
	}
	require.NoError(t, repo.UpsertAssessmentWeight(context.Background(), w))
	require.NotEmpty(t, w.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
