package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/academix-io/academix-api/internal/models"
)

func newScoreRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScoreRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectExec("INSERT INTO scores").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := &models.Score{
		StudentID: "stu-1",
		CourseID:  "course-1",
		Category:  models.CategoryAssignment,
		ItemID:    "hw-1",
		Score:     18,
		MaxScore:  20,
	}
	require.NoError(t, repo.Upsert(context.Background(), s))
	require.NotEmpty(t, s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryCategoryAverage(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"avg_score", "avg_max_score"}).AddRow(17.5, 20.0)
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("stu-1", "course-1", models.CategoryQuiz).
		WillReturnRows(rows)

	avg, err := repo.CategoryAverage(context.Background(), "stu-1", "course-1", models.CategoryQuiz)
	require.NoError(t, err)
	require.InDelta(t, 17.5, avg.AvgScore, 0.0001)
	require.InDelta(t, 20.0, avg.AvgMaxScore, 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryCategoryAverageEmpty(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"avg_score", "avg_max_score"}).AddRow(0.0, 0.0)
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("stu-1", "course-1", models.CategoryFinal).
		WillReturnRows(rows)

	avg, err := repo.CategoryAverage(context.Background(), "stu-1", "course-1", models.CategoryFinal)
	require.NoError(t, err)
	require.Zero(t, avg.AvgScore)
	require.Zero(t, avg.AvgMaxScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryFetchByStudentCourseRowError(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "category", "item_id", "score", "max_score", "created_at", "updated_at"}).
		AddRow("sc-1", "stu-1", "course-1", models.CategoryQuiz, "quiz-1", 8.0, 10.0, now, now).
		RowError(0, sql.ErrConnDone)
	mock.ExpectQuery("SELECT (.+) FROM scores WHERE").
		WithArgs("stu-1", "course-1").
		WillReturnRows(rows)

	_, err := repo.FetchByStudentCourse(context.Background(), "stu-1", "course-1")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepositoryList(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "category", "item_id", "score", "max_score", "created_at", "updated_at"}).
		AddRow("sc-1", "stu-1", "course-1", models.CategoryQuiz, "quiz-1", 8.0, 10.0, now, now)
	mock.ExpectQuery("SELECT (.+) FROM scores WHERE").
		WithArgs("stu-1", "course-1").
		WillReturnRows(rows)

	scores, err := repo.List(context.Background(), models.ScoreFilter{StudentID: "stu-1", CourseID: "course-1"})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, models.CategoryQuiz, scores[0].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}
