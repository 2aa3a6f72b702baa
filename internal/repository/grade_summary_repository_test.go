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

func newGradeSummaryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGradeSummaryRepositoryUpsertSummary(t *testing.T) {
	db, mock, cleanup := newGradeSummaryRepoMock(t)
	defer cleanup()
	repo := NewGradeSummaryRepository(db)

	mock.ExpectExec("INSERT INTO student_course_grades").
		WillReturnResult(sqlmock.NewResult(0, 1))

	g := &models.StudentCourseGrade{
		StudentID:     "stu-1",
		CourseID:      "course-1",
		AssignmentAvg: 90,
		QuizAvg:       80,
		MidtermScore:  75,
		FinalScore:    85,
		WeightedTotal: 82.5,
		LetterGrade:   "B",
	}
	require.NoError(t, repo.UpsertSummary(context.Background(), g))
	require.NotEmpty(t, g.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeSummaryRepositoryUpsertFinal(t *testing.T) {
	db, mock, cleanup := newGradeSummaryRepoMock(t)
	defer cleanup()
	repo := NewGradeSummaryRepository(db)

	mock.ExpectExec("INSERT INTO final_grades").
		WillReturnResult(sqlmock.NewResult(0, 1))

	f := &models.FinalGrade{
		StudentID:          "stu-1",
		CourseID:           "course-1",
		FinalWeightedScore: 8250,
		WeightSum:          100,
		FinalPercentage:    82.5,
		LetterGrade:        "B",
	}
	require.NoError(t, repo.UpsertFinal(context.Background(), f))
	require.NotEmpty(t, f.ID)
	require.False(t, f.CalculatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeSummaryRepositoryCourseReportRows(t *testing.T) {
	db, mock, cleanup := newGradeSummaryRepoMock(t)
	defer cleanup()
	repo := NewGradeSummaryRepository(db)

	total := 88.0
	letter := "B"
	rank := 1
	rows := sqlmock.NewRows([]string{"student_id", "student_name", "weighted_total", "letter_grade", "rank"}).
		AddRow("stu-1", "Ada Lovelace", total, letter, rank).
		AddRow("stu-2", "Alan Turing", nil, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM enrollments e").
		WithArgs("course-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	report, err := repo.CourseReportRows(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, report, 2)
	require.Equal(t, &rank, report[0].Rank)
	require.Nil(t, report[1].WeightedTotal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeSummaryRepositoryFindSummary(t *testing.T) {
	db, mock, cleanup := newGradeSummaryRepoMock(t)
	defer cleanup()
	repo := NewGradeSummaryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "assignment_avg", "quiz_avg", "midterm_score", "final_score", "weighted_total", "letter_grade", "updated_at"}).
		AddRow("g-1", "stu-1", "course-1", 90.0, 80.0, 75.0, 85.0, 82.5, "B", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM student_course_grades WHERE").
		WithArgs("stu-1", "course-1").
		WillReturnRows(rows)

	g, err := repo.FindSummary(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	require.Equal(t, "B", g.LetterGrade)
	require.InDelta(t, 82.5, g.WeightedTotal, 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}
