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

func newReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO report_jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ReportJob{
		Type:        models.ReportTypeGrades,
		Format:      models.ReportFormatCSV,
		Params:      models.ReportJobParams{CourseID: "course-1"},
		RequestedBy: "prof-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	require.Equal(t, models.ReportStatusPending, job.Status)
	require.False(t, job.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	status := models.ReportStatusCompleted
	path := "grades-job-1.csv"
	finished := time.Now().UTC()

	mock.ExpectExec("UPDATE report_jobs SET status = (.+), file_path = (.+), finished_at = (.+) WHERE id =").
		WithArgs(status, path, finished, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateReportJobParams{
		Status:     &status,
		FilePath:   &path,
		FinishedAt: &finished,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateNoFields(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListPending(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "type", "format", "status", "params", "requested_by", "file_path", "error", "created_at", "started_at", "finished_at"}).
		AddRow("job-1", models.ReportTypeGrades, models.ReportFormatCSV, models.ReportStatusPending, []byte(`{"course_id":"course-1"}`), "prof-1", nil, nil, now, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM report_jobs WHERE status = 'PENDING'").
		WithArgs(10).
		WillReturnRows(rows)

	jobs, err := repo.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "course-1", jobs[0].Params.CourseID)
	require.NoError(t, mock.ExpectationsWereMet())
}
