package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/academix-io/academix-api/internal/dto"
	"github.com/academix-io/academix-api/internal/models"
	"github.com/academix-io/academix-api/internal/repository"
	"github.com/academix-io/academix-api/pkg/jobs"
	"github.com/academix-io/academix-api/pkg/storage"
)

type reportRepoStub struct {
	jobs map[string]*models.ReportJob
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: map[string]*models.ReportJob{}}
}

func (r *reportRepoStub) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	r.jobs[job.ID] = job
	return nil
}

func (r *reportRepoStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *reportRepoStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.FilePath != nil {
		job.FilePath = params.FilePath
	}
	if params.Error != nil {
		job.Error = params.Error
	}
	if params.StartedAt != nil {
		job.StartedAt = params.StartedAt
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *reportRepoStub) ListPending(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var pending []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusPending {
			pending = append(pending, *job)
		}
	}
	return pending, nil
}

func (r *reportRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	var finished []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusCompleted && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			finished = append(finished, *job)
		}
	}
	return finished, nil
}

type reportQueueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *reportQueueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type gradeSourceStub struct {
	rows       []models.GradeReportRow
	transcript []models.TranscriptRow
	err        error
}

func (g gradeSourceStub) CourseReportRows(ctx context.Context, courseID string) ([]models.GradeReportRow, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.rows, nil
}

func (g gradeSourceStub) Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.transcript, nil
}

type attendanceSourceStub struct {
	records []models.AttendanceRecord
}

func (a attendanceSourceStub) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	return a.records, len(a.records), nil
}

func newReportServiceForTest(t *testing.T, grades gradeSourceStub) (*ReportService, *reportRepoStub, *reportQueueStub) {
	t.Helper()
	repo := newReportRepoStub()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewReportService(repo, grades, attendanceSourceStub{}, store, signer, nil, zap.NewNop())
	queue := &reportQueueStub{}
	svc.AttachQueue(queue)
	return svc, repo, queue
}

func specimenGradeRows() []models.GradeReportRow {
	total := 81.25
	letter := "B"
	rank := 1
	return []models.GradeReportRow{
		{StudentID: "stu-1", StudentName: "Dana Ivers", WeightedTotal: &total, LetterGrade: &letter, Rank: &rank},
		{StudentID: "stu-2", StudentName: "Remy Okafor"},
	}
}

func TestReportServiceGenerate(t *testing.T) {
	svc, repo, queue := newReportServiceForTest(t, gradeSourceStub{})
	courseID := "course-1"
	resp, err := svc.Generate(context.Background(), dto.ReportRequest{
		Type:     models.ReportTypeGrades,
		Format:   models.ReportFormatCSV,
		CourseID: &courseID,
	}, "prof-1")
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, models.ReportStatusPending, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)
	assert.Contains(t, repo.jobs, resp.ID)
}

func TestReportServiceGenerateRequiresCourse(t *testing.T) {
	svc, _, queue := newReportServiceForTest(t, gradeSourceStub{})
	_, err := svc.Generate(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeGrades,
		Format: models.ReportFormatCSV,
	}, "prof-1")
	require.Error(t, err)
	assert.Empty(t, queue.jobs)
}

func TestReportServiceProcessJobCompletes(t *testing.T) {
	svc, repo, _ := newReportServiceForTest(t, gradeSourceStub{rows: specimenGradeRows()})
	job := &models.ReportJob{
		ID:          "job-1",
		Type:        models.ReportTypeGrades,
		Format:      models.ReportFormatCSV,
		Status:      models.ReportStatusPending,
		Params:      models.ReportJobParams{CourseID: "course-1"},
		RequestedBy: "prof-1",
	}
	repo.jobs[job.ID] = job

	err := svc.ProcessJob(context.Background(), jobs.Job{ID: job.ID, Type: "report", Payload: job.ID})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusCompleted, repo.jobs[job.ID].Status)
	require.NotNil(t, repo.jobs[job.ID].FilePath)
	require.NotNil(t, repo.jobs[job.ID].FinishedAt)

	content, err := os.ReadFile(svc.storage.Path(*repo.jobs[job.ID].FilePath))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Dana Ivers")
	assert.Contains(t, string(content), "81.25")
}

func TestReportServiceProcessJobMarksFailure(t *testing.T) {
	svc, repo, _ := newReportServiceForTest(t, gradeSourceStub{err: errors.New("source unavailable")})
	job := &models.ReportJob{
		ID:          "job-fail",
		Type:        models.ReportTypeGrades,
		Format:      models.ReportFormatCSV,
		Status:      models.ReportStatusPending,
		Params:      models.ReportJobParams{CourseID: "course-1"},
		RequestedBy: "prof-1",
	}
	repo.jobs[job.ID] = job

	err := svc.ProcessJob(context.Background(), jobs.Job{ID: job.ID, Type: "report", Payload: job.ID})
	require.Error(t, err)
	require.Equal(t, models.ReportStatusFailed, repo.jobs[job.ID].Status)
	require.NotNil(t, repo.jobs[job.ID].Error)
	assert.Contains(t, *repo.jobs[job.ID].Error, "source unavailable")
}

func TestReportServiceStatusSignsDownloadURL(t *testing.T) {
	svc, repo, _ := newReportServiceForTest(t, gradeSourceStub{rows: specimenGradeRows()})
	job := &models.ReportJob{
		ID:          "job-done",
		Type:        models.ReportTypeGrades,
		Format:      models.ReportFormatCSV,
		Status:      models.ReportStatusPending,
		Params:      models.ReportJobParams{CourseID: "course-1"},
		RequestedBy: "prof-1",
	}
	repo.jobs[job.ID] = job
	require.NoError(t, svc.ProcessJob(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))

	status, err := svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusCompleted, status.Status)
	require.NotNil(t, status.ResultURL)
	assert.Contains(t, *status.ResultURL, "/reports/download/")
}

func TestReportServiceDownloadRoundTrip(t *testing.T) {
	svc, repo, _ := newReportServiceForTest(t, gradeSourceStub{rows: specimenGradeRows()})
	job := &models.ReportJob{
		ID:          "job-dl",
		Type:        models.ReportTypeGrades,
		Format:      models.ReportFormatCSV,
		Status:      models.ReportStatusPending,
		Params:      models.ReportJobParams{CourseID: "course-1"},
		RequestedBy: "prof-1",
	}
	repo.jobs[job.ID] = job
	require.NoError(t, svc.ProcessJob(context.Background(), jobs.Job{ID: job.ID, Payload: job.ID}))

	token, _, err := svc.signer.Generate(job.ID, *repo.jobs[job.ID].FilePath)
	require.NoError(t, err)

	path, err := svc.Download(context.Background(), token)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = svc.Download(context.Background(), "not-a-token")
	require.Error(t, err)
}

func TestReportServiceRecoverPending(t *testing.T) {
	svc, repo, queue := newReportServiceForTest(t, gradeSourceStub{})
	repo.jobs["job-a"] = &models.ReportJob{ID: "job-a", Status: models.ReportStatusPending}
	repo.jobs["job-b"] = &models.ReportJob{ID: "job-b", Status: models.ReportStatusCompleted}

	require.NoError(t, svc.RecoverPending(context.Background()))
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "job-a", queue.jobs[0].ID)
}
