package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/academix-io/academix-api/internal/dto"
	"github.com/academix-io/academix-api/internal/models"
	"github.com/academix-io/academix-api/internal/repository"
	appErrors "github.com/academix-io/academix-api/pkg/errors"
	"github.com/academix-io/academix-api/pkg/export"
	"github.com/academix-io/academix-api/pkg/jobs"
	"github.com/academix-io/academix-api/pkg/storage"
)

type reportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListPending(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
}

type reportGradeSource interface {
	CourseReportRows(ctx context.Context, courseID string) ([]models.GradeReportRow, error)
	Transcript(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
}

type reportAttendanceSource interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
}

type reportQueue interface {
	Enqueue(job jobs.Job) error
}

// ReportService coordinates asynchronous report generation and delivery.
type ReportService struct {
	repo       reportJobRepository
	grades     reportGradeSource
	attendance reportAttendanceSource
	queue      reportQueue
	storage    *storage.LocalStorage
	signer     *storage.SignedURLSigner
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReportService constructs a ReportService. The worker queue is created by
// the caller and wired to ProcessJob.
func NewReportService(repo reportJobRepository, grades reportGradeSource, attendance reportAttendanceSource, store *storage.LocalStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:       repo,
		grades:     grades,
		attendance: attendance,
		storage:    store,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		validator:  validate,
		logger:     logger,
	}
}

// AttachQueue wires the worker queue after construction.
func (s *ReportService) AttachQueue(queue reportQueue) {
	s.queue = queue
}

// Generate validates the request, persists a pending job, and enqueues it.
func (s *ReportService) Generate(ctx context.Context, req dto.ReportRequest, requestedBy string) (*dto.ReportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	params := models.ReportJobParams{}
	switch req.Type {
	case models.ReportTypeGrades, models.ReportTypeAttendance:
		if req.CourseID == nil || *req.CourseID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course_id required for this report type")
		}
		params.CourseID = *req.CourseID
	case models.ReportTypeSummary:
		if req.StudentID == nil || *req.StudentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student_id required for this report type")
		}
		params.StudentID = *req.StudentID
	}

	job := &models.ReportJob{
		Type:        req.Type,
		Format:      req.Format,
		Status:      models.ReportStatusPending,
		Params:      params,
		RequestedBy: requestedBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.enqueue(job.ID); err != nil {
		s.logger.Warn("failed to enqueue report job", zap.String("job_id", job.ID), zap.Error(err))
	}
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// Status returns the current state of a job, including a signed download URL
// once the job has completed.
func (s *ReportService) Status(ctx context.Context, jobID string) (*dto.ReportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	resp := &dto.ReportStatusResponse{ID: job.ID, Status: job.Status, Error: job.Error}
	if job.Status == models.ReportStatusCompleted && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("/reports/download/%s", token)
		resp.ResultURL = &url
	}
	return resp, nil
}

// Download validates a signed token and returns the stored file path.
func (s *ReportService) Download(ctx context.Context, token string) (string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return "", appErrors.Clone(appErrors.ErrNotFound, "report file not available")
	}
	return s.storage.Path(relPath), nil
}

// ProcessJob is the queue handler. It renders and stores the report file.
func (s *ReportService) ProcessJob(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected report payload %T", job.Payload)
	}
	record, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}
	started := time.Now().UTC()
	processing := models.ReportStatusProcessing
	if err := s.repo.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &processing, StartedAt: &started}); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}

	data, title, err := s.buildDataset(ctx, record)
	if err != nil {
		s.markFailed(ctx, jobID, err)
		return err
	}

	var payload []byte
	switch record.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(data)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(data, title)
	default:
		err = fmt.Errorf("unsupported format %s", record.Format)
	}
	if err != nil {
		s.markFailed(ctx, jobID, err)
		return err
	}

	filename := fmt.Sprintf("%s-%s.%s", record.Type, record.ID, record.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.markFailed(ctx, jobID, err)
		return err
	}

	finished := time.Now().UTC()
	completed := models.ReportStatusCompleted
	if err := s.repo.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &completed, FilePath: &relPath, FinishedAt: &finished}); err != nil {
		return fmt.Errorf("mark report job completed: %w", err)
	}
	s.logger.Info("report job completed", zap.String("job_id", jobID), zap.String("file", relPath))
	return nil
}

// RecoverPending re-enqueues jobs left pending by a previous process.
func (s *ReportService) RecoverPending(ctx context.Context) error {
	pending, err := s.repo.ListPending(ctx, 50)
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := s.enqueue(job.ID); err != nil {
			s.logger.Warn("failed to re-enqueue pending report job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	return nil
}

// CleanupExpired removes stored files for jobs finished before the cutoff.
func (s *ReportService) CleanupExpired(ctx context.Context, olderThan time.Duration) {
	cutoff := time.Now().UTC().Add(-olderThan)
	finished, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("failed to list expired report jobs", zap.Error(err))
		return
	}
	for _, job := range finished {
		if job.FilePath == nil {
			continue
		}
		if err := s.storage.Delete(*job.FilePath); err != nil {
			s.logger.Warn("failed to delete expired report file", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *ReportService) enqueue(jobID string) error {
	if s.queue == nil {
		return fmt.Errorf("report queue not attached")
	}
	return s.queue.Enqueue(jobs.Job{ID: jobID, Type: "report", Payload: jobID})
}

func (s *ReportService) markFailed(ctx context.Context, jobID string, cause error) {
	failed := models.ReportStatusFailed
	msg := cause.Error()
	finished := time.Now().UTC()
	if err := s.repo.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &failed, Error: &msg, FinishedAt: &finished}); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *ReportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeGrades:
		rows, err := s.grades.CourseReportRows(ctx, job.Params.CourseID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load grade rows: %w", err)
		}
		data := export.Dataset{Headers: []string{"student_id", "student_name", "weighted_total", "letter_grade", "rank"}}
		for _, row := range rows {
			record := map[string]string{
				"student_id":   row.StudentID,
				"student_name": row.StudentName,
			}
			if row.WeightedTotal != nil {
				record["weighted_total"] = strconv.FormatFloat(*row.WeightedTotal, 'f', 2, 64)
			}
			if row.LetterGrade != nil {
				record["letter_grade"] = *row.LetterGrade
			}
			if row.Rank != nil {
				record["rank"] = strconv.Itoa(*row.Rank)
			}
			data.Rows = append(data.Rows, record)
		}
		return data, fmt.Sprintf("Course Grades %s", job.Params.CourseID), nil

	case models.ReportTypeAttendance:
		records, _, err := s.attendance.List(ctx, models.AttendanceFilter{CourseID: job.Params.CourseID, PageSize: 100})
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load attendance rows: %w", err)
		}
		data := export.Dataset{Headers: []string{"student_id", "student_name", "date", "status"}}
		for _, record := range records {
			data.Rows = append(data.Rows, map[string]string{
				"student_id":   record.StudentID,
				"student_name": record.StudentName,
				"date":         record.Date.Format("2006-01-02"),
				"status":       string(record.Status),
			})
		}
		return data, fmt.Sprintf("Course Attendance %s", job.Params.CourseID), nil

	case models.ReportTypeSummary:
		rows, err := s.grades.Transcript(ctx, job.Params.StudentID)
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load transcript rows: %w", err)
		}
		data := export.Dataset{Headers: []string{"course_code", "course_title", "weighted_total", "letter_grade"}}
		for _, row := range rows {
			record := map[string]string{
				"course_code":  row.CourseCode,
				"course_title": row.CourseTitle,
			}
			if row.WeightedTotal != nil {
				record["weighted_total"] = strconv.FormatFloat(*row.WeightedTotal, 'f', 2, 64)
			}
			if row.LetterGrade != nil {
				record["letter_grade"] = *row.LetterGrade
			}
			data.Rows = append(data.Rows, record)
		}
		return data, fmt.Sprintf("Student Summary %s", job.Params.StudentID), nil
	}
	return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
}
