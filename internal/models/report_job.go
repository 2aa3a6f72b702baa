package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type ReportType string

const (
	ReportTypeGrades     ReportType = "grades"
	ReportTypeAttendance ReportType = "attendance"
	ReportTypeSummary    ReportType = "summary"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeGrades, ReportTypeAttendance, ReportTypeSummary:
		return true
	default:
		return false
	}
}

type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJobParams is stored as JSONB alongside the job row.
type ReportJobParams struct {
	CourseID  string `json:"course_id,omitempty"`
	StudentID string `json:"student_id,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

func (p ReportJobParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ReportJobParams) Scan(src interface{}) error {
	if src == nil {
		*p = ReportJobParams{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for ReportJobParams", src)
	}
	return json.Unmarshal(b, p)
}

type ReportJob struct {
	ID          string          `db:"id" json:"id"`
	Type        ReportType      `db:"type" json:"type"`
	Format      ReportFormat    `db:"format" json:"format"`
	Status      ReportStatus    `db:"status" json:"status"`
	Params      ReportJobParams `db:"params" json:"params"`
	RequestedBy string          `db:"requested_by" json:"requested_by"`
	FilePath    *string         `db:"file_path" json:"-"`
	FileURL     *string         `db:"-" json:"file_url,omitempty"`
	Error       *string         `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	StartedAt   *time.Time      `db:"started_at" json:"started_at,omitempty"`
	FinishedAt  *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
}
