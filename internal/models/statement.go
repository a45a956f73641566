package models

import "time"

// StatementFormat names the supported statement output formats.
type StatementFormat string

const (
	StatementFormatCSV StatementFormat = "csv"
	StatementFormatPDF StatementFormat = "pdf"
)

// Valid reports whether f is a supported format.
func (f StatementFormat) Valid() bool {
	return f == StatementFormatCSV || f == StatementFormatPDF
}

// StatementStatus tracks statement job lifecycle.
type StatementStatus string

const (
	StatementStatusPending    StatementStatus = "PENDING"
	StatementStatusProcessing StatementStatus = "PROCESSING"
	StatementStatusCompleted  StatementStatus = "COMPLETED"
	StatementStatusFailed     StatementStatus = "FAILED"
)

// StatementJob is an asynchronous dues-register export request. A nil Grade
// covers the whole school.
type StatementJob struct {
	ID          string          `db:"id" json:"id"`
	Grade       *Grade          `db:"grade" json:"grade,omitempty"`
	Format      StatementFormat `db:"format" json:"format"`
	Status      StatementStatus `db:"status" json:"status"`
	FilePath    *string         `db:"file_path" json:"-"`
	DownloadURL *string         `db:"download_url" json:"download_url,omitempty"`
	ExpiresAt   *time.Time      `db:"expires_at" json:"expires_at,omitempty"`
	Error       *string         `db:"error" json:"error,omitempty"`
	RequestedBy string          `db:"requested_by" json:"requested_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
