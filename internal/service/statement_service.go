package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vidyalaya/fees-api/internal/dto"
	"github.com/vidyalaya/fees-api/internal/models"
	appErrors "github.com/vidyalaya/fees-api/pkg/errors"
	"github.com/vidyalaya/fees-api/pkg/export"
	"github.com/vidyalaya/fees-api/pkg/jobs"
	"github.com/vidyalaya/fees-api/pkg/storage"
)

type statementJobRepository interface {
	Create(ctx context.Context, job *models.StatementJob) error
	FindByID(ctx context.Context, id string) (*models.StatementJob, error)
	ListByRequester(ctx context.Context, userID string, limit int) ([]models.StatementJob, error)
	UpdateStatus(ctx context.Context, id string, status models.StatementStatus, jobErr *string) error
	MarkCompleted(ctx context.Context, id, filePath, downloadURL string, expiresAt time.Time) error
	ListExpired(ctx context.Context, now time.Time) ([]models.StatementJob, error)
	Delete(ctx context.Context, id string) error
}

type statementStudentLister interface {
	ListByGrade(ctx context.Context, grade *models.Grade) ([]models.Student, error)
}

// StatementConfig tunes the export pipeline.
type StatementConfig struct {
	APIPrefix       string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
	Workers         int
	Retries         int
}

// StatementService produces dues register exports asynchronously: requests
// are queued, workers render CSV or PDF files, and completed jobs expose a
// signed download link until cleanup removes them.
type StatementService struct {
	repo      statementJobRepository
	students  statementStudentLister
	structure feeStructureProvider
	audit     auditLogRepository
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    StatementConfig

	queue *jobs.Queue
}

// NewStatementService constructs the service and its worker queue.
func NewStatementService(repo statementJobRepository, students statementStudentLister, structure feeStructureProvider, audit auditLogRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config StatementConfig) *StatementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}

	s := &StatementService{
		repo:      repo,
		students:  students,
		structure: structure,
		audit:     audit,
		store:     store,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
	s.queue = jobs.NewQueue("statements", s.process, jobs.QueueConfig{
		Workers:    config.Workers,
		MaxRetries: config.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the cleanup loop.
func (s *StatementService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.runCleanup(ctx)
}

// Stop drains the worker pool.
func (s *StatementService) Stop() {
	s.queue.Stop()
}

// Request queues a new dues register export.
func (s *StatementService) Request(ctx context.Context, actor *models.JWTClaims, req dto.CreateStatementRequest) (*models.StatementJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid statement payload")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown statement format %q", req.Format))
	}
	if req.Grade != nil && !req.Grade.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown grade %q", *req.Grade))
	}

	job := &models.StatementJob{
		Grade:       req.Grade,
		Format:      req.Format,
		Status:      models.StatementStatusPending,
		RequestedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create statement job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "statement", Payload: job.ID}); err != nil {
		msg := "statement queue unavailable"
		_ = s.repo.UpdateStatus(ctx, job.ID, models.StatementStatusFailed, &msg)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue statement job")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionStatementRequest,
			Resource:   "statements",
			ResourceID: &job.ID,
			NewValues:  []byte(fmt.Sprintf(`{"format":%q}`, job.Format)),
		}); err != nil {
			s.logger.Warn("failed to record statement audit log", zap.Error(err))
		}
	}
	return job, nil
}

// Get returns a statement job's current state.
func (s *StatementService) Get(ctx context.Context, id string) (*models.StatementJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "statement job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statement job")
	}
	return job, nil
}

// ListMine returns the caller's recent statement jobs.
func (s *StatementService) ListMine(ctx context.Context, actor *models.JWTClaims, limit int) ([]models.StatementJob, error) {
	jobs, err := s.repo.ListByRequester(ctx, actor.UserID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list statement jobs")
	}
	return jobs, nil
}

// Download validates the signed token and returns the file plus its content type.
func (s *StatementService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "statement job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statement job")
	}
	if job.Status != models.StatementStatusCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "statement file no longer available")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "statement file missing")
	}

	contentType := "text/csv"
	if job.Format == models.StatementFormatPDF {
		contentType = "application/pdf"
	}
	return file, contentType, nil
}

// process renders one queued statement job. Failures flip the job to FAILED
// and bubble up so the queue retries; a later success overwrites the status.
func (s *StatementService) process(ctx context.Context, job jobs.Job) error {
	jobID, _ := job.Payload.(string)
	if jobID == "" {
		jobID = job.ID
	}

	stmt, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load statement job %s: %w", jobID, err)
	}
	if err := s.repo.UpdateStatus(ctx, jobID, models.StatementStatusProcessing, nil); err != nil {
		s.logger.Warn("failed to mark statement processing", zap.String("job_id", jobID), zap.Error(err))
	}

	if err := s.render(ctx, stmt); err != nil {
		msg := err.Error()
		if updateErr := s.repo.UpdateStatus(ctx, jobID, models.StatementStatusFailed, &msg); updateErr != nil {
			s.logger.Warn("failed to mark statement failed", zap.String("job_id", jobID), zap.Error(updateErr))
		}
		if s.metrics != nil {
			s.metrics.RecordStatement(string(stmt.Format), "failure")
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordStatement(string(stmt.Format), "success")
	}
	return nil
}

func (s *StatementService) render(ctx context.Context, stmt *models.StatementJob) error {
	students, err := s.students.ListByGrade(ctx, stmt.Grade)
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}
	structure, err := s.structure.Get(ctx)
	if err != nil {
		return fmt.Errorf("load fee structure: %w", err)
	}

	dataset := buildStatementDataset(students, *structure)

	var payload []byte
	switch stmt.Format {
	case models.StatementFormatPDF:
		title := "Dues Register"
		if stmt.Grade != nil {
			title = fmt.Sprintf("Dues Register - %s", *stmt.Grade)
		}
		payload, err = s.pdf.Render(dataset, title)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return fmt.Errorf("render statement: %w", err)
	}

	filename := fmt.Sprintf("%s.%s", stmt.ID, stmt.Format)
	relPath, err := s.store.Save(filename, payload)
	if err != nil {
		return fmt.Errorf("store statement: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(stmt.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign statement url: %w", err)
	}
	downloadURL := fmt.Sprintf("%s/statements/%s/download?token=%s", s.config.APIPrefix, stmt.ID, token)

	if err := s.repo.MarkCompleted(ctx, stmt.ID, relPath, downloadURL, expiresAt); err != nil {
		return fmt.Errorf("complete statement job: %w", err)
	}

	s.logger.Info("statement rendered",
		zap.String("job_id", stmt.ID),
		zap.String("format", string(stmt.Format)),
		zap.Int("students", len(students)))
	return nil
}

// buildStatementDataset flattens each student's dues summary into one register
// row. Amounts stay unformatted so spreadsheets can sum the column.
func buildStatementDataset(students []models.Student, structure models.FeeStructure) export.Dataset {
	headers := []string{"Admission No", "Student", "Grade", "Outstanding Items", "Total (Rs)"}
	rows := make([]map[string]string, 0, len(students))
	for _, student := range students {
		summary := SummarizeDues(student, structure)
		items := make([]string, 0, len(summary.Items))
		for _, item := range summary.Items {
			items = append(items, fmt.Sprintf("%s: %d", item.Description, item.Amount))
		}
		rows = append(rows, map[string]string{
			"Admission No":      student.AdmissionNo,
			"Student":           student.FullName,
			"Grade":             string(student.Grade),
			"Outstanding Items": strings.Join(items, "; "),
			"Total (Rs)":        strconv.FormatInt(summary.Total, 10),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func (s *StatementService) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired(ctx)
		}
	}
}

func (s *StatementService) cleanupExpired(ctx context.Context) {
	expired, err := s.repo.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Warn("failed to list expired statements", zap.Error(err))
		return
	}
	for _, job := range expired {
		if job.FilePath != nil {
			if err := s.store.Delete(*job.FilePath); err != nil {
				s.logger.Warn("failed to delete statement file", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
		}
		if err := s.repo.Delete(ctx, job.ID); err != nil {
			s.logger.Warn("failed to delete statement job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(expired) > 0 {
		s.logger.Info("expired statements cleaned", zap.Int("count", len(expired)))
	}
}
