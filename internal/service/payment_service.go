package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vidyalaya/fees-api/internal/dto"
	"github.com/vidyalaya/fees-api/internal/models"
	appErrors "github.com/vidyalaya/fees-api/pkg/errors"
)

type paymentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ReplacePayments(ctx context.Context, id string, payments *models.FeePayments, expectedVersion int64) (int64, error)
}

// PaymentService reads and replaces a student's payment state. The state is
// always written back as one object; there are no field-level updates.
type PaymentService struct {
	students  paymentStudentRepository
	audit     auditLogRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(students paymentStudentRepository, audit auditLogRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{students: students, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Get returns the student's payment state. Students without a stored record
// get the default all-false shape.
func (s *PaymentService) Get(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.PaymentsResponse, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := authorizeStudentRead(actor, student); err != nil {
		return nil, err
	}

	return &dto.PaymentsResponse{
		StudentID: student.ID,
		Payments:  student.FeePayments.Clone(),
		Version:   student.PaymentsVersion,
	}, nil
}

// Replace overwrites the student's whole payment state. The payload is
// normalised so every academic month carries an explicit entry and unknown
// month names are dropped.
func (s *PaymentService) Replace(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.UpdatePaymentsRequest) (*dto.PaymentsResponse, error) {
	if actor != nil && actor.Role == models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "parents cannot modify payment records")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payments payload")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	payments := normalizePayments(req)

	expected := int64(0)
	if req.ExpectedVersion != nil {
		expected = *req.ExpectedVersion
	}

	version, err := s.students.ReplacePayments(ctx, studentID, payments, expected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrVersionMismatch, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store payments")
	}

	if err := s.cache.Invalidate(ctx, fmt.Sprintf("fees:dues:%s:*", studentID)); err != nil {
		s.logger.Warn("failed to invalidate dues cache", zap.String("student_id", studentID), zap.Error(err))
	}

	if s.audit != nil && actor != nil {
		oldValues, _ := json.Marshal(student.FeePayments.Clone())
		newValues, _ := json.Marshal(payments)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionPaymentsUpdate,
			Resource:   "payments",
			ResourceID: &studentID,
			OldValues:  oldValues,
			NewValues:  newValues,
		}); err != nil {
			s.logger.Warn("failed to record payments audit log", zap.Error(err))
		}
	}

	s.logger.Info("payments replaced",
		zap.String("student_id", studentID),
		zap.Int64("version", version))

	return &dto.PaymentsResponse{StudentID: studentID, Payments: payments, Version: version}, nil
}

// normalizePayments builds the canonical stored shape from the request: one
// entry per academic month, unknown months discarded.
func normalizePayments(req dto.UpdatePaymentsRequest) *models.FeePayments {
	payments := models.DefaultPayments()
	payments.AdmissionFeePaid = req.AdmissionFeePaid
	payments.ExamFeesPaid = req.ExamFeesPaid
	for _, month := range models.AcademicMonths {
		if paid, ok := req.TuitionFeesPaid[month]; ok {
			payments.TuitionFeesPaid[month] = paid
		}
	}
	return payments
}
