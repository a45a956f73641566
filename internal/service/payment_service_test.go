package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/fees-api/internal/dto"
	"github.com/vidyalaya/fees-api/internal/models"
	appErrors "github.com/vidyalaya/fees-api/pkg/errors"
)

type paymentStudentStub struct {
	students map[string]*models.Student
}

func (s *paymentStudentStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := s.students[id]; ok {
		copied := *student
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *paymentStudentStub) ReplacePayments(ctx context.Context, id string, payments *models.FeePayments, expectedVersion int64) (int64, error) {
	student, ok := s.students[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	if expectedVersion != 0 && expectedVersion != student.PaymentsVersion {
		return 0, sql.ErrNoRows
	}
	student.FeePayments = payments
	student.PaymentsVersion++
	return student.PaymentsVersion, nil
}

func newPaymentFixture() (*PaymentService, *paymentStudentStub, *auditStub) {
	students := &paymentStudentStub{students: map[string]*models.Student{
		"s1": {ID: "s1", AdmissionNo: "ADM-001", FullName: "Asha Verma", Grade: models.GradeClassI, Active: true, PaymentsVersion: 1},
	}}
	audit := &auditStub{}
	return NewPaymentService(students, audit, nil, validator.New(), nil), students, audit
}

func TestPaymentServiceGetSubstitutesDefault(t *testing.T) {
	service, _, _ := newPaymentFixture()

	resp, err := service.Get(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	require.NotNil(t, resp.Payments)
	assert.False(t, resp.Payments.AdmissionFeePaid)
	assert.Len(t, resp.Payments.TuitionFeesPaid, len(models.AcademicMonths))
	assert.Equal(t, int64(1), resp.Version)
}

func TestPaymentServiceReplaceNormalizesMonths(t *testing.T) {
	service, students, audit := newPaymentFixture()

	resp, err := service.Replace(context.Background(), adminClaims(), "s1", dto.UpdatePaymentsRequest{
		AdmissionFeePaid: true,
		TuitionFeesPaid:  map[string]bool{"April": true, "Octember": true},
	})
	require.NoError(t, err)

	// Unknown month dropped, missing months filled in as unpaid.
	assert.Len(t, resp.Payments.TuitionFeesPaid, len(models.AcademicMonths))
	assert.True(t, resp.Payments.TuitionFeesPaid["April"])
	assert.False(t, resp.Payments.TuitionFeesPaid["May"])
	_, hasUnknown := resp.Payments.TuitionFeesPaid["Octember"]
	assert.False(t, hasUnknown)

	assert.Equal(t, int64(2), resp.Version)
	assert.Equal(t, int64(2), students.students["s1"].PaymentsVersion)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPaymentsUpdate, audit.logs[0].Action)
}

func TestPaymentServiceReplaceVersionConflict(t *testing.T) {
	service, _, _ := newPaymentFixture()

	stale := int64(9)
	_, err := service.Replace(context.Background(), adminClaims(), "s1", dto.UpdatePaymentsRequest{
		TuitionFeesPaid: map[string]bool{},
		ExpectedVersion: &stale,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrVersionMismatch.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceReplaceLastWriterWinsWithoutGuard(t *testing.T) {
	service, _, _ := newPaymentFixture()

	first, err := service.Replace(context.Background(), adminClaims(), "s1", dto.UpdatePaymentsRequest{
		TuitionFeesPaid: map[string]bool{"April": true},
	})
	require.NoError(t, err)

	second, err := service.Replace(context.Background(), adminClaims(), "s1", dto.UpdatePaymentsRequest{
		TuitionFeesPaid: map[string]bool{"May": true},
	})
	require.NoError(t, err)

	// The second whole-object write replaces the first outright.
	assert.False(t, second.Payments.TuitionFeesPaid["April"])
	assert.True(t, second.Payments.TuitionFeesPaid["May"])
	assert.Greater(t, second.Version, first.Version)
}

func TestPaymentServiceReplaceParentForbidden(t *testing.T) {
	service, _, _ := newPaymentFixture()
	parent := &models.JWTClaims{UserID: "parent-1", Role: models.RoleParent}

	_, err := service.Replace(context.Background(), parent, "s1", dto.UpdatePaymentsRequest{
		TuitionFeesPaid: map[string]bool{},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceReplaceStudentNotFound(t *testing.T) {
	service, _, _ := newPaymentFixture()

	_, err := service.Replace(context.Background(), adminClaims(), "missing", dto.UpdatePaymentsRequest{
		TuitionFeesPaid: map[string]bool{},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
