package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/fees-api/internal/models"
	appErrors "github.com/vidyalaya/fees-api/pkg/errors"
)

type duesStudentStub struct {
	students map[string]*models.Student
}

func (s *duesStudentStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := s.students[id]; ok {
		copied := *student
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type structureProviderStub struct {
	structure models.FeeStructure
}

func (s *structureProviderStub) Get(ctx context.Context) (*models.FeeStructure, error) {
	structure := s.structure
	return &structure, nil
}

func newDuesFixture(upi UPIConfig) (*DuesService, *duesStudentStub) {
	guardian := "parent-1"
	students := &duesStudentStub{students: map[string]*models.Student{
		"s1": {ID: "s1", AdmissionNo: "ADM-001", FullName: "Asha Verma", Grade: models.GradeClassI, GuardianUserID: &guardian, Active: true, PaymentsVersion: 1},
	}}
	provider := &structureProviderStub{structure: testStructure()}
	return NewDuesService(students, provider, nil, nil, upi, nil), students
}

func TestDuesServiceMessages(t *testing.T) {
	service, _ := newDuesFixture(UPIConfig{})

	messages, err := service.Messages(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "Admission Fee: ₹2,000", messages[0])
}

func TestDuesServiceSummary(t *testing.T) {
	service, _ := newDuesFixture(UPIConfig{})

	summary, err := service.Summary(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2000+12*500+3*300), summary.Total)
	assert.True(t, summary.ScheduleConfigured)
}

func TestDuesServiceStudentNotFound(t *testing.T) {
	service, _ := newDuesFixture(UPIConfig{})

	_, err := service.Summary(context.Background(), adminClaims(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDuesServiceParentSelfAccess(t *testing.T) {
	service, _ := newDuesFixture(UPIConfig{})
	parent := &models.JWTClaims{UserID: "parent-1", Role: models.RoleParent}

	_, err := service.Summary(context.Background(), parent, "s1")
	assert.NoError(t, err)
}

func TestDuesServiceParentForeignStudentForbidden(t *testing.T) {
	service, _ := newDuesFixture(UPIConfig{})
	stranger := &models.JWTClaims{UserID: "parent-2", Role: models.RoleParent}

	_, err := service.Summary(context.Background(), stranger, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDuesServiceUPIPrompt(t *testing.T) {
	service, _ := newDuesFixture(UPIConfig{Address: "school@upi", Payee: "Vidyalaya School"})

	prompt, err := service.UPIPrompt(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2000+12*500+3*300), prompt.Total)
	assert.True(t, strings.HasPrefix(prompt.Link, "upi://pay?"))
	assert.Contains(t, prompt.Link, "pa=school%40upi")
	assert.Contains(t, prompt.Link, "am=8900")
	assert.Contains(t, prompt.Link, "cu=INR")
}

func TestDuesServiceUPIPromptEmptyWhenPaid(t *testing.T) {
	service, students := newDuesFixture(UPIConfig{Address: "school@upi"})
	payments := models.DefaultPayments()
	payments.AdmissionFeePaid = true
	paidMonths(payments, models.AcademicMonths...)
	payments.ExamFeesPaid = models.ExamFeesPaid{Terminal1: true, Terminal2: true, Terminal3: true}
	students.students["s1"].FeePayments = payments

	prompt, err := service.UPIPrompt(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	assert.Zero(t, prompt.Total)
	assert.Empty(t, prompt.Link)
}

func TestDuesServiceUPIPromptNoAddressConfigured(t *testing.T) {
	service, _ := newDuesFixture(UPIConfig{})

	prompt, err := service.UPIPrompt(context.Background(), adminClaims(), "s1")
	require.NoError(t, err)
	assert.NotZero(t, prompt.Total)
	assert.Empty(t, prompt.Link)
}
