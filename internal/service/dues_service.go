package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vidyalaya/fees-api/internal/dto"
	"github.com/vidyalaya/fees-api/internal/models"
	appErrors "github.com/vidyalaya/fees-api/pkg/errors"
)

type duesStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type feeStructureProvider interface {
	Get(ctx context.Context) (*models.FeeStructure, error)
}

// UPIConfig carries the school's collection account for the payment prompt.
type UPIConfig struct {
	Address string
	Payee   string
}

// DuesService serves both dues contracts for a student: the human-readable
// message list and the itemized summary, plus the UPI payment prompt.
type DuesService struct {
	students   duesStudentRepository
	structures feeStructureProvider
	cache      *CacheService
	metrics    *MetricsService
	upi        UPIConfig
	logger     *zap.Logger
}

// NewDuesService constructs the service.
func NewDuesService(students duesStudentRepository, structures feeStructureProvider, cache *CacheService, metrics *MetricsService, upi UPIConfig, logger *zap.Logger) *DuesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuesService{students: students, structures: structures, cache: cache, metrics: metrics, upi: upi, logger: logger}
}

// Messages returns the dues message list for a student.
func (s *DuesService) Messages(ctx context.Context, actor *models.JWTClaims, studentID string) ([]string, error) {
	student, structure, err := s.load(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	messages := CalculateDues(*student, *structure)
	if s.metrics != nil {
		s.metrics.RecordDuesComputation("messages", time.Since(start))
	}
	return messages, nil
}

// Summary returns the itemized dues summary for a student. Results are cached
// under a key derived from the structure and payments versions, so any edit
// naturally misses the stale entry.
func (s *DuesService) Summary(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.DuesSummary, error) {
	student, structure, err := s.load(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	key := duesCacheKey(student, structure)
	var cached models.DuesSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	start := time.Now()
	summary := SummarizeDues(*student, *structure)
	if s.metrics != nil {
		s.metrics.RecordDuesComputation("summary", time.Since(start))
	}

	if err := s.cache.Set(ctx, key, summary, 0); err != nil {
		s.logger.Warn("failed to cache dues summary", zap.String("student_id", studentID), zap.Error(err))
	}
	return &summary, nil
}

// UPIPrompt builds a upi://pay deep link for the student's outstanding total.
// The link is empty when nothing is due or no UPI address is configured.
func (s *DuesService) UPIPrompt(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.UPIPrompt, error) {
	student, structure, err := s.load(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	summary := SummarizeDues(*student, *structure)
	prompt := &dto.UPIPrompt{Total: summary.Total}
	if summary.Total <= 0 || s.upi.Address == "" {
		return prompt, nil
	}

	params := url.Values{}
	params.Set("pa", s.upi.Address)
	if s.upi.Payee != "" {
		params.Set("pn", s.upi.Payee)
	}
	params.Set("am", strconv.FormatInt(summary.Total, 10))
	params.Set("cu", "INR")
	params.Set("tn", "School fees "+student.AdmissionNo)
	prompt.Link = "upi://pay?" + params.Encode()
	return prompt, nil
}

func (s *DuesService) load(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.Student, *models.FeeStructure, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := authorizeStudentRead(actor, student); err != nil {
		return nil, nil, err
	}

	structure, err := s.structures.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	return student, structure, nil
}

// authorizeStudentRead lets staff read any student while parents only reach
// students whose guardian account is their own.
func authorizeStudentRead(actor *models.JWTClaims, student *models.Student) error {
	if actor == nil || actor.Role != models.RoleParent {
		return nil
	}
	if student.GuardianUserID != nil && *student.GuardianUserID == actor.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not the guardian of this student")
}

func duesCacheKey(student *models.Student, structure *models.FeeStructure) string {
	return fmt.Sprintf("fees:dues:%s:v%d:p%d", student.ID, structure.Version, student.PaymentsVersion)
}
