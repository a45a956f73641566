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

// Cache keys for the fees domain. Dues entries embed the structure and
// payments versions so stale entries are never served after an edit.
const (
	cacheKeyStructure = "fees:structure"
	cachePatternFees  = "fees:*"
)

type feeStructureRepository interface {
	Get(ctx context.Context) (*models.FeeStructure, error)
	Replace(ctx context.Context, structure *models.FeeStructure, expectedVersion int64, updatedBy string) (int64, error)
}

type auditLogRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// FeeStructureService implements the fee structure editor: whole-document
// replace plus head-level and grade-map conveniences that all funnel through
// the same guarded write.
type FeeStructureService struct {
	repo      feeStructureRepository
	audit     auditLogRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeStructureService constructs the service.
func NewFeeStructureService(repo feeStructureRepository, audit auditLogRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *FeeStructureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeStructureService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Get returns the current fee structure. A school that has not configured
// fees yet gets the default empty structure with the built-in grade map.
func (s *FeeStructureService) Get(ctx context.Context) (*models.FeeStructure, error) {
	var cached models.FeeStructure
	if hit, _ := s.cache.Get(ctx, cacheKeyStructure, &cached); hit {
		return &cached, nil
	}

	structure, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			def := models.DefaultFeeStructure()
			return &def, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee structure")
	}

	if err := s.cache.Set(ctx, cacheKeyStructure, structure, 0); err != nil {
		s.logger.Warn("failed to cache fee structure", zap.Error(err))
	}
	return structure, nil
}

// Replace overwrites the whole fee structure document. The request carries
// the full desired state; partial edits go through UpsertHead, DeleteHead and
// AssignGrade, which all converge here.
func (s *FeeStructureService) Replace(ctx context.Context, actor *models.JWTClaims, req dto.ReplaceFeeStructureRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee structure payload")
	}

	structure := models.FeeStructure{
		Set1:     models.FeeSet{Heads: toHeads(req.Set1)},
		Set2:     models.FeeSet{Heads: toHeads(req.Set2)},
		Set3:     models.FeeSet{Heads: toHeads(req.Set3)},
		GradeMap: req.GradeMap,
	}
	if structure.GradeMap == nil {
		structure.GradeMap = models.DefaultGradeMap()
	}
	if err := validateStructure(&structure); err != nil {
		return nil, err
	}

	expected := int64(0)
	if req.ExpectedVersion != nil {
		expected = *req.ExpectedVersion
	}
	return s.write(ctx, actor, &structure, expected, models.AuditActionFeeStructureUpdate)
}

// UpsertHead adds a fee head to a schedule, or replaces it when a head with
// the same ID already exists there.
func (s *FeeStructureService) UpsertHead(ctx context.Context, actor *models.JWTClaims, schedule string, req dto.UpsertFeeHeadRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee head payload")
	}

	structure, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	set, ok := structure.Set(schedule)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownSchedule, fmt.Sprintf("unknown schedule %q", schedule))
	}

	head := models.FeeHead{ID: req.Head.ID, Name: req.Head.Name, Amount: req.Head.Amount, Type: req.Head.Type}
	if !head.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown fee head type %q", head.Type))
	}

	replaced := false
	for i := range set.Heads {
		if set.Heads[i].ID == head.ID {
			set.Heads[i] = head
			replaced = true
			break
		}
	}
	if !replaced {
		set.Heads = append(set.Heads, head)
	}

	return s.write(ctx, actor, structure, structure.Version, models.AuditActionFeeStructureUpdate)
}

// DeleteHead removes a fee head from a schedule.
func (s *FeeStructureService) DeleteHead(ctx context.Context, actor *models.JWTClaims, schedule, headID string) (*models.FeeStructure, error) {
	structure, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	set, ok := structure.Set(schedule)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownSchedule, fmt.Sprintf("unknown schedule %q", schedule))
	}

	kept := set.Heads[:0]
	found := false
	for _, head := range set.Heads {
		if head.ID == headID {
			found = true
			continue
		}
		kept = append(kept, head)
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "fee head not found")
	}
	set.Heads = kept

	return s.write(ctx, actor, structure, structure.Version, models.AuditActionFeeStructureUpdate)
}

// AssignGrade moves a grade onto a schedule. The grade is removed from every
// other schedule first so no grade is ever mapped twice.
func (s *FeeStructureService) AssignGrade(ctx context.Context, actor *models.JWTClaims, req dto.AssignGradeRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade assignment payload")
	}
	if !req.Grade.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown grade %q", req.Grade))
	}

	structure, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := structure.Set(req.Schedule); !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownSchedule, fmt.Sprintf("unknown schedule %q", req.Schedule))
	}

	if structure.GradeMap == nil {
		structure.GradeMap = models.DefaultGradeMap()
	}
	for name, grades := range structure.GradeMap {
		kept := grades[:0]
		for _, grade := range grades {
			if grade != req.Grade {
				kept = append(kept, grade)
			}
		}
		structure.GradeMap[name] = kept
	}
	structure.GradeMap[req.Schedule] = append(structure.GradeMap[req.Schedule], req.Grade)

	return s.write(ctx, actor, structure, structure.Version, models.AuditActionGradeMapUpdate)
}

func (s *FeeStructureService) write(ctx context.Context, actor *models.JWTClaims, structure *models.FeeStructure, expectedVersion int64, auditAction string) (*models.FeeStructure, error) {
	updatedBy := ""
	if actor != nil {
		updatedBy = actor.UserID
	}

	version, err := s.repo.Replace(ctx, structure, expectedVersion, updatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrVersionMismatch, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store fee structure")
	}
	structure.Version = version

	if err := s.cache.Invalidate(ctx, cachePatternFees); err != nil {
		s.logger.Warn("failed to invalidate fees cache", zap.Error(err))
	}

	if s.audit != nil && actor != nil {
		payload, _ := json.Marshal(structure)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:    &actor.UserID,
			Action:    auditAction,
			Resource:  "fee_structure",
			NewValues: payload,
		}); err != nil {
			s.logger.Warn("failed to record fee structure audit log", zap.Error(err))
		}
	}

	s.logger.Info("fee structure updated",
		zap.Int64("version", version),
		zap.String("updated_by", updatedBy))
	return structure, nil
}

func toHeads(reqs []dto.FeeHeadRequest) []models.FeeHead {
	heads := make([]models.FeeHead, 0, len(reqs))
	for _, r := range reqs {
		heads = append(heads, models.FeeHead{ID: r.ID, Name: r.Name, Amount: r.Amount, Type: r.Type})
	}
	return heads
}

// validateStructure enforces document-level invariants: head IDs unique per
// schedule, valid cadence types, non-negative amounts, known schedules and
// grades in the map, and no grade assigned to more than one schedule.
func validateStructure(structure *models.FeeStructure) error {
	for _, name := range models.ScheduleNames {
		set, _ := structure.Set(name)
		seen := make(map[string]bool, len(set.Heads))
		for _, head := range set.Heads {
			if head.ID == "" || head.Name == "" {
				return appErrors.Clone(appErrors.ErrValidation, "fee head id and name are required")
			}
			if seen[head.ID] {
				return appErrors.Clone(appErrors.ErrDuplicateFeeHead, fmt.Sprintf("duplicate fee head %q in %s", head.ID, name))
			}
			seen[head.ID] = true
			if head.Amount < 0 {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("fee head %q has a negative amount", head.ID))
			}
			if !head.Type.Valid() {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("fee head %q has unknown type %q", head.ID, head.Type))
			}
		}
	}

	assigned := make(map[models.Grade]string)
	for name, grades := range structure.GradeMap {
		if _, ok := structure.Set(name); !ok {
			return appErrors.Clone(appErrors.ErrUnknownSchedule, fmt.Sprintf("unknown schedule %q in grade map", name))
		}
		for _, grade := range grades {
			if !grade.Valid() {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown grade %q in grade map", grade))
			}
			if prior, dup := assigned[grade]; dup {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade %q assigned to both %s and %s", grade, prior, name))
			}
			assigned[grade] = name
		}
	}
	return nil
}
