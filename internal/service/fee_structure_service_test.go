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

type structureRepoStub struct {
	stored  *models.FeeStructure
	version int64
	err     error
}

func (s *structureRepoStub) Get(ctx context.Context) (*models.FeeStructure, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	structure := *s.stored
	structure.Version = s.version
	return &structure, nil
}

func (s *structureRepoStub) Replace(ctx context.Context, structure *models.FeeStructure, expectedVersion int64, updatedBy string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if expectedVersion != 0 && s.stored != nil && expectedVersion != s.version {
		return 0, sql.ErrNoRows
	}
	stored := *structure
	s.stored = &stored
	s.version++
	return s.version, nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestFeeStructureServiceGetDefault(t *testing.T) {
	service := NewFeeStructureService(&structureRepoStub{}, &auditStub{}, nil, validator.New(), nil)

	structure, err := service.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, structure.Set1.Heads)
	assert.Equal(t, models.DefaultGradeMap(), structure.GradeMap)
	assert.Equal(t, int64(1), structure.Version)
}

func TestFeeStructureServiceReplace(t *testing.T) {
	repo := &structureRepoStub{}
	audit := &auditStub{}
	service := NewFeeStructureService(repo, audit, nil, validator.New(), nil)

	structure, err := service.Replace(context.Background(), adminClaims(), dto.ReplaceFeeStructureRequest{
		Set1: []dto.FeeHeadRequest{{ID: "adm", Name: "Admission Fee", Amount: 2000, Type: models.FeeHeadOneTime}},
		GradeMap: map[string][]models.Grade{
			models.ScheduleSet1: {models.GradeNursery},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), structure.Version)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionFeeStructureUpdate, audit.logs[0].Action)
}

func TestFeeStructureServiceReplaceVersionConflict(t *testing.T) {
	stored := models.DefaultFeeStructure()
	repo := &structureRepoStub{stored: &stored, version: 3}
	service := NewFeeStructureService(repo, &auditStub{}, nil, validator.New(), nil)

	stale := int64(2)
	_, err := service.Replace(context.Background(), adminClaims(), dto.ReplaceFeeStructureRequest{ExpectedVersion: &stale})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrVersionMismatch.Code, appErrors.FromError(err).Code)
}

func TestFeeStructureServiceReplaceRejectsDuplicateHead(t *testing.T) {
	service := NewFeeStructureService(&structureRepoStub{}, &auditStub{}, nil, validator.New(), nil)

	_, err := service.Replace(context.Background(), adminClaims(), dto.ReplaceFeeStructureRequest{
		Set1: []dto.FeeHeadRequest{
			{ID: "adm", Name: "Admission Fee", Amount: 2000, Type: models.FeeHeadOneTime},
			{ID: "adm", Name: "Admission Fee Again", Amount: 500, Type: models.FeeHeadOneTime},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateFeeHead.Code, appErrors.FromError(err).Code)
}

func TestFeeStructureServiceReplaceRejectsDuplicateGradeAssignment(t *testing.T) {
	service := NewFeeStructureService(&structureRepoStub{}, &auditStub{}, nil, validator.New(), nil)

	_, err := service.Replace(context.Background(), adminClaims(), dto.ReplaceFeeStructureRequest{
		GradeMap: map[string][]models.Grade{
			models.ScheduleSet1: {models.GradeClassI},
			models.ScheduleSet2: {models.GradeClassI},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeeStructureServiceUpsertHead(t *testing.T) {
	repo := &structureRepoStub{}
	service := NewFeeStructureService(repo, &auditStub{}, nil, validator.New(), nil)

	structure, err := service.UpsertHead(context.Background(), adminClaims(), models.ScheduleSet2, dto.UpsertFeeHeadRequest{
		Head: dto.FeeHeadRequest{ID: "tui", Name: "Tuition Fee", Amount: 500, Type: models.FeeHeadMonthly},
	})
	require.NoError(t, err)
	require.Len(t, structure.Set2.Heads, 1)

	// Same ID replaces in place.
	structure, err = service.UpsertHead(context.Background(), adminClaims(), models.ScheduleSet2, dto.UpsertFeeHeadRequest{
		Head: dto.FeeHeadRequest{ID: "tui", Name: "Tuition Fee", Amount: 700, Type: models.FeeHeadMonthly},
	})
	require.NoError(t, err)
	require.Len(t, structure.Set2.Heads, 1)
	assert.Equal(t, int64(700), structure.Set2.Heads[0].Amount)
}

func TestFeeStructureServiceUpsertHeadUnknownSchedule(t *testing.T) {
	service := NewFeeStructureService(&structureRepoStub{}, &auditStub{}, nil, validator.New(), nil)

	_, err := service.UpsertHead(context.Background(), adminClaims(), "set9", dto.UpsertFeeHeadRequest{
		Head: dto.FeeHeadRequest{ID: "x", Name: "X", Amount: 1, Type: models.FeeHeadOneTime},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownSchedule.Code, appErrors.FromError(err).Code)
}

func TestFeeStructureServiceDeleteHeadNotFound(t *testing.T) {
	service := NewFeeStructureService(&structureRepoStub{}, &auditStub{}, nil, validator.New(), nil)

	_, err := service.DeleteHead(context.Background(), adminClaims(), models.ScheduleSet1, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeeStructureServiceAssignGradeMoves(t *testing.T) {
	repo := &structureRepoStub{}
	audit := &auditStub{}
	service := NewFeeStructureService(repo, audit, nil, validator.New(), nil)

	// Class I starts on set2 in the default map; assigning it to set3 must
	// remove it from set2, not copy it.
	structure, err := service.AssignGrade(context.Background(), adminClaims(), dto.AssignGradeRequest{
		Grade:    models.GradeClassI,
		Schedule: models.ScheduleSet3,
	})
	require.NoError(t, err)
	assert.NotContains(t, structure.GradeMap[models.ScheduleSet2], models.GradeClassI)
	assert.Contains(t, structure.GradeMap[models.ScheduleSet3], models.GradeClassI)

	occurrences := 0
	for _, grades := range structure.GradeMap {
		for _, grade := range grades {
			if grade == models.GradeClassI {
				occurrences++
			}
		}
	}
	assert.Equal(t, 1, occurrences)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionGradeMapUpdate, audit.logs[0].Action)
}
