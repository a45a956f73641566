package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/fees-api/internal/dto"
	"github.com/vidyalaya/fees-api/internal/middleware"
	"github.com/vidyalaya/fees-api/internal/models"
	appErrors "github.com/vidyalaya/fees-api/pkg/errors"
)

type feeStructureServiceMock struct {
	structure *models.FeeStructure
	err       error
}

func (m *feeStructureServiceMock) Get(ctx context.Context) (*models.FeeStructure, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.structure, nil
}

func (m *feeStructureServiceMock) Replace(ctx context.Context, actor *models.JWTClaims, req dto.ReplaceFeeStructureRequest) (*models.FeeStructure, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.structure, nil
}

func (m *feeStructureServiceMock) UpsertHead(ctx context.Context, actor *models.JWTClaims, schedule string, req dto.UpsertFeeHeadRequest) (*models.FeeStructure, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.structure, nil
}

func (m *feeStructureServiceMock) DeleteHead(ctx context.Context, actor *models.JWTClaims, schedule, headID string) (*models.FeeStructure, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.structure, nil
}

func (m *feeStructureServiceMock) AssignGrade(ctx context.Context, actor *models.JWTClaims, req dto.AssignGradeRequest) (*models.FeeStructure, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.structure, nil
}

func feeStructureTestContext(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	return c, w
}

func TestFeeStructureHandlerGet(t *testing.T) {
	structure := models.DefaultFeeStructure()
	handler := NewFeeStructureHandler(&feeStructureServiceMock{structure: &structure})
	c, w := feeStructureTestContext(t, http.MethodGet, "/fees/structure", nil)

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":1`)
}

func TestFeeStructureHandlerReplaceInvalidBody(t *testing.T) {
	structure := models.DefaultFeeStructure()
	handler := NewFeeStructureHandler(&feeStructureServiceMock{structure: &structure})
	c, w := feeStructureTestContext(t, http.MethodPut, "/fees/structure", nil)
	c.Request.Body = http.NoBody

	handler.Replace(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeeStructureHandlerReplaceVersionConflict(t *testing.T) {
	handler := NewFeeStructureHandler(&feeStructureServiceMock{err: appErrors.ErrVersionMismatch})
	c, w := feeStructureTestContext(t, http.MethodPut, "/fees/structure", dto.ReplaceFeeStructureRequest{})

	handler.Replace(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "VERSION_MISMATCH")
}

func TestFeeStructureHandlerAssignGrade(t *testing.T) {
	structure := models.DefaultFeeStructure()
	handler := NewFeeStructureHandler(&feeStructureServiceMock{structure: &structure})
	c, w := feeStructureTestContext(t, http.MethodPut, "/fees/structure/grade-map", dto.AssignGradeRequest{
		Grade:    models.GradeClassI,
		Schedule: models.ScheduleSet3,
	})

	handler.AssignGrade(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
