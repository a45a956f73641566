package handler

import (
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
	"github.com/vidyalaya/fees-api/pkg/response"
)

type duesServiceMock struct {
	messages []string
	summary  *models.DuesSummary
	prompt   *dto.UPIPrompt
	err      error
}

func (m *duesServiceMock) Messages(ctx context.Context, actor *models.JWTClaims, studentID string) ([]string, error) {
	return m.messages, m.err
}

func (m *duesServiceMock) Summary(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.DuesSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *duesServiceMock) UPIPrompt(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.UPIPrompt, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.prompt, nil
}

func duesTestContext(t *testing.T, method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	return c, w
}

func TestDuesHandlerMessages(t *testing.T) {
	handler := NewDuesHandler(&duesServiceMock{messages: []string{"Admission Fee: ₹2,000"}})
	c, w := duesTestContext(t, http.MethodGet, "/students/s1/dues")

	handler.Messages(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "Admission Fee: ₹2,000", data[0])
}

func TestDuesHandlerSummary(t *testing.T) {
	summary := &models.DuesSummary{
		Items:              []models.DueItem{{Description: "Admission Fee", Amount: 2000}},
		Total:              2000,
		ScheduleConfigured: true,
	}
	handler := NewDuesHandler(&duesServiceMock{summary: summary})
	c, w := duesTestContext(t, http.MethodGet, "/students/s1/dues/summary")

	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2000`)
	assert.Contains(t, w.Body.String(), `"schedule_configured":true`)
}

func TestDuesHandlerForbidden(t *testing.T) {
	handler := NewDuesHandler(&duesServiceMock{err: appErrors.ErrForbidden})
	c, w := duesTestContext(t, http.MethodGet, "/students/s1/dues/summary")

	handler.Summary(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDuesHandlerUPIPrompt(t *testing.T) {
	handler := NewDuesHandler(&duesServiceMock{prompt: &dto.UPIPrompt{Total: 8900, Link: "upi://pay?am=8900"}})
	c, w := duesTestContext(t, http.MethodGet, "/students/s1/dues/upi")

	handler.UPIPrompt(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":8900`)
	assert.Contains(t, w.Body.String(), "upi://pay")
}
