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

type paymentServiceMock struct {
	resp *dto.PaymentsResponse
	err  error
}

func (m *paymentServiceMock) Get(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.PaymentsResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m *paymentServiceMock) Replace(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.UpdatePaymentsRequest) (*dto.PaymentsResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func paymentTestContext(t *testing.T, method string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
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
	req, err := http.NewRequest(method, "/students/s1/payments", reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "acct", Role: models.RoleAccountant})
	return c, w
}

func TestPaymentHandlerGet(t *testing.T) {
	resp := &dto.PaymentsResponse{StudentID: "s1", Payments: models.DefaultPayments(), Version: 2}
	handler := NewPaymentHandler(&paymentServiceMock{resp: resp})
	c, w := paymentTestContext(t, http.MethodGet, nil)

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":2`)
	assert.Contains(t, w.Body.String(), `"admission_fee_paid":false`)
}

func TestPaymentHandlerReplace(t *testing.T) {
	payments := models.DefaultPayments()
	payments.AdmissionFeePaid = true
	resp := &dto.PaymentsResponse{StudentID: "s1", Payments: payments, Version: 3}
	handler := NewPaymentHandler(&paymentServiceMock{resp: resp})
	c, w := paymentTestContext(t, http.MethodPut, dto.UpdatePaymentsRequest{
		AdmissionFeePaid: true,
		TuitionFeesPaid:  map[string]bool{"April": true},
	})

	handler.Replace(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admission_fee_paid":true`)
}

func TestPaymentHandlerReplaceInvalidBody(t *testing.T) {
	handler := NewPaymentHandler(&paymentServiceMock{})
	c, w := paymentTestContext(t, http.MethodPut, nil)
	c.Request.Body = http.NoBody

	handler.Replace(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandlerReplaceConflict(t *testing.T) {
	handler := NewPaymentHandler(&paymentServiceMock{err: appErrors.ErrVersionMismatch})
	c, w := paymentTestContext(t, http.MethodPut, dto.UpdatePaymentsRequest{TuitionFeesPaid: map[string]bool{}})

	handler.Replace(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
