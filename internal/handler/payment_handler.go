package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidyalaya/fees-api/internal/dto"
	"github.com/vidyalaya/fees-api/internal/models"
	appErrors "github.com/vidyalaya/fees-api/pkg/errors"
	"github.com/vidyalaya/fees-api/pkg/response"
)

type paymentService interface {
	Get(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.PaymentsResponse, error)
	Replace(ctx context.Context, actor *models.JWTClaims, studentID string, req dto.UpdatePaymentsRequest) (*dto.PaymentsResponse, error)
}

// PaymentHandler exposes per-student payment state endpoints.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler builds a new handler.
func NewPaymentHandler(service paymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Get godoc
// @Summary Get a student's payment state
// @Tags Payments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/payments [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payments, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Replace godoc
// @Summary Replace a student's whole payment state
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdatePaymentsRequest true "Payment state"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/payments [put]
func (h *PaymentHandler) Replace(c *gin.Context) {
	var req dto.UpdatePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payments payload"))
		return
	}
	payments, err := h.service.Replace(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}
