package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vidyalaya/fees-api/internal/dto"
	"github.com/vidyalaya/fees-api/internal/models"
	"github.com/vidyalaya/fees-api/pkg/response"
)

type duesService interface {
	Messages(ctx context.Context, actor *models.JWTClaims, studentID string) ([]string, error)
	Summary(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.DuesSummary, error)
	UPIPrompt(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.UPIPrompt, error)
}

// DuesHandler exposes the dues computation endpoints.
type DuesHandler struct {
	service duesService
}

// NewDuesHandler builds a new handler.
func NewDuesHandler(service duesService) *DuesHandler {
	return &DuesHandler{service: service}
}

// Messages godoc
// @Summary List a student's outstanding dues messages
// @Tags Dues
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/dues [get]
func (h *DuesHandler) Messages(c *gin.Context) {
	messages, err := h.service.Messages(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Summary godoc
// @Summary Itemized dues summary for a student
// @Tags Dues
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/dues/summary [get]
func (h *DuesHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// UPIPrompt godoc
// @Summary UPI payment prompt for a student's outstanding total
// @Tags Dues
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/dues/upi [get]
func (h *DuesHandler) UPIPrompt(c *gin.Context) {
	prompt, err := h.service.UPIPrompt(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prompt, nil)
}
