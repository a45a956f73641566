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

type feeStructureService interface {
	Get(ctx context.Context) (*models.FeeStructure, error)
	Replace(ctx context.Context, actor *models.JWTClaims, req dto.ReplaceFeeStructureRequest) (*models.FeeStructure, error)
	UpsertHead(ctx context.Context, actor *models.JWTClaims, schedule string, req dto.UpsertFeeHeadRequest) (*models.FeeStructure, error)
	DeleteHead(ctx context.Context, actor *models.JWTClaims, schedule, headID string) (*models.FeeStructure, error)
	AssignGrade(ctx context.Context, actor *models.JWTClaims, req dto.AssignGradeRequest) (*models.FeeStructure, error)
}

// FeeStructureHandler exposes the fee structure editor endpoints.
type FeeStructureHandler struct {
	service feeStructureService
}

// NewFeeStructureHandler builds a new handler.
func NewFeeStructureHandler(service feeStructureService) *FeeStructureHandler {
	return &FeeStructureHandler{service: service}
}

// Get godoc
// @Summary Get the fee structure
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/structure [get]
func (h *FeeStructureHandler) Get(c *gin.Context) {
	structure, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// Replace godoc
// @Summary Replace the whole fee structure
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceFeeStructureRequest true "Fee structure"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/structure [put]
func (h *FeeStructureHandler) Replace(c *gin.Context) {
	var req dto.ReplaceFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee structure payload"))
		return
	}
	structure, err := h.service.Replace(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// UpsertHead godoc
// @Summary Add or update a fee head in a schedule
// @Tags Fees
// @Accept json
// @Produce json
// @Param schedule path string true "Schedule name (set1, set2, set3)"
// @Param payload body dto.UpsertFeeHeadRequest true "Fee head"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/structure/{schedule}/heads [put]
func (h *FeeStructureHandler) UpsertHead(c *gin.Context) {
	var req dto.UpsertFeeHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fee head payload"))
		return
	}
	structure, err := h.service.UpsertHead(c.Request.Context(), claimsFromContext(c), c.Param("schedule"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// DeleteHead godoc
// @Summary Remove a fee head from a schedule
// @Tags Fees
// @Produce json
// @Param schedule path string true "Schedule name"
// @Param headId path string true "Fee head ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/structure/{schedule}/heads/{headId} [delete]
func (h *FeeStructureHandler) DeleteHead(c *gin.Context) {
	structure, err := h.service.DeleteHead(c.Request.Context(), claimsFromContext(c), c.Param("schedule"), c.Param("headId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}

// AssignGrade godoc
// @Summary Assign a grade to a schedule
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.AssignGradeRequest true "Grade assignment"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/structure/grade-map [put]
func (h *FeeStructureHandler) AssignGrade(c *gin.Context) {
	var req dto.AssignGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade assignment payload"))
		return
	}
	structure, err := h.service.AssignGrade(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structure, nil)
}
