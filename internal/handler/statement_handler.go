package handler

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vidyalaya/fees-api/internal/dto"
	"github.com/vidyalaya/fees-api/internal/models"
	appErrors "github.com/vidyalaya/fees-api/pkg/errors"
	"github.com/vidyalaya/fees-api/pkg/response"
)

type statementService interface {
	Request(ctx context.Context, actor *models.JWTClaims, req dto.CreateStatementRequest) (*models.StatementJob, error)
	Get(ctx context.Context, id string) (*models.StatementJob, error)
	ListMine(ctx context.Context, actor *models.JWTClaims, limit int) ([]models.StatementJob, error)
	Download(ctx context.Context, token string) (*os.File, string, error)
}

// StatementHandler exposes dues statement export endpoints.
type StatementHandler struct {
	service statementService
}

// NewStatementHandler builds a new handler.
func NewStatementHandler(service statementService) *StatementHandler {
	return &StatementHandler{service: service}
}

// Create godoc
// @Summary Request a dues register export
// @Tags Statements
// @Accept json
// @Produce json
// @Param payload body dto.CreateStatementRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /statements [post]
func (h *StatementHandler) Create(c *gin.Context) {
	var req dto.CreateStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid statement payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.service.Request(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Get godoc
// @Summary Get a statement job's status
// @Tags Statements
// @Produce json
// @Param id path string true "Statement job ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /statements/{id} [get]
func (h *StatementHandler) Get(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// List godoc
// @Summary List the caller's recent statement jobs
// @Tags Statements
// @Produce json
// @Param limit query int false "Maximum jobs to return"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /statements [get]
func (h *StatementHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	jobs, err := h.service.ListMine(c.Request.Context(), claims, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Download godoc
// @Summary Download a completed statement via its signed token
// @Tags Statements
// @Produce octet-stream
// @Param id path string true "Statement job ID"
// @Param token query string true "Signed download token"
// @Success 200
// @Router /statements/{id}/download [get]
func (h *StatementHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "download token required"))
		return
	}
	file, contentType, err := h.service.Download(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat statement file"))
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+info.Name())
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
