package dto

import "github.com/vidyalaya/fees-api/internal/models"

// CreateStatementRequest queues a dues register export. A nil grade covers
// the whole school.
type CreateStatementRequest struct {
	Grade  *models.Grade          `json:"grade"`
	Format models.StatementFormat `json:"format" validate:"required"`
}
