package dto

import "github.com/vidyalaya/fees-api/internal/models"

// FeeHeadRequest captures one fee head in editor payloads.
type FeeHeadRequest struct {
	ID     string             `json:"id" validate:"required"`
	Name   string             `json:"name" validate:"required"`
	Amount int64              `json:"amount" validate:"gte=0"`
	Type   models.FeeHeadType `json:"type" validate:"required"`
}

// ReplaceFeeStructureRequest replaces the whole fee structure document.
// ExpectedVersion guards against concurrent editor sessions; when omitted the
// write is last-writer-wins.
type ReplaceFeeStructureRequest struct {
	Set1            []FeeHeadRequest          `json:"set1" validate:"dive"`
	Set2            []FeeHeadRequest          `json:"set2" validate:"dive"`
	Set3            []FeeHeadRequest          `json:"set3" validate:"dive"`
	GradeMap        map[string][]models.Grade `json:"grade_map"`
	ExpectedVersion *int64                    `json:"expected_version"`
}

// UpsertFeeHeadRequest adds or edits a single head within a schedule.
type UpsertFeeHeadRequest struct {
	Head FeeHeadRequest `json:"head" validate:"required"`
}

// AssignGradeRequest moves a grade onto a schedule. The grade is removed from
// every other schedule list first, so the assignment is a move, not a copy.
type AssignGradeRequest struct {
	Grade    models.Grade `json:"grade" validate:"required"`
	Schedule string       `json:"schedule" validate:"required"`
}

// UPIPrompt carries the amount and deep link for the payment prompt. Link is
// empty when nothing is due or no UPI address is configured.
type UPIPrompt struct {
	Total int64  `json:"total"`
	Link  string `json:"link,omitempty"`
}
