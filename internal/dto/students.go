package dto

import "github.com/vidyalaya/fees-api/internal/models"

// CreateStudentRequest registers a student. AdmissionFeeCollected pre-marks
// the admission fee when the front desk collects it during admission.
type CreateStudentRequest struct {
	AdmissionNo           string       `json:"admission_no" validate:"required"`
	FullName              string       `json:"full_name" validate:"required"`
	Grade                 models.Grade `json:"grade" validate:"required"`
	GuardianUserID        *string      `json:"guardian_user_id"`
	AdmissionFeeCollected bool         `json:"admission_fee_collected"`
}

// UpdateStudentRequest edits a student's record.
type UpdateStudentRequest struct {
	FullName       string  `json:"full_name" validate:"required"`
	GuardianUserID *string `json:"guardian_user_id"`
	Active         *bool   `json:"active"`
}
