package dto

import "github.com/vidyalaya/fees-api/internal/models"

// PaymentsResponse returns a student's payment state with its version so the
// client can issue a guarded replace.
type PaymentsResponse struct {
	StudentID string              `json:"student_id"`
	Payments  *models.FeePayments `json:"payments"`
	Version   int64               `json:"version"`
}

// UpdatePaymentsRequest replaces the entire payment state of a student in one
// write. Clients deep-copy the current state, flip one flag and send the whole
// object back. ExpectedVersion, when set, rejects stale replaces; when omitted
// the write keeps the original last-writer-wins behaviour.
type UpdatePaymentsRequest struct {
	AdmissionFeePaid bool                `json:"admission_fee_paid"`
	TuitionFeesPaid  map[string]bool     `json:"tuition_fees_paid" validate:"required"`
	ExamFeesPaid     models.ExamFeesPaid `json:"exam_fees_paid"`
	ExpectedVersion  *int64              `json:"expected_version"`
}
