package models

import "time"

// Student represents a learner registered in the institution. FeePayments is
// nil until the first payment record is written; readers substitute the
// default all-false state.
type Student struct {
	ID              string       `db:"id" json:"id"`
	AdmissionNo     string       `db:"admission_no" json:"admission_no"`
	FullName        string       `db:"full_name" json:"full_name"`
	Grade           Grade        `db:"grade" json:"grade"`
	GuardianUserID  *string      `db:"guardian_user_id" json:"guardian_user_id,omitempty"`
	Active          bool         `db:"active" json:"active"`
	FeePayments     *FeePayments `db:"fee_payments" json:"fee_payments,omitempty"`
	PaymentsVersion int64        `db:"payments_version" json:"payments_version"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Grade     Grade
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
