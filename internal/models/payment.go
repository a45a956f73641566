package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AcademicMonths names the twelve tuition months of the school year,
// April through March.
var AcademicMonths = []string{
	"April", "May", "June", "July", "August", "September",
	"October", "November", "December", "January", "February", "March",
}

// ExamFeesPaid tracks the three terminal exam fees.
type ExamFeesPaid struct {
	Terminal1 bool `json:"terminal1"`
	Terminal2 bool `json:"terminal2"`
	Terminal3 bool `json:"terminal3"`
}

// FeePayments is the per-student record of obligations marked paid. It is
// always written back as a whole object; there are no field-level updates.
type FeePayments struct {
	AdmissionFeePaid bool            `json:"admission_fee_paid"`
	TuitionFeesPaid  map[string]bool `json:"tuition_fees_paid"`
	ExamFeesPaid     ExamFeesPaid    `json:"exam_fees_paid"`
}

// DefaultPayments produces the canonical all-false payment state: one entry
// per academic month plus the three terminal flags.
func DefaultPayments() *FeePayments {
	months := make(map[string]bool, len(AcademicMonths))
	for _, month := range AcademicMonths {
		months[month] = false
	}
	return &FeePayments{
		AdmissionFeePaid: false,
		TuitionFeesPaid:  months,
		ExamFeesPaid:     ExamFeesPaid{},
	}
}

// Clone deep-copies the payment state. A nil receiver yields the default
// all-false shape, matching how readers treat students without a record.
func (p *FeePayments) Clone() *FeePayments {
	if p == nil {
		return DefaultPayments()
	}
	months := make(map[string]bool, len(p.TuitionFeesPaid))
	for month, paid := range p.TuitionFeesPaid {
		months[month] = paid
	}
	return &FeePayments{
		AdmissionFeePaid: p.AdmissionFeePaid,
		TuitionFeesPaid:  months,
		ExamFeesPaid:     p.ExamFeesPaid,
	}
}

// Value marshals the payment state for JSONB storage.
func (p FeePayments) Value() (driver.Value, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal fee payments: %w", err)
	}
	return raw, nil
}

// Scan unmarshals the payment state from JSONB storage.
func (p *FeePayments) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported fee payments source %T", src)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return fmt.Errorf("unmarshal fee payments: %w", err)
	}
	return nil
}
