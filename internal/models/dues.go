package models

// DueItem is one outstanding obligation line: a fee head with the amount
// currently owed for it. Amount is a plain number; currency formatting is
// applied only at the presentation layer.
type DueItem struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// DuesSummary is the itemized view of a student's outstanding dues.
// ScheduleConfigured distinguishes "no fee structure for this grade" from
// "fully paid"; Items and Total are identical in both states.
type DuesSummary struct {
	Items              []DueItem `json:"items"`
	Total              int64     `json:"total"`
	ScheduleConfigured bool      `json:"schedule_configured"`
}
