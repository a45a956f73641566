package service

import (
	"fmt"
	"strings"

	"github.com/vidyalaya/fees-api/internal/models"
	"github.com/vidyalaya/fees-api/pkg/currency"
)

// The dues engine is pure computation over an injected structure snapshot and
// a student's payment state. It performs no I/O and never returns an error:
// missing payments, an unusable grade map or an empty schedule all degrade to
// "nothing due in that category".

// ResolveSchedule returns the fee schedule applicable to a grade. The grade
// map is consulted in set1, set2, set3 order, so a grade erroneously listed
// twice resolves deterministically to the earliest set. An absent or unusable
// grade map falls back to the compiled-in default; a grade listed nowhere
// resolves to an empty schedule.
func ResolveSchedule(grade models.Grade, structure models.FeeStructure) models.FeeSet {
	gradeMap := structure.GradeMap
	if !usableGradeMap(gradeMap) {
		gradeMap = models.DefaultGradeMap()
	}
	for _, name := range models.ScheduleNames {
		for _, mapped := range gradeMap[name] {
			if mapped == grade {
				set, _ := structure.Set(name)
				return *set
			}
		}
	}
	return models.FeeSet{Heads: []models.FeeHead{}}
}

// CalculateDues produces the human-readable list of outstanding dues, one
// message per category in one-time, monthly, term order.
func CalculateDues(student models.Student, structure models.FeeStructure) []string {
	set := ResolveSchedule(student.Grade, structure)
	payments := student.FeePayments.Clone()
	oneTime, monthly, term := splitHeads(set)

	messages := make([]string, 0, 3)

	if len(oneTime) > 0 && !payments.AdmissionFeePaid {
		names, total := headNamesAndTotal(oneTime)
		messages = append(messages, fmt.Sprintf("%s: %s", strings.Join(names, ", "), currency.FormatINR(total)))
	}

	if len(monthly) > 0 {
		if unpaid := unpaidMonths(payments); len(unpaid) > 0 {
			names, perMonth := headNamesAndTotal(monthly)
			amount := int64(len(unpaid)) * perMonth
			messages = append(messages, fmt.Sprintf("%s: %s unpaid, %s",
				strings.Join(names, " + "), monthsLabel(len(unpaid)), currency.FormatINR(amount)))
		}
	}

	if len(term) > 0 {
		if unpaid := unpaidTerms(payments); len(unpaid) > 0 {
			names, perTerm := headNamesAndTotal(term)
			amount := int64(len(unpaid)) * perTerm
			messages = append(messages, fmt.Sprintf("%s: %s unpaid, %s",
				strings.Join(names, ", "), strings.Join(unpaid, ", "), currency.FormatINR(amount)))
		}
	}

	return messages
}

// SummarizeDues produces the itemized dues breakdown, one item per fee head,
// with the grand total. The per-category amounts always match CalculateDues
// since both derive from the same unpaid month and term sets.
func SummarizeDues(student models.Student, structure models.FeeStructure) models.DuesSummary {
	set := ResolveSchedule(student.Grade, structure)
	payments := student.FeePayments.Clone()
	oneTime, monthly, term := splitHeads(set)

	items := make([]models.DueItem, 0, len(set.Heads))
	var total int64

	if !payments.AdmissionFeePaid {
		for _, head := range oneTime {
			items = append(items, models.DueItem{Description: head.Name, Amount: head.Amount})
			total += head.Amount
		}
	}

	if unpaid := unpaidMonths(payments); len(unpaid) > 0 {
		for _, head := range monthly {
			amount := int64(len(unpaid)) * head.Amount
			items = append(items, models.DueItem{
				Description: fmt.Sprintf("%s (%s)", head.Name, monthsLabel(len(unpaid))),
				Amount:      amount,
			})
			total += amount
		}
	}

	if unpaid := unpaidTerms(payments); len(unpaid) > 0 {
		for _, head := range term {
			amount := int64(len(unpaid)) * head.Amount
			items = append(items, models.DueItem{
				Description: fmt.Sprintf("%s (%s)", head.Name, strings.Join(unpaid, ", ")),
				Amount:      amount,
			})
			total += amount
		}
	}

	return models.DuesSummary{
		Items:              items,
		Total:              total,
		ScheduleConfigured: len(set.Heads) > 0,
	}
}

// usableGradeMap reports whether the stored map assigns at least one grade to
// a known schedule.
func usableGradeMap(gradeMap map[string][]models.Grade) bool {
	if len(gradeMap) == 0 {
		return false
	}
	for _, name := range models.ScheduleNames {
		if len(gradeMap[name]) > 0 {
			return true
		}
	}
	return false
}

func splitHeads(set models.FeeSet) (oneTime, monthly, term []models.FeeHead) {
	for _, head := range set.Heads {
		switch head.Type {
		case models.FeeHeadOneTime:
			oneTime = append(oneTime, head)
		case models.FeeHeadMonthly:
			monthly = append(monthly, head)
		case models.FeeHeadTerm:
			term = append(term, head)
		}
	}
	return oneTime, monthly, term
}

func headNamesAndTotal(heads []models.FeeHead) ([]string, int64) {
	names := make([]string, len(heads))
	var total int64
	for i, head := range heads {
		names[i] = head.Name
		total += head.Amount
	}
	return names, total
}

// unpaidMonths returns academic months not marked paid, in school-year order.
// Absent entries count as unpaid.
func unpaidMonths(payments *models.FeePayments) []string {
	unpaid := make([]string, 0, len(models.AcademicMonths))
	for _, month := range models.AcademicMonths {
		if !payments.TuitionFeesPaid[month] {
			unpaid = append(unpaid, month)
		}
	}
	return unpaid
}

// unpaidTerms returns display labels for terminal fees not marked paid.
func unpaidTerms(payments *models.FeePayments) []string {
	unpaid := make([]string, 0, 3)
	if !payments.ExamFeesPaid.Terminal1 {
		unpaid = append(unpaid, "Term 1")
	}
	if !payments.ExamFeesPaid.Terminal2 {
		unpaid = append(unpaid, "Term 2")
	}
	if !payments.ExamFeesPaid.Terminal3 {
		unpaid = append(unpaid, "Term 3")
	}
	return unpaid
}

func monthsLabel(count int) string {
	if count == 1 {
		return "1 month"
	}
	return fmt.Sprintf("%d months", count)
}
