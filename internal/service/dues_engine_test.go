package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyalaya/fees-api/internal/models"
)

func testStructure() models.FeeStructure {
	return models.FeeStructure{
		Set1: models.FeeSet{Heads: []models.FeeHead{
			{ID: "adm", Name: "Admission Fee", Amount: 2000, Type: models.FeeHeadOneTime},
			{ID: "tui", Name: "Tuition Fee", Amount: 500, Type: models.FeeHeadMonthly},
			{ID: "term", Name: "Term Fee", Amount: 300, Type: models.FeeHeadTerm},
		}},
		Set2:     models.FeeSet{Heads: []models.FeeHead{}},
		Set3:     models.FeeSet{Heads: []models.FeeHead{}},
		GradeMap: map[string][]models.Grade{models.ScheduleSet1: {models.GradeClassI}},
		Version:  1,
	}
}

func paidMonths(payments *models.FeePayments, months ...string) *models.FeePayments {
	for _, month := range months {
		payments.TuitionFeesPaid[month] = true
	}
	return payments
}

func TestResolveScheduleFirstMatchWins(t *testing.T) {
	structure := testStructure()
	structure.Set2 = models.FeeSet{Heads: []models.FeeHead{{ID: "x", Name: "Other", Amount: 1, Type: models.FeeHeadOneTime}}}
	structure.GradeMap[models.ScheduleSet2] = []models.Grade{models.GradeClassI}

	set := ResolveSchedule(models.GradeClassI, structure)
	require.Len(t, set.Heads, 3)
	assert.Equal(t, "Admission Fee", set.Heads[0].Name)
}

func TestResolveScheduleUnmappedGrade(t *testing.T) {
	set := ResolveSchedule(models.GradeClassX, testStructure())
	assert.Empty(t, set.Heads)
}

func TestResolveScheduleFallsBackToDefaultMap(t *testing.T) {
	structure := testStructure()
	structure.GradeMap = nil

	// Class I maps to set2 in the default map, which is empty here.
	set := ResolveSchedule(models.GradeClassI, structure)
	assert.Empty(t, set.Heads)

	// Nursery maps to set1 in the default map.
	set = ResolveSchedule(models.GradeNursery, structure)
	assert.Len(t, set.Heads, 3)
}

func TestSummarizeDuesScenario(t *testing.T) {
	payments := models.DefaultPayments()
	paidMonths(payments, "April", "May", "June")
	payments.ExamFeesPaid.Terminal1 = true
	student := models.Student{ID: "s1", Grade: models.GradeClassI, FeePayments: payments}

	summary := SummarizeDues(student, testStructure())

	require.Len(t, summary.Items, 3)
	assert.Equal(t, models.DueItem{Description: "Admission Fee", Amount: 2000}, summary.Items[0])
	assert.Equal(t, models.DueItem{Description: "Tuition Fee (9 months)", Amount: 4500}, summary.Items[1])
	assert.Equal(t, models.DueItem{Description: "Term Fee (Term 2, Term 3)", Amount: 600}, summary.Items[2])
	assert.Equal(t, int64(7100), summary.Total)
	assert.True(t, summary.ScheduleConfigured)
}

func TestCalculateDuesScenario(t *testing.T) {
	payments := models.DefaultPayments()
	paidMonths(payments, "April", "May", "June")
	payments.ExamFeesPaid.Terminal1 = true
	student := models.Student{ID: "s1", Grade: models.GradeClassI, FeePayments: payments}

	messages := CalculateDues(student, testStructure())

	require.Len(t, messages, 3)
	assert.Equal(t, "Admission Fee: ₹2,000", messages[0])
	assert.Equal(t, "Tuition Fee: 9 months unpaid, ₹4,500", messages[1])
	assert.Equal(t, "Term Fee: Term 2, Term 3 unpaid, ₹600", messages[2])
}

func TestCalculateDuesCombinesHeadsPerCategory(t *testing.T) {
	structure := testStructure()
	structure.Set1.Heads = append(structure.Set1.Heads,
		models.FeeHead{ID: "reg", Name: "Registration Fee", Amount: 3000, Type: models.FeeHeadOneTime},
		models.FeeHead{ID: "trn", Name: "Transport Fee", Amount: 200, Type: models.FeeHeadMonthly},
	)
	student := models.Student{ID: "s1", Grade: models.GradeClassI}

	messages := CalculateDues(student, structure)

	require.Len(t, messages, 3)
	assert.Equal(t, "Admission Fee, Registration Fee: ₹5,000", messages[0])
	assert.Equal(t, "Tuition Fee + Transport Fee: 12 months unpaid, ₹8,400", messages[1])
	assert.Equal(t, "Term Fee: Term 1, Term 2, Term 3 unpaid, ₹900", messages[2])
}

func TestDuesNilPaymentsTreatedAsDefault(t *testing.T) {
	student := models.Student{ID: "s1", Grade: models.GradeClassI}

	summary := SummarizeDues(student, testStructure())
	withDefault := models.Student{ID: "s1", Grade: models.GradeClassI, FeePayments: models.DefaultPayments()}

	assert.Equal(t, SummarizeDues(withDefault, testStructure()), summary)
	assert.Equal(t, int64(2000+12*500+3*300), summary.Total)
}

func TestDuesFullyPaid(t *testing.T) {
	payments := models.DefaultPayments()
	payments.AdmissionFeePaid = true
	paidMonths(payments, models.AcademicMonths...)
	payments.ExamFeesPaid = models.ExamFeesPaid{Terminal1: true, Terminal2: true, Terminal3: true}
	student := models.Student{ID: "s1", Grade: models.GradeClassI, FeePayments: payments}

	assert.Empty(t, CalculateDues(student, testStructure()))
	summary := SummarizeDues(student, testStructure())
	assert.Empty(t, summary.Items)
	assert.Zero(t, summary.Total)
	assert.True(t, summary.ScheduleConfigured)
}

func TestDuesEmptySchedule(t *testing.T) {
	student := models.Student{ID: "s1", Grade: models.GradeClassX}

	assert.Empty(t, CalculateDues(student, testStructure()))
	summary := SummarizeDues(student, testStructure())
	assert.Empty(t, summary.Items)
	assert.Zero(t, summary.Total)
	assert.False(t, summary.ScheduleConfigured)
}

func TestDuesIdempotent(t *testing.T) {
	payments := models.DefaultPayments()
	paidMonths(payments, "April")
	student := models.Student{ID: "s1", Grade: models.GradeClassI, FeePayments: payments}

	first := SummarizeDues(student, testStructure())
	second := SummarizeDues(student, testStructure())
	assert.Equal(t, first, second)
	assert.Equal(t, CalculateDues(student, testStructure()), CalculateDues(student, testStructure()))
}

func TestDuesMonotonicOnMonthPaid(t *testing.T) {
	structure := testStructure()
	previous := SummarizeDues(models.Student{Grade: models.GradeClassI, FeePayments: models.DefaultPayments()}, structure).Total

	payments := models.DefaultPayments()
	for _, month := range models.AcademicMonths {
		payments.TuitionFeesPaid[month] = true
		total := SummarizeDues(models.Student{Grade: models.GradeClassI, FeePayments: payments}, structure).Total
		assert.Less(t, total, previous, "paying %s must decrease the total", month)
		previous = total
	}
}

func TestDuesSkipsAbsentMonthEntries(t *testing.T) {
	payments := models.DefaultPayments()
	delete(payments.TuitionFeesPaid, "January")
	student := models.Student{Grade: models.GradeClassI, FeePayments: payments}

	// An absent month entry still counts as unpaid.
	summary := SummarizeDues(student, testStructure())
	assert.Equal(t, "Tuition Fee (12 months)", summary.Items[1].Description)
}

func TestMessageAndSummaryTotalsAgree(t *testing.T) {
	payments := models.DefaultPayments()
	paidMonths(payments, "April", "July", "December", "March")
	payments.ExamFeesPaid.Terminal2 = true
	student := models.Student{Grade: models.GradeClassI, FeePayments: payments}

	summary := SummarizeDues(student, testStructure())
	messages := CalculateDues(student, testStructure())

	// Both contracts derive from the same unpaid sets: one message per
	// category with at least one item, and the same grand total.
	require.Len(t, messages, 3)
	assert.Equal(t, int64(2000+8*500+2*300), summary.Total)
}
