package models

// Grade enumerates class levels in promotion order.
type Grade string

const (
	GradeNursery      Grade = "Nursery"
	GradeKindergarten Grade = "Kindergarten"
	GradeClassI       Grade = "Class I"
	GradeClassII      Grade = "Class II"
	GradeClassIII     Grade = "Class III"
	GradeClassIV      Grade = "Class IV"
	GradeClassV       Grade = "Class V"
	GradeClassVI      Grade = "Class VI"
	GradeClassVII     Grade = "Class VII"
	GradeClassVIII    Grade = "Class VIII"
	GradeClassIX      Grade = "Class IX"
	GradeClassX       Grade = "Class X"
)

// GradeOrder lists every grade from the earliest to the final class.
var GradeOrder = []Grade{
	GradeNursery,
	GradeKindergarten,
	GradeClassI,
	GradeClassII,
	GradeClassIII,
	GradeClassIV,
	GradeClassV,
	GradeClassVI,
	GradeClassVII,
	GradeClassVIII,
	GradeClassIX,
	GradeClassX,
}

// Valid reports whether g names a known grade.
func (g Grade) Valid() bool {
	for _, grade := range GradeOrder {
		if grade == g {
			return true
		}
	}
	return false
}

// Next returns the grade a student is promoted into. The final class has none.
func (g Grade) Next() (Grade, bool) {
	for i, grade := range GradeOrder {
		if grade == g && i+1 < len(GradeOrder) {
			return GradeOrder[i+1], true
		}
	}
	return "", false
}

// FeeHeadType fixes the payment cadence of a fee head.
type FeeHeadType string

const (
	FeeHeadOneTime FeeHeadType = "one-time"
	FeeHeadMonthly FeeHeadType = "monthly"
	FeeHeadTerm    FeeHeadType = "term"
)

// Valid reports whether t is a known cadence.
func (t FeeHeadType) Valid() bool {
	return t == FeeHeadOneTime || t == FeeHeadMonthly || t == FeeHeadTerm
}

// FeeHead is a single named fee obligation. Amount is whole rupees.
type FeeHead struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Amount int64       `json:"amount"`
	Type   FeeHeadType `json:"type"`
}

// FeeSet is an ordered list of fee heads shared by a group of grades.
// Order is display-relevant only.
type FeeSet struct {
	Heads []FeeHead `json:"heads"`
}

// Schedule names. The structure always carries exactly these three sets.
const (
	ScheduleSet1 = "set1"
	ScheduleSet2 = "set2"
	ScheduleSet3 = "set3"
)

// ScheduleNames lists schedules in resolution (tie-break) order.
var ScheduleNames = []string{ScheduleSet1, ScheduleSet2, ScheduleSet3}

// FeeStructure is the school-wide fee configuration document: three named
// schedules plus the grade assignment. Version increments on every edit.
type FeeStructure struct {
	Set1     FeeSet             `json:"set1"`
	Set2     FeeSet             `json:"set2"`
	Set3     FeeSet             `json:"set3"`
	GradeMap map[string][]Grade `json:"grade_map,omitempty"`
	Version  int64              `json:"version"`
}

// Set returns a pointer to the named schedule.
func (s *FeeStructure) Set(name string) (*FeeSet, bool) {
	switch name {
	case ScheduleSet1:
		return &s.Set1, true
	case ScheduleSet2:
		return &s.Set2, true
	case ScheduleSet3:
		return &s.Set3, true
	}
	return nil, false
}

// DefaultGradeMap is the compiled-in fallback used when a structure carries
// no usable grade map: pre-primary on set1, primary on set2, secondary on set3.
func DefaultGradeMap() map[string][]Grade {
	return map[string][]Grade{
		ScheduleSet1: {GradeNursery, GradeKindergarten},
		ScheduleSet2: {GradeClassI, GradeClassII, GradeClassIII, GradeClassIV, GradeClassV},
		ScheduleSet3: {GradeClassVI, GradeClassVII, GradeClassVIII, GradeClassIX, GradeClassX},
	}
}

// DefaultFeeStructure returns an empty three-set structure with the default
// grade assignment, used when the school has not configured fees yet.
func DefaultFeeStructure() FeeStructure {
	return FeeStructure{
		Set1:     FeeSet{Heads: []FeeHead{}},
		Set2:     FeeSet{Heads: []FeeHead{}},
		Set3:     FeeSet{Heads: []FeeHead{}},
		GradeMap: DefaultGradeMap(),
		Version:  1,
	}
}
