package allocator

import "strings"

// Scoring constants. Lower scores are processed earlier.
const (
	BasePriority = 1000.0
	MeritWeight  = 100.0

	// timeBonusPeriod bounds the submission-time bonus to one hour of seconds.
	timeBonusPeriod = 3600
	timeBonusWeight = 0.01
)

// PriorityClass is the special-need category of a requester.
type PriorityClass int

const (
	ClassNone PriorityClass = iota
	ClassMedical
	ClassAcademic
	ClassSports
	ClassFinancial
)

var classMultipliers = map[PriorityClass]float64{
	ClassNone:      1.0,
	ClassMedical:   0.5,
	ClassAcademic:  0.6,
	ClassSports:    0.7,
	ClassFinancial: 0.8,
}

var classNames = map[PriorityClass]string{
	ClassNone:      "None",
	ClassMedical:   "Medical",
	ClassAcademic:  "Academic",
	ClassSports:    "Sports",
	ClassFinancial: "Financial",
}

// classAliases maps lower-cased labels, including the long-form labels used by
// application forms, to a class.
var classAliases = map[string]PriorityClass{
	"":                    ClassNone,
	"none":                ClassNone,
	"medical":             ClassMedical,
	"academic":            ClassAcademic,
	"academic excellence": ClassAcademic,
	"sports":              ClassSports,
	"financial":           ClassFinancial,
	"financial aid":       ClassFinancial,
}

// ParsePriorityClass resolves a label to a class. Unrecognised labels map to
// ClassNone; this is a policy default, not an error.
func ParsePriorityClass(label string) PriorityClass {
	if c, ok := classAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return ClassNone
}

// Multiplier returns the base-priority multiplier for the class. Values outside
// the known set use the ClassNone multiplier.
func (c PriorityClass) Multiplier() float64 {
	if m, ok := classMultipliers[c]; ok {
		return m
	}
	return classMultipliers[ClassNone]
}

func (c PriorityClass) String() string {
	if n, ok := classNames[c]; ok {
		return n
	}
	return classNames[ClassNone]
}

// Score computes the rank key for a requester:
//
//	BasePriority*multiplier - merit*MeritWeight - (submittedAt mod 3600)*0.01
//
// Merit is not range checked; validation belongs to the caller.
func Score(merit float64, class PriorityClass, submittedAt int64) float64 {
	timeBonus := float64(submittedAt%timeBonusPeriod) * timeBonusWeight
	return BasePriority*class.Multiplier() - merit*MeritWeight - timeBonus
}
