package models

import (
	"math"
	"time"
)

// SupportLevel is the degree of prompting a student needed for a correct
// response, ordered from most to least independent.
type SupportLevel string

const (
	SupportIndependent SupportLevel = "independent"
	SupportMinimal     SupportLevel = "minimal_support"
	SupportModerate    SupportLevel = "moderate_support"
	SupportMaximal     SupportLevel = "maximal_support"
)

// SupportLevels lists the successful-response buckets in order. Incorrect
// responses sit outside this ordering.
var SupportLevels = []SupportLevel{
	SupportIndependent,
	SupportMinimal,
	SupportModerate,
	SupportMaximal,
}

// TargetKind discriminates what a trial record was collected against.
type TargetKind int

const (
	// TargetNone marks an untargeted/general trial batch.
	TargetNone TargetKind = iota
	// TargetObjective marks a record collected against an objective.
	TargetObjective
	// TargetGoal marks a legacy record collected against a goal directly.
	TargetGoal
)

// TrialTarget is the resolved target reference of a trial record.
type TrialTarget struct {
	Kind TargetKind
	ID   string
}

// TrialRecord is a batch tally of discrete trials observed during one
// session segment, bucketed by support level. Counter values are immutable
// in the normal flow; edits fully overwrite them.
type TrialRecord struct {
	ID              string    `db:"id" json:"id"`
	SessionID       string    `db:"session_id" json:"session_id"`
	ObjectiveID     *string   `db:"objective_id" json:"objective_id,omitempty"`
	GoalID          *string   `db:"goal_id" json:"goal_id,omitempty"`
	Independent     int       `db:"independent" json:"independent"`
	MinimalSupport  int       `db:"minimal_support" json:"minimal_support"`
	ModerateSupport int       `db:"moderate_support" json:"moderate_support"`
	MaximalSupport  int       `db:"maximal_support" json:"maximal_support"`
	Incorrect       int       `db:"incorrect" json:"incorrect"`
	Notes           string    `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Target resolves the record's tagged target. An objective reference takes
// precedence over the legacy goal reference when both are present.
func (t TrialRecord) Target() TrialTarget {
	if t.ObjectiveID != nil && *t.ObjectiveID != "" {
		return TrialTarget{Kind: TargetObjective, ID: *t.ObjectiveID}
	}
	if t.GoalID != nil && *t.GoalID != "" {
		return TrialTarget{Kind: TargetGoal, ID: *t.GoalID}
	}
	return TrialTarget{Kind: TargetNone}
}

// TotalTrials is the denominator for every percentage on the record.
func (t TrialRecord) TotalTrials() int {
	return t.Independent + t.MinimalSupport + t.ModerateSupport + t.MaximalSupport + t.Incorrect
}

func (t TrialRecord) countFor(level SupportLevel) int {
	switch level {
	case SupportIndependent:
		return t.Independent
	case SupportMinimal:
		return t.MinimalSupport
	case SupportModerate:
		return t.ModerateSupport
	case SupportMaximal:
		return t.MaximalSupport
	default:
		return 0
	}
}

// PercentageOf returns the share of trials in the given support bucket,
// rounded to one decimal. Zero-total records yield 0, never an error.
func (t TrialRecord) PercentageOf(level SupportLevel) float64 {
	total := t.TotalTrials()
	if total == 0 {
		return 0
	}
	return Round1(float64(t.countFor(level)) / float64(total) * 100)
}

// IncorrectPercentage returns the share of incorrect responses.
func (t TrialRecord) IncorrectPercentage() float64 {
	total := t.TotalTrials()
	if total == 0 {
		return 0
	}
	return Round1(float64(t.Incorrect) / float64(total) * 100)
}

// IndependencePercentage returns the share of fully independent responses.
func (t TrialRecord) IndependencePercentage() float64 {
	return t.PercentageOf(SupportIndependent)
}

// SuccessPercentage returns the share of correct responses at any support
// level, excluding only incorrect trials.
func (t TrialRecord) SuccessPercentage() float64 {
	total := t.TotalTrials()
	if total == 0 {
		return 0
	}
	successful := t.Independent + t.MinimalSupport + t.ModerateSupport + t.MaximalSupport
	return Round1(float64(successful) / float64(total) * 100)
}

// CumulativeUpTo returns the share of trials correct with at most the given
// support level: a prefix sum over the ordered support buckets. Unknown
// levels and zero-total records yield 0.
func (t TrialRecord) CumulativeUpTo(level SupportLevel) float64 {
	total := t.TotalTrials()
	if total == 0 {
		return 0
	}
	sum := 0
	found := false
	for _, lvl := range SupportLevels {
		sum += t.countFor(lvl)
		if lvl == level {
			found = true
			break
		}
	}
	if !found {
		return 0
	}
	return Round1(float64(sum) / float64(total) * 100)
}

// Round1 rounds to one decimal using round-half-even, matching the grading
// conventions used elsewhere in the practice's tooling.
func Round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
