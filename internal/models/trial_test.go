package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrialRecordZeroTotal(t *testing.T) {
	trial := TrialRecord{}

	assert.Equal(t, 0, trial.TotalTrials())
	assert.Equal(t, 0.0, trial.IndependencePercentage())
	assert.Equal(t, 0.0, trial.SuccessPercentage())
	assert.Equal(t, 0.0, trial.IncorrectPercentage())
	for _, level := range SupportLevels {
		assert.Equal(t, 0.0, trial.PercentageOf(level))
		assert.Equal(t, 0.0, trial.CumulativeUpTo(level))
	}
}

func TestTrialRecordPercentages(t *testing.T) {
	trial := TrialRecord{
		Independent:     4,
		MinimalSupport:  2,
		ModerateSupport: 1,
		MaximalSupport:  1,
		Incorrect:       2,
	}

	assert.Equal(t, 10, trial.TotalTrials())
	assert.Equal(t, 40.0, trial.IndependencePercentage())
	assert.Equal(t, 80.0, trial.SuccessPercentage())
	assert.Equal(t, 60.0, trial.CumulativeUpTo(SupportMinimal))
	assert.Equal(t, 70.0, trial.CumulativeUpTo(SupportModerate))
	assert.Equal(t, 80.0, trial.CumulativeUpTo(SupportMaximal))
	assert.Equal(t, 20.0, trial.IncorrectPercentage())
}

func TestTrialRecordBucketsSumToHundred(t *testing.T) {
	trial := TrialRecord{
		Independent:     3,
		MinimalSupport:  1,
		ModerateSupport: 1,
		MaximalSupport:  1,
		Incorrect:       1,
	}

	sum := trial.IncorrectPercentage()
	for _, level := range SupportLevels {
		sum += trial.PercentageOf(level)
	}
	assert.InDelta(t, 100.0, sum, 0.1)
}

func TestTrialRecordSuccessSupersetOfIndependence(t *testing.T) {
	cases := []TrialRecord{
		{Independent: 5},
		{Independent: 2, MinimalSupport: 3, Incorrect: 4},
		{MaximalSupport: 7, Incorrect: 1},
		{Incorrect: 9},
	}
	for _, trial := range cases {
		assert.GreaterOrEqual(t, trial.SuccessPercentage(), trial.IndependencePercentage())
	}
}

func TestTrialRecordCumulativeMaximalEqualsSuccess(t *testing.T) {
	trial := TrialRecord{
		Independent:     6,
		MinimalSupport:  2,
		ModerateSupport: 3,
		MaximalSupport:  1,
		Incorrect:       4,
	}

	assert.Equal(t, trial.SuccessPercentage(), trial.CumulativeUpTo(SupportMaximal))
}

func TestTrialRecordUnknownLevel(t *testing.T) {
	trial := TrialRecord{Independent: 5, Incorrect: 5}

	assert.Equal(t, 0.0, trial.CumulativeUpTo(SupportLevel("full_physical")))
	assert.Equal(t, 0.0, trial.PercentageOf(SupportLevel("")))
}

func TestTrialRecordRounding(t *testing.T) {
	// 1/3 -> 33.333... rounds to a single decimal place.
	trial := TrialRecord{Independent: 1, Incorrect: 2}
	assert.Equal(t, 33.3, trial.IndependencePercentage())

	// 2/3 -> 66.666... rounds up.
	trial = TrialRecord{Independent: 2, Incorrect: 1}
	assert.Equal(t, 66.7, trial.IndependencePercentage())
}

func TestTrialRecordTarget(t *testing.T) {
	objID := "obj-1"
	goalID := "goal-1"
	empty := ""

	assert.Equal(t, TrialTarget{Kind: TargetNone}, TrialRecord{}.Target())
	assert.Equal(t, TrialTarget{Kind: TargetNone}, TrialRecord{ObjectiveID: &empty}.Target())
	assert.Equal(t, TrialTarget{Kind: TargetGoal, ID: "goal-1"}, TrialRecord{GoalID: &goalID}.Target())

	// Objective wins when both references are present.
	both := TrialRecord{ObjectiveID: &objID, GoalID: &goalID}
	assert.Equal(t, TrialTarget{Kind: TargetObjective, ID: "obj-1"}, both.Target())
}
