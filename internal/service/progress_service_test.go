package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
)

type fakeObjectiveReader struct {
	objectives map[string]models.Objective
	byGoal     map[string][]models.Objective
}

func (f *fakeObjectiveReader) FindByID(_ context.Context, id string) (*models.Objective, error) {
	if objective, ok := f.objectives[id]; ok {
		return &objective, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeObjectiveReader) ListByGoal(_ context.Context, goalID string) ([]models.Objective, error) {
	return f.byGoal[goalID], nil
}

type fakeGoalReader struct {
	goals     map[string]models.Goal
	byStudent map[string][]models.Goal
}

func (f *fakeGoalReader) FindByID(_ context.Context, id string) (*models.Goal, error) {
	if goal, ok := f.goals[id]; ok {
		return &goal, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGoalReader) ListByStudent(_ context.Context, studentID string) ([]models.Goal, error) {
	return f.byStudent[studentID], nil
}

type fakeWindowedTrials struct {
	byObjective map[string][]models.TrialRecord
	cutoffs     []time.Time
}

func (f *fakeWindowedTrials) ListByObjectiveSince(_ context.Context, objectiveID string, cutoff time.Time) ([]models.TrialRecord, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.byObjective[objectiveID], nil
}

func newProgressFixture(objectives *fakeObjectiveReader, goals *fakeGoalReader, trials *fakeWindowedTrials) *ProgressService {
	svc := NewProgressService(ProgressServiceParams{
		Objectives: objectives,
		Goals:      goals,
		Trials:     trials,
		Config:     ProgressServiceConfig{WindowDays: 30},
	})
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestObjectiveProgressPoolsAcrossRecords(t *testing.T) {
	objectives := &fakeObjectiveReader{objectives: map[string]models.Objective{
		"obj-1": {ID: "obj-1", Description: "Initial /r/"},
	}}
	// 8/10 and 3/10: pooled 11/20 = 55.0, not the 70.0 a per-record
	// average would give.
	trials := &fakeWindowedTrials{byObjective: map[string][]models.TrialRecord{
		"obj-1": {
			{Independent: 8, Incorrect: 2},
			{Independent: 3, Incorrect: 7},
		},
	}}
	svc := newProgressFixture(objectives, &fakeGoalReader{}, trials)

	progress, err := svc.ObjectiveProgress(context.Background(), "obj-1")
	require.NoError(t, err)
	assert.Equal(t, 55.0, progress.Progress)
	assert.Equal(t, 20, progress.TotalTrials)
	assert.Equal(t, 11, progress.TotalIndependent)
	assert.Equal(t, 2, progress.RecordCount)
	assert.Equal(t, 30, progress.WindowDays)
}

func TestObjectiveProgressZeroWhenNoTrials(t *testing.T) {
	objectives := &fakeObjectiveReader{objectives: map[string]models.Objective{
		"obj-1": {ID: "obj-1"},
	}}
	svc := newProgressFixture(objectives, &fakeGoalReader{}, &fakeWindowedTrials{})

	progress, err := svc.ObjectiveProgress(context.Background(), "obj-1")
	require.NoError(t, err)
	assert.Zero(t, progress.Progress)
	assert.Zero(t, progress.TotalTrials)
	assert.Zero(t, progress.RecordCount)
}

func TestObjectiveProgressUnknownObjective(t *testing.T) {
	svc := newProgressFixture(&fakeObjectiveReader{}, &fakeGoalReader{}, &fakeWindowedTrials{})

	_, err := svc.ObjectiveProgress(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestWindowCutoffTrailsConfiguredDays(t *testing.T) {
	objectives := &fakeObjectiveReader{objectives: map[string]models.Objective{
		"obj-1": {ID: "obj-1"},
	}}
	trials := &fakeWindowedTrials{}
	svc := newProgressFixture(objectives, &fakeGoalReader{}, trials)

	_, err := svc.ObjectiveProgress(context.Background(), "obj-1")
	require.NoError(t, err)
	require.Len(t, trials.cutoffs, 1)
	assert.Equal(t, time.Date(2025, time.February, 13, 0, 0, 0, 0, time.UTC), trials.cutoffs[0])
}

func TestGoalProgressMeansActiveObjectives(t *testing.T) {
	goals := &fakeGoalReader{goals: map[string]models.Goal{
		"goal-1": {ID: "goal-1"},
	}}
	objectives := &fakeObjectiveReader{
		byGoal: map[string][]models.Objective{
			"goal-1": {{ID: "obj-1"}, {ID: "obj-2"}},
		},
	}
	trials := &fakeWindowedTrials{byObjective: map[string][]models.TrialRecord{
		"obj-1": {{Independent: 8, Incorrect: 2}},
		"obj-2": {{Independent: 6, Incorrect: 4}},
	}}
	svc := newProgressFixture(objectives, goals, trials)

	progress, err := svc.GoalProgress(context.Background(), "goal-1")
	require.NoError(t, err)
	assert.Equal(t, 70.0, progress.Progress)
	require.Len(t, progress.Objectives, 2)
	assert.Equal(t, 80.0, progress.Objectives[0].Progress)
	assert.Equal(t, 60.0, progress.Objectives[1].Progress)
}

func TestGoalProgressZeroWithoutObjectives(t *testing.T) {
	goals := &fakeGoalReader{goals: map[string]models.Goal{
		"goal-1": {ID: "goal-1"},
	}}
	svc := newProgressFixture(&fakeObjectiveReader{}, goals, &fakeWindowedTrials{})

	progress, err := svc.GoalProgress(context.Background(), "goal-1")
	require.NoError(t, err)
	assert.Zero(t, progress.Progress)
	assert.Empty(t, progress.Objectives)
}

func TestGoalProgressUnknownGoal(t *testing.T) {
	svc := newProgressFixture(&fakeObjectiveReader{}, &fakeGoalReader{}, &fakeWindowedTrials{})

	_, err := svc.GoalProgress(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentProgressRollsUpGoals(t *testing.T) {
	goals := &fakeGoalReader{byStudent: map[string][]models.Goal{
		"student-1": {{ID: "goal-1"}, {ID: "goal-2"}},
	}}
	objectives := &fakeObjectiveReader{
		byGoal: map[string][]models.Objective{
			"goal-1": {{ID: "obj-1"}},
		},
	}
	trials := &fakeWindowedTrials{byObjective: map[string][]models.TrialRecord{
		"obj-1": {{Independent: 3, MinimalSupport: 1, Incorrect: 0}},
	}}
	svc := newProgressFixture(objectives, goals, trials)

	progress, err := svc.StudentProgress(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, progress.Goals, 2)
	assert.Equal(t, 75.0, progress.Goals[0].Progress)
	assert.Zero(t, progress.Goals[1].Progress)
}
