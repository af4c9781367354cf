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

type fakeObjectiveStore struct {
	objectives map[string]models.Objective
	created    *models.Objective
}

func (f *fakeObjectiveStore) ListByGoal(context.Context, string) ([]models.Objective, error) {
	return nil, nil
}

func (f *fakeObjectiveStore) FindByID(_ context.Context, id string) (*models.Objective, error) {
	if objective, ok := f.objectives[id]; ok {
		return &objective, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeObjectiveStore) Create(_ context.Context, objective *models.Objective) error {
	objective.ID = "objective-new"
	f.created = objective
	return nil
}

func (f *fakeObjectiveStore) Update(_ context.Context, objective *models.Objective) error {
	f.objectives[objective.ID] = *objective
	return nil
}

func newObjectiveFixture(store *fakeObjectiveStore, cacheStore *fakeCacheStore) *ObjectiveService {
	goals := &fakeGoalReader{goals: map[string]models.Goal{
		"goal-1": {ID: "goal-1", StudentID: "student-1", Active: true},
	}}
	var cacheSvc *CacheService
	if cacheStore != nil {
		cacheSvc = NewCacheService(cacheStore, nil, time.Minute, nil, true)
	}
	progress := NewProgressService(ProgressServiceParams{
		Objectives: &fakeObjectiveReader{},
		Goals:      goals,
		Trials:     &fakeWindowedTrials{},
		Cache:      cacheSvc,
	})
	return NewObjectiveService(store, goals, progress, nil, nil)
}

func TestCreateObjectiveDefaultsTargetPercentage(t *testing.T) {
	store := &fakeObjectiveStore{}
	svc := newObjectiveFixture(store, nil)

	objective, err := svc.Create(context.Background(), CreateObjectiveRequest{
		GoalID:      "goal-1",
		Description: "Initial /r/ in words",
	})
	require.NoError(t, err)
	assert.Equal(t, 80, objective.TargetPercentage)
	assert.True(t, objective.Active)
}

func TestCreateObjectiveKeepsExplicitZeroTarget(t *testing.T) {
	store := &fakeObjectiveStore{}
	svc := newObjectiveFixture(store, nil)

	objective, err := svc.Create(context.Background(), CreateObjectiveRequest{
		GoalID:           "goal-1",
		Description:      "Baseline collection only",
		TargetPercentage: intPtr(0),
	})
	require.NoError(t, err)
	assert.Zero(t, objective.TargetPercentage)
}

func TestCreateObjectiveUnknownGoal(t *testing.T) {
	svc := newObjectiveFixture(&fakeObjectiveStore{}, nil)

	_, err := svc.Create(context.Background(), CreateObjectiveRequest{
		GoalID:      "missing",
		Description: "Initial /r/ in words",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateObjectiveInvalidatesCachedProgress(t *testing.T) {
	cacheStore := &fakeCacheStore{}
	svc := newObjectiveFixture(&fakeObjectiveStore{}, cacheStore)

	_, err := svc.Create(context.Background(), CreateObjectiveRequest{
		GoalID:      "goal-1",
		Description: "Initial /r/ in words",
	})
	require.NoError(t, err)
	assert.Contains(t, cacheStore.invalidated, "progress:*")
}

func TestUpdateObjectiveInvalidatesCachedProgress(t *testing.T) {
	cacheStore := &fakeCacheStore{}
	store := &fakeObjectiveStore{objectives: map[string]models.Objective{
		"objective-1": {ID: "objective-1", GoalID: "goal-1", Description: "Initial /r/", TargetPercentage: 80, Active: true},
	}}
	svc := newObjectiveFixture(store, cacheStore)

	objective, err := svc.Update(context.Background(), "objective-1", UpdateObjectiveRequest{
		Description:      "Initial /r/ in sentences",
		TargetPercentage: 90,
		Active:           true,
	})
	require.NoError(t, err)
	assert.Equal(t, 90, objective.TargetPercentage)
	assert.Contains(t, cacheStore.invalidated, "progress:*")
}
