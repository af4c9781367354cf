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

type fakeGoalStore struct {
	goals   map[string]models.Goal
	created *models.Goal
	deleted []string
}

func (f *fakeGoalStore) ListByStudent(context.Context, string) ([]models.Goal, error) {
	return nil, nil
}

func (f *fakeGoalStore) FindByID(_ context.Context, id string) (*models.Goal, error) {
	if goal, ok := f.goals[id]; ok {
		return &goal, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGoalStore) Create(_ context.Context, goal *models.Goal) error {
	goal.ID = "goal-new"
	f.created = goal
	return nil
}

func (f *fakeGoalStore) Update(_ context.Context, goal *models.Goal) error {
	f.goals[goal.ID] = *goal
	return nil
}

func (f *fakeGoalStore) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCacheStore struct {
	invalidated []string
}

func (f *fakeCacheStore) Get(context.Context, string, interface{}) error {
	return appErrors.ErrCacheMiss
}

func (f *fakeCacheStore) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (f *fakeCacheStore) DeleteByPattern(_ context.Context, pattern string) error {
	f.invalidated = append(f.invalidated, pattern)
	return nil
}

func intPtr(v int) *int { return &v }

func newGoalFixture(store *fakeGoalStore, cacheStore *fakeCacheStore) *GoalService {
	students := &fakeStudentFinder{students: map[string]models.Student{
		"student-1": {ID: "student-1"},
	}}
	var cacheSvc *CacheService
	if cacheStore != nil {
		cacheSvc = NewCacheService(cacheStore, nil, time.Minute, nil, true)
	}
	progress := NewProgressService(ProgressServiceParams{
		Objectives: &fakeObjectiveReader{},
		Goals:      &fakeGoalReader{},
		Trials:     &fakeWindowedTrials{},
		Cache:      cacheSvc,
	})
	return NewGoalService(store, students, progress, nil, nil)
}

func TestCreateGoalDefaultsTargetAccuracy(t *testing.T) {
	store := &fakeGoalStore{}
	svc := newGoalFixture(store, nil)

	goal, err := svc.Create(context.Background(), CreateGoalRequest{
		StudentID:   "student-1",
		Description: "Articulation",
	})
	require.NoError(t, err)
	assert.Equal(t, 80, goal.TargetAccuracy)
	assert.True(t, goal.Active)
}

func TestCreateGoalKeepsExplicitZeroTarget(t *testing.T) {
	store := &fakeGoalStore{}
	svc := newGoalFixture(store, nil)

	goal, err := svc.Create(context.Background(), CreateGoalRequest{
		StudentID:      "student-1",
		Description:    "Baseline only",
		TargetAccuracy: intPtr(0),
	})
	require.NoError(t, err)
	assert.Zero(t, goal.TargetAccuracy)
}

func TestCreateGoalRejectsTargetOverHundred(t *testing.T) {
	svc := newGoalFixture(&fakeGoalStore{}, nil)

	_, err := svc.Create(context.Background(), CreateGoalRequest{
		StudentID:      "student-1",
		Description:    "Articulation",
		TargetAccuracy: intPtr(101),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateGoalUnknownStudent(t *testing.T) {
	svc := newGoalFixture(&fakeGoalStore{}, nil)

	_, err := svc.Create(context.Background(), CreateGoalRequest{
		StudentID:   "missing",
		Description: "Articulation",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateGoalInvalidatesCachedProgress(t *testing.T) {
	cacheStore := &fakeCacheStore{}
	svc := newGoalFixture(&fakeGoalStore{}, cacheStore)

	_, err := svc.Create(context.Background(), CreateGoalRequest{
		StudentID:   "student-1",
		Description: "Articulation",
	})
	require.NoError(t, err)
	assert.Contains(t, cacheStore.invalidated, "progress:*")
}

func TestUpdateGoalInvalidatesCachedProgress(t *testing.T) {
	cacheStore := &fakeCacheStore{}
	store := &fakeGoalStore{goals: map[string]models.Goal{
		"goal-1": {ID: "goal-1", Description: "Articulation", TargetAccuracy: 80, Active: true},
	}}
	svc := newGoalFixture(store, cacheStore)

	goal, err := svc.Update(context.Background(), "goal-1", UpdateGoalRequest{
		Description:    "Articulation revised",
		TargetAccuracy: 90,
		Active:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, 90, goal.TargetAccuracy)
	assert.Contains(t, cacheStore.invalidated, "progress:*")
}

func TestDeleteGoalUnknown(t *testing.T) {
	svc := newGoalFixture(&fakeGoalStore{}, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
