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

type fakeSessionFinder struct {
	sessions map[string]models.Session
}

func (f *fakeSessionFinder) FindByID(_ context.Context, id string) (*models.Session, error) {
	if session, ok := f.sessions[id]; ok {
		return &session, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSessionTrials struct {
	bySession map[string][]models.TrialRecord
}

func (f *fakeSessionTrials) ListBySession(_ context.Context, sessionID string) ([]models.TrialRecord, error) {
	return f.bySession[sessionID], nil
}

type fakeSOAPStore struct {
	notes   map[string]models.SOAPNote
	upserts int
}

func (f *fakeSOAPStore) FindBySession(_ context.Context, sessionID string) (*models.SOAPNote, error) {
	if note, ok := f.notes[sessionID]; ok {
		return &note, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSOAPStore) Upsert(_ context.Context, note *models.SOAPNote) error {
	if f.notes == nil {
		f.notes = map[string]models.SOAPNote{}
	}
	stored, exists := f.notes[note.SessionID]
	if exists {
		stored.Subjective = note.Subjective
		stored.Objective = note.Objective
		stored.Assessment = note.Assessment
		stored.Plan = note.Plan
		stored.UpdatedAt = time.Now()
	} else {
		stored = *note
		stored.ID = "note-1"
	}
	f.notes[note.SessionID] = stored
	f.upserts++
	return nil
}

func (f *fakeSOAPStore) ListByStudent(_ context.Context, _ string) ([]models.SOAPNoteWithSession, error) {
	return nil, nil
}

func objectiveID(id string) *string { return &id }

func newSOAPFixture(sessions *fakeSessionFinder, trials *fakeSessionTrials, objectives *fakeObjectiveReader, store *fakeSOAPStore) *SOAPService {
	return NewSOAPService(sessions, trials, objectives, store, nil, nil)
}

func TestGenerateDraftsFourSections(t *testing.T) {
	sessions := &fakeSessionFinder{sessions: map[string]models.Session{
		"sess-1": {ID: "sess-1", SessionType: models.SessionTypeIndividual},
	}}
	trials := &fakeSessionTrials{bySession: map[string][]models.TrialRecord{
		"sess-1": {
			{ObjectiveID: objectiveID("obj-1"), Independent: 6, MinimalSupport: 1, Incorrect: 1},
		},
	}}
	objectives := &fakeObjectiveReader{objectives: map[string]models.Objective{
		"obj-1": {ID: "obj-1", Description: "Initial /r/"},
	}}
	svc := newSOAPFixture(sessions, trials, objectives, &fakeSOAPStore{})

	note, err := svc.Generate(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Student participated in individual therapy session.", note.Subjective)
	assert.Equal(t, "Trial data collected:\nInitial /r/: 75.0% independent", note.Objective)
	assert.Equal(t, "Student demonstrated varying levels of support needs across targeted skills.", note.Assessment)
	assert.Equal(t, "Continue current intervention approach with focus on increasing independence.", note.Plan)
}

func TestGenerateFallsBackWhenTargetUnresolvable(t *testing.T) {
	sessions := &fakeSessionFinder{sessions: map[string]models.Session{
		"sess-1": {ID: "sess-1", SessionType: models.SessionTypeGroup},
	}}
	trials := &fakeSessionTrials{bySession: map[string][]models.TrialRecord{
		"sess-1": {
			{ObjectiveID: objectiveID("gone"), Independent: 4, Incorrect: 1},
			{Independent: 2, MaximalSupport: 2},
		},
	}}
	svc := newSOAPFixture(sessions, trials, &fakeObjectiveReader{}, &fakeSOAPStore{})

	note, err := svc.Generate(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Student participated in group therapy session.", note.Subjective)
	assert.Equal(t, "Trial data collected:\n5 trials, 80.0% independence\n4 trials, 50.0% independence", note.Objective)
}

func TestGenerateEmptySession(t *testing.T) {
	sessions := &fakeSessionFinder{sessions: map[string]models.Session{
		"sess-1": {ID: "sess-1", SessionType: models.SessionTypeIndividual},
	}}
	svc := newSOAPFixture(sessions, &fakeSessionTrials{}, &fakeObjectiveReader{}, &fakeSOAPStore{})

	note, err := svc.Generate(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Trial data collected:", note.Objective)
}

func TestGenerateUnknownSession(t *testing.T) {
	svc := newSOAPFixture(&fakeSessionFinder{}, &fakeSessionTrials{}, &fakeObjectiveReader{}, &fakeSOAPStore{})

	_, err := svc.Generate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetOrDraftPrefersStoredNote(t *testing.T) {
	sessions := &fakeSessionFinder{sessions: map[string]models.Session{
		"sess-1": {ID: "sess-1", SessionType: models.SessionTypeIndividual},
	}}
	store := &fakeSOAPStore{notes: map[string]models.SOAPNote{
		"sess-1": {ID: "note-1", SessionID: "sess-1", Subjective: "Edited by hand."},
	}}
	svc := newSOAPFixture(sessions, &fakeSessionTrials{}, &fakeObjectiveReader{}, store)

	note, draft, err := svc.GetOrDraft(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.False(t, draft)
	assert.Equal(t, "Edited by hand.", note.Subjective)
}

func TestGetOrDraftGeneratesWhenMissing(t *testing.T) {
	sessions := &fakeSessionFinder{sessions: map[string]models.Session{
		"sess-1": {ID: "sess-1", SessionType: models.SessionTypeIndividual},
	}}
	store := &fakeSOAPStore{}
	svc := newSOAPFixture(sessions, &fakeSessionTrials{}, &fakeObjectiveReader{}, store)

	note, draft, err := svc.GetOrDraft(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, draft)
	assert.Empty(t, note.ID)
	assert.Zero(t, store.upserts, "drafts must not be persisted")
}

func TestSaveUpsertsBySession(t *testing.T) {
	sessions := &fakeSessionFinder{sessions: map[string]models.Session{
		"sess-1": {ID: "sess-1", SessionType: models.SessionTypeIndividual},
	}}
	store := &fakeSOAPStore{}
	svc := newSOAPFixture(sessions, &fakeSessionTrials{}, &fakeObjectiveReader{}, store)

	first, err := svc.Save(context.Background(), SaveSOAPNoteRequest{
		SessionID:  "sess-1",
		Subjective: "First pass.",
	})
	require.NoError(t, err)

	second, err := svc.Save(context.Background(), SaveSOAPNoteRequest{
		SessionID:  "sess-1",
		Subjective: "Second pass.",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "second save must overwrite, not insert")
	assert.Equal(t, "Second pass.", second.Subjective)
	assert.Equal(t, 2, store.upserts)
	assert.Len(t, store.notes, 1)
}

func TestSaveRequiresSession(t *testing.T) {
	svc := newSOAPFixture(&fakeSessionFinder{}, &fakeSessionTrials{}, &fakeObjectiveReader{}, &fakeSOAPStore{})

	_, err := svc.Save(context.Background(), SaveSOAPNoteRequest{SessionID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaveValidatesPayload(t *testing.T) {
	svc := newSOAPFixture(&fakeSessionFinder{}, &fakeSessionTrials{}, &fakeObjectiveReader{}, &fakeSOAPStore{})

	_, err := svc.Save(context.Background(), SaveSOAPNoteRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
