package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
)

type fakeStudentFinder struct {
	students map[string]models.Student
}

func (f *fakeStudentFinder) FindByID(_ context.Context, id string) (*models.Student, error) {
	if student, ok := f.students[id]; ok {
		return &student, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSOAPHistory struct {
	notes []models.SOAPNoteWithSession
}

func (f *fakeSOAPHistory) ListByStudent(context.Context, string) ([]models.SOAPNoteWithSession, error) {
	return f.notes, nil
}

func newExportFixture(progress *ProgressService, soapNotes studentSOAPLister) *ExportService {
	students := &fakeStudentFinder{students: map[string]models.Student{
		"student-1": {ID: "student-1", FirstName: "Sam", LastName: "Rivera"},
	}}
	return NewExportService(students, progress, soapNotes, nil, nil, nil, nil)
}

func TestParseReportFormat(t *testing.T) {
	format, err := ParseReportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ReportFormatCSV, format)

	format, err = ParseReportFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, ReportFormatXLSX, format)

	_, err = ParseReportFormat("docx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentProgressReportCSV(t *testing.T) {
	goals := &fakeGoalReader{byStudent: map[string][]models.Goal{
		"student-1": {{ID: "goal-1", Description: "Articulation"}},
	}}
	objectives := &fakeObjectiveReader{byGoal: map[string][]models.Objective{
		"goal-1": {{ID: "obj-1", Description: "Initial /r/", TargetPercentage: 80}},
	}}
	trials := &fakeWindowedTrials{byObjective: map[string][]models.TrialRecord{
		"obj-1": {{Independent: 6, MinimalSupport: 1, Incorrect: 1}},
	}}
	progress := newProgressFixture(objectives, goals, trials)
	svc := newExportFixture(progress, &fakeSOAPHistory{})

	result, err := svc.StudentProgressReport(context.Background(), "student-1", ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Goal,Objective,Target %,Progress %,Trials,Independent,Records", lines[0])
	assert.Equal(t, "Articulation,Initial /r/,80,75.0,8,6,1", lines[1])
}

func TestStudentProgressReportUnknownStudent(t *testing.T) {
	progress := newProgressFixture(&fakeObjectiveReader{}, &fakeGoalReader{}, &fakeWindowedTrials{})
	svc := newExportFixture(progress, &fakeSOAPHistory{})

	_, err := svc.StudentProgressReport(context.Background(), "missing", ReportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

type failingStudentFinder struct {
	err error
}

func (f *failingStudentFinder) FindByID(context.Context, string) (*models.Student, error) {
	return nil, f.err
}

func TestStudentProgressReportStoreFailure(t *testing.T) {
	progress := newProgressFixture(&fakeObjectiveReader{}, &fakeGoalReader{}, &fakeWindowedTrials{})
	students := &failingStudentFinder{err: errors.New("connection reset by peer")}
	svc := NewExportService(students, progress, &fakeSOAPHistory{}, nil, nil, nil, nil)

	_, err := svc.StudentProgressReport(context.Background(), "student-1", ReportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestSOAPHistoryReportCSV(t *testing.T) {
	progress := newProgressFixture(&fakeObjectiveReader{}, &fakeGoalReader{}, &fakeWindowedTrials{})
	notes := &fakeSOAPHistory{notes: []models.SOAPNoteWithSession{
		{
			SOAPNote:    models.SOAPNote{Subjective: "Participated well.", Plan: "Continue."},
			SessionDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		},
	}}
	svc := newExportFixture(progress, notes)

	result, err := svc.SOAPHistoryReport(context.Background(), "student-1", ReportFormatCSV)
	require.NoError(t, err)

	payload := string(result.Payload)
	assert.Contains(t, payload, "2025-03-10")
	assert.Contains(t, payload, "Participated well.")
}
