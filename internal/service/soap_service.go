package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
)

type sessionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type sessionTrialLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.TrialRecord, error)
}

type objectiveFinder interface {
	FindByID(ctx context.Context, id string) (*models.Objective, error)
}

type soapRepo interface {
	FindBySession(ctx context.Context, sessionID string) (*models.SOAPNote, error)
	Upsert(ctx context.Context, note *models.SOAPNote) error
	ListByStudent(ctx context.Context, studentID string) ([]models.SOAPNoteWithSession, error)
}

// Boilerplate narrative for the generated assessment and plan sections.
// These are editable starting points, not derived statistics.
const (
	soapObjectiveHeader  = "Trial data collected:"
	soapAssessmentStub   = "Student demonstrated varying levels of support needs across targeted skills."
	soapPlanStub         = "Continue current intervention approach with focus on increasing independence."
	soapSubjectiveFormat = "Student participated in %s therapy session."
)

// SaveSOAPNoteRequest is the payload for the explicit save operation.
type SaveSOAPNoteRequest struct {
	SessionID  string `json:"session_id" validate:"required"`
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

// SOAPService generates first-draft SOAP notes from session trial data and
// persists hand-edited notes with upsert semantics.
type SOAPService struct {
	sessions   sessionFinder
	trials     sessionTrialLister
	objectives objectiveFinder
	notes      soapRepo
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSOAPService constructs a SOAPService.
func NewSOAPService(sessions sessionFinder, trials sessionTrialLister, objectives objectiveFinder, notes soapRepo, validate *validator.Validate, logger *zap.Logger) *SOAPService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SOAPService{
		sessions:   sessions,
		trials:     trials,
		objectives: objectives,
		notes:      notes,
		validator:  validate,
		logger:     logger,
	}
}

// Generate renders a draft note from the session's trial data. The draft is
// never persisted; saving is a separate explicit operation.
func (s *SOAPService) Generate(ctx context.Context, sessionID string) (*models.SOAPNote, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	trials, err := s.trials.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trial records")
	}

	objective, err := s.renderObjectiveSection(ctx, trials)
	if err != nil {
		return nil, err
	}

	return &models.SOAPNote{
		SessionID:  session.ID,
		Subjective: fmt.Sprintf(soapSubjectiveFormat, strings.ToLower(session.SessionType)),
		Objective:  objective,
		Assessment: soapAssessmentStub,
		Plan:       soapPlanStub,
	}, nil
}

// renderObjectiveSection produces one line per trial record in insertion
// order. Untargeted records and records whose target no longer resolves use
// the generic tally form.
func (s *SOAPService) renderObjectiveSection(ctx context.Context, trials []models.TrialRecord) (string, error) {
	lines := make([]string, 0, len(trials)+1)
	lines = append(lines, soapObjectiveHeader)
	for _, trial := range trials {
		line := ""
		if target := trial.Target(); target.Kind == models.TargetObjective {
			objective, err := s.objectives.FindByID(ctx, target.ID)
			switch {
			case err == nil:
				line = fmt.Sprintf("%s: %s%% independent", objective.Description, formatPercent(trial.IndependencePercentage()))
			case errors.Is(err, sql.ErrNoRows):
				// Target was deleted; fall through to the generic form.
			default:
				return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve objective")
			}
		}
		if line == "" {
			line = fmt.Sprintf("%d trials, %s%% independence", trial.TotalTrials(), formatPercent(trial.IndependencePercentage()))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// GetOrDraft returns the stored note for the session, or a freshly generated
// draft when none exists. The boolean reports whether the note is a draft.
func (s *SOAPService) GetOrDraft(ctx context.Context, sessionID string) (*models.SOAPNote, bool, error) {
	note, err := s.notes.FindBySession(ctx, sessionID)
	if err == nil {
		return note, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load soap note")
	}
	draft, err := s.Generate(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return draft, true, nil
}

// Save persists the note with create-or-update semantics keyed on the
// session id; a second save overwrites the four fields of the existing note.
func (s *SOAPService) Save(ctx context.Context, req SaveSOAPNoteRequest) (*models.SOAPNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid soap note payload")
	}
	if _, err := s.sessions.FindByID(ctx, req.SessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	note := &models.SOAPNote{
		SessionID:  req.SessionID,
		Subjective: req.Subjective,
		Objective:  req.Objective,
		Assessment: req.Assessment,
		Plan:       req.Plan,
	}
	if err := s.notes.Upsert(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save soap note")
	}

	stored, err := s.notes.FindBySession(ctx, req.SessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload soap note")
	}
	return stored, nil
}

// ListByStudent returns the student's SOAP history with session dates.
func (s *SOAPService) ListByStudent(ctx context.Context, studentID string) ([]models.SOAPNoteWithSession, error) {
	notes, err := s.notes.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list soap notes")
	}
	return notes, nil
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
