package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slp-tools/caseload-api/internal/dto"
	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Session, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.SessionSummary, error)
}

type trialRepository interface {
	FindByID(ctx context.Context, id string) (*models.TrialRecord, error)
	Create(ctx context.Context, trial *models.TrialRecord) error
	Overwrite(ctx context.Context, trial *models.TrialRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]models.TrialRecord, error)
}

type sessionSOAPFinder interface {
	FindBySession(ctx context.Context, sessionID string) (*models.SOAPNote, error)
}

// CreateSessionRequest holds payload for scheduling a session.
type CreateSessionRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	SessionDate string  `json:"session_date" validate:"required,datetime=2006-01-02"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	SessionType string  `json:"session_type" validate:"omitempty,oneof=Individual Group"`
	Location    string  `json:"location"`
	Notes       string  `json:"notes"`
}

// UpdateSessionRequest holds payload for rescheduling or closing out a
// session.
type UpdateSessionRequest struct {
	SessionDate string  `json:"session_date" validate:"required,datetime=2006-01-02"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	SessionType string  `json:"session_type" validate:"omitempty,oneof=Individual Group"`
	Location    string  `json:"location"`
	Status      string  `json:"status" validate:"required,oneof=Scheduled Completed Cancelled"`
	Notes       string  `json:"notes"`
}

// TrialCountersRequest is one batch tally keyed by support level.
type TrialCountersRequest struct {
	ObjectiveID     *string `json:"objective_id"`
	GoalID          *string `json:"goal_id"`
	Independent     int     `json:"independent" validate:"min=0"`
	MinimalSupport  int     `json:"minimal_support" validate:"min=0"`
	ModerateSupport int     `json:"moderate_support" validate:"min=0"`
	MaximalSupport  int     `json:"maximal_support" validate:"min=0"`
	Incorrect       int     `json:"incorrect" validate:"min=0"`
	Notes           string  `json:"notes"`
}

// BatchTrialsRequest appends several tallies to a session in one call.
type BatchTrialsRequest struct {
	Trials []TrialCountersRequest `json:"trials" validate:"required,min=1,dive"`
}

// SessionService handles therapy session and trial recording use-cases.
type SessionService struct {
	repo       sessionRepository
	students   studentFinder
	trials     trialRepository
	soapNotes  sessionSOAPFinder
	objectives objectiveFinder
	progress   *ProgressService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(repo sessionRepository, students studentFinder, trials trialRepository, soapNotes sessionSOAPFinder, objectives objectiveFinder, progress *ProgressService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:       repo,
		students:   students,
		trials:     trials,
		soapNotes:  soapNotes,
		objectives: objectives,
		progress:   progress,
		validator:  validate,
		logger:     logger,
	}
}

// Get returns a single session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// ListByDate returns the day's sessions with student names and SOAP state.
func (s *SessionService) ListByDate(ctx context.Context, date time.Time) ([]models.SessionSummary, error) {
	sessions, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// Create schedules a new session for a student.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	date, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session date")
	}
	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = models.SessionTypeIndividual
	}
	session := &models.Session{
		StudentID:   req.StudentID,
		SessionDate: date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SessionType: sessionType,
		Location:    req.Location,
		Status:      "Scheduled",
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Update modifies an existing session.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session date")
	}
	session.SessionDate = date
	session.StartTime = req.StartTime
	session.EndTime = req.EndTime
	if req.SessionType != "" {
		session.SessionType = req.SessionType
	}
	session.Location = req.Location
	session.Status = req.Status
	session.Notes = req.Notes
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	s.progress.Invalidate(ctx)
	return session, nil
}

// Detail composes the session view: student, trials in insertion order with
// resolved objective descriptions, and the SOAP note when one exists.
func (s *SessionService) Detail(ctx context.Context, id string) (*dto.SessionDetailResponse, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, session.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	trials, err := s.trials.ListBySession(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list trials")
	}
	details := make([]dto.TrialDetail, 0, len(trials))
	for _, trial := range trials {
		detail := dto.TrialDetail{TrialRecord: trial}
		if target := trial.Target(); target.Kind == models.TargetObjective {
			objective, err := s.objectives.FindByID(ctx, target.ID)
			if err == nil {
				detail.ObjectiveDescription = objective.Description
			} else if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve objective")
			}
		}
		details = append(details, detail)
	}

	response := &dto.SessionDetailResponse{
		Session: *session,
		Student: *student,
		Trials:  details,
	}
	note, err := s.soapNotes.FindBySession(ctx, id)
	if err == nil {
		response.SOAPNote = note
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load soap note")
	}
	return response, nil
}

// RecordTrial appends one trial tally to a session.
func (s *SessionService) RecordTrial(ctx context.Context, sessionID string, req TrialCountersRequest) (*models.TrialRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trial payload")
	}
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	trial := trialFromRequest(sessionID, req)
	if err := s.trials.Create(ctx, trial); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record trial")
	}
	s.progress.Invalidate(ctx)
	return trial, nil
}

// RecordTrials appends a batch of tallies collected during a tracking run.
// The batch is not transactional; each tally stands on its own.
func (s *SessionService) RecordTrials(ctx context.Context, sessionID string, req BatchTrialsRequest) (*dto.BatchTrialsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trials payload")
	}
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	saved := 0
	for _, counters := range req.Trials {
		trial := trialFromRequest(sessionID, counters)
		if err := s.trials.Create(ctx, trial); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record trial")
		}
		saved++
	}
	s.progress.Invalidate(ctx)
	return &dto.BatchTrialsResponse{SessionID: sessionID, TrialsSaved: saved}, nil
}

// EditTrial fully overwrites an existing tally's counters and notes. Partial
// counter edits are not supported; callers send the complete set.
func (s *SessionService) EditTrial(ctx context.Context, trialID string, req TrialCountersRequest) (*models.TrialRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trial payload")
	}
	trial, err := s.trials.FindByID(ctx, trialID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trial record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trial record")
	}
	trial.Independent = req.Independent
	trial.MinimalSupport = req.MinimalSupport
	trial.ModerateSupport = req.ModerateSupport
	trial.MaximalSupport = req.MaximalSupport
	trial.Incorrect = req.Incorrect
	trial.Notes = req.Notes
	if err := s.trials.Overwrite(ctx, trial); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update trial record")
	}
	s.progress.Invalidate(ctx)
	return trial, nil
}

func trialFromRequest(sessionID string, req TrialCountersRequest) *models.TrialRecord {
	return &models.TrialRecord{
		SessionID:       sessionID,
		ObjectiveID:     req.ObjectiveID,
		GoalID:          req.GoalID,
		Independent:     req.Independent,
		MinimalSupport:  req.MinimalSupport,
		ModerateSupport: req.ModerateSupport,
		MaximalSupport:  req.MaximalSupport,
		Incorrect:       req.Incorrect,
		Notes:           req.Notes,
	}
}
