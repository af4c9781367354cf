package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slp-tools/caseload-api/internal/dto"
	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

type studentSessionLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Session, error)
}

type studentTrialLister interface {
	ListRecentByStudent(ctx context.Context, studentID string, limit int) ([]models.TrialRecord, error)
}

type studentSOAPLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.SOAPNoteWithSession, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	PreferredName string `json:"preferred_name"`
	Pronouns      string `json:"pronouns"`
	GradeLevel    string `json:"grade_level"`
	Notes         string `json:"notes"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	PreferredName string `json:"preferred_name"`
	Pronouns      string `json:"pronouns"`
	GradeLevel    string `json:"grade_level"`
	Notes         string `json:"notes"`
	Active        bool   `json:"active"`
}

// StudentService handles caseload student use-cases.
type StudentService struct {
	repo       studentRepository
	sessions   studentSessionLister
	trials     studentTrialLister
	soapNotes  studentSOAPLister
	objectives objectiveFinder
	progress   *ProgressService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, sessions studentSessionLister, trials studentTrialLister, soapNotes studentSOAPLister, objectives objectiveFinder, progress *ProgressService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:       repo,
		sessions:   sessions,
		trials:     trials,
		soapNotes:  soapNotes,
		objectives: objectives,
		progress:   progress,
		validator:  validate,
		logger:     logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new active student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		PreferredName: req.PreferredName,
		Pronouns:      req.Pronouns,
		GradeLevel:    req.GradeLevel,
		Notes:         req.Notes,
		Active:        true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.PreferredName = req.PreferredName
	student.Pronouns = req.Pronouns
	student.GradeLevel = req.GradeLevel
	student.Notes = req.Notes
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Detail composes the full student view: sessions, goals with live
// progress, recent trials with resolved objective descriptions, and SOAP
// history.
func (s *StudentService) Detail(ctx context.Context, id string) (*dto.StudentDetailResponse, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}

	progress, err := s.progress.StudentProgress(ctx, id)
	if err != nil {
		return nil, err
	}

	trials, err := s.trials.ListRecentByStudent(ctx, id, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent trials")
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

	notes, err := s.soapNotes.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list soap notes")
	}

	return &dto.StudentDetailResponse{
		Student:      *student,
		Sessions:     sessions,
		Goals:        progress.Goals,
		RecentTrials: details,
		SOAPNotes:    notes,
	}, nil
}
