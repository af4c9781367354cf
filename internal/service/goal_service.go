package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
)

type goalRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Goal, error)
	FindByID(ctx context.Context, id string) (*models.Goal, error)
	Create(ctx context.Context, goal *models.Goal) error
	Update(ctx context.Context, goal *models.Goal) error
	Delete(ctx context.Context, id string) error
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// defaultTargetPercent is the accuracy target applied when a goal or
// objective is created without an explicit one.
const defaultTargetPercent = 80

// CreateGoalRequest holds payload for creating goals. TargetAccuracy is a
// pointer so an explicit 0 is distinguishable from an omitted field.
type CreateGoalRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	Description    string `json:"description" validate:"required"`
	TargetAccuracy *int   `json:"target_accuracy" validate:"omitempty,min=0,max=100"`
}

// UpdateGoalRequest holds payload for updating goals.
type UpdateGoalRequest struct {
	Description    string `json:"description" validate:"required"`
	TargetAccuracy int    `json:"target_accuracy" validate:"min=0,max=100"`
	Active         bool   `json:"active"`
}

// GoalService handles intervention goal use-cases.
type GoalService struct {
	repo      goalRepository
	students  studentFinder
	progress  *ProgressService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGoalService constructs the goal service.
func NewGoalService(repo goalRepository, students studentFinder, progress *ProgressService, validate *validator.Validate, logger *zap.Logger) *GoalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoalService{
		repo:      repo,
		students:  students,
		progress:  progress,
		validator: validate,
		logger:    logger,
	}
}

// ListByStudent returns the student's active goals with live progress.
func (s *GoalService) ListByStudent(ctx context.Context, studentID string) ([]models.GoalProgress, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	progress, err := s.progress.StudentProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return progress.Goals, nil
}

// Get returns one goal with its progress rollup.
func (s *GoalService) Get(ctx context.Context, id string) (*models.GoalProgress, error) {
	return s.progress.GoalProgress(ctx, id)
}

// Create registers a new active goal for a student.
func (s *GoalService) Create(ctx context.Context, req CreateGoalRequest) (*models.Goal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	target := defaultTargetPercent
	if req.TargetAccuracy != nil {
		target = *req.TargetAccuracy
	}
	goal := &models.Goal{
		StudentID:      req.StudentID,
		Description:    req.Description,
		TargetAccuracy: target,
		Active:         true,
	}
	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create goal")
	}
	s.progress.Invalidate(ctx)
	return goal, nil
}

// Update modifies an existing goal and invalidates cached progress.
func (s *GoalService) Update(ctx context.Context, id string, req UpdateGoalRequest) (*models.Goal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	goal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal")
	}
	goal.Description = req.Description
	goal.TargetAccuracy = req.TargetAccuracy
	goal.Active = req.Active
	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update goal")
	}
	s.progress.Invalidate(ctx)
	return goal, nil
}

// Delete removes a goal together with its objectives and their trial
// records.
func (s *GoalService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete goal")
	}
	s.progress.Invalidate(ctx)
	return nil
}
