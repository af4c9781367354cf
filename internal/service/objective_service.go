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

type objectiveRepository interface {
	ListByGoal(ctx context.Context, goalID string) ([]models.Objective, error)
	FindByID(ctx context.Context, id string) (*models.Objective, error)
	Create(ctx context.Context, objective *models.Objective) error
	Update(ctx context.Context, objective *models.Objective) error
}

type goalFinder interface {
	FindByID(ctx context.Context, id string) (*models.Goal, error)
}

// CreateObjectiveRequest holds payload for creating objectives.
// TargetPercentage is a pointer so an explicit 0 is distinguishable from an
// omitted field.
type CreateObjectiveRequest struct {
	GoalID           string `json:"goal_id" validate:"required"`
	Description      string `json:"description" validate:"required"`
	TargetPercentage *int   `json:"target_percentage" validate:"omitempty,min=0,max=100"`
	Notes            string `json:"notes"`
}

// UpdateObjectiveRequest holds payload for updating objectives.
type UpdateObjectiveRequest struct {
	Description      string `json:"description" validate:"required"`
	TargetPercentage int    `json:"target_percentage" validate:"min=0,max=100"`
	Notes            string `json:"notes"`
	Active           bool   `json:"active"`
}

// ObjectiveService handles measurable objective use-cases.
type ObjectiveService struct {
	repo      objectiveRepository
	goals     goalFinder
	progress  *ProgressService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewObjectiveService constructs the objective service.
func NewObjectiveService(repo objectiveRepository, goals goalFinder, progress *ProgressService, validate *validator.Validate, logger *zap.Logger) *ObjectiveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectiveService{
		repo:      repo,
		goals:     goals,
		progress:  progress,
		validator: validate,
		logger:    logger,
	}
}

// ListByGoal returns a goal's active objectives with live progress.
func (s *ObjectiveService) ListByGoal(ctx context.Context, goalID string) ([]models.ObjectiveProgress, error) {
	progress, err := s.progress.GoalProgress(ctx, goalID)
	if err != nil {
		return nil, err
	}
	return progress.Objectives, nil
}

// Get returns one objective with its trailing-window progress.
func (s *ObjectiveService) Get(ctx context.Context, id string) (*models.ObjectiveProgress, error) {
	return s.progress.ObjectiveProgress(ctx, id)
}

// Create registers a new active objective under a goal.
func (s *ObjectiveService) Create(ctx context.Context, req CreateObjectiveRequest) (*models.Objective, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid objective payload")
	}
	if _, err := s.goals.FindByID(ctx, req.GoalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal")
	}
	target := defaultTargetPercent
	if req.TargetPercentage != nil {
		target = *req.TargetPercentage
	}
	objective := &models.Objective{
		GoalID:           req.GoalID,
		Description:      req.Description,
		TargetPercentage: target,
		Notes:            req.Notes,
		Active:           true,
	}
	if err := s.repo.Create(ctx, objective); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create objective")
	}
	// A new objective shifts its goal's mean right away; stale cached
	// progress must not outlive the write.
	s.progress.Invalidate(ctx)
	return objective, nil
}

// Update modifies an existing objective and invalidates cached progress.
func (s *ObjectiveService) Update(ctx context.Context, id string, req UpdateObjectiveRequest) (*models.Objective, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid objective payload")
	}
	objective, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "objective not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load objective")
	}
	objective.Description = req.Description
	objective.TargetPercentage = req.TargetPercentage
	objective.Notes = req.Notes
	objective.Active = req.Active
	if err := s.repo.Update(ctx, objective); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update objective")
	}
	s.progress.Invalidate(ctx)
	return objective, nil
}
