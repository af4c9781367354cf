package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
)

type objectiveReader interface {
	FindByID(ctx context.Context, id string) (*models.Objective, error)
	ListByGoal(ctx context.Context, goalID string) ([]models.Objective, error)
}

type goalReader interface {
	FindByID(ctx context.Context, id string) (*models.Goal, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Goal, error)
}

type windowedTrialLister interface {
	ListByObjectiveSince(ctx context.Context, objectiveID string, cutoff time.Time) ([]models.TrialRecord, error)
}

// ProgressServiceConfig tunes the trailing window and cache TTL.
type ProgressServiceConfig struct {
	WindowDays int
	CacheTTL   time.Duration
}

// ProgressService computes objective and goal progress from trial records
// inside a trailing calendar-date window. All results are fresh values;
// nothing is cached on the entities themselves.
type ProgressService struct {
	objectives objectiveReader
	goals      goalReader
	trials     windowedTrialLister
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
	cfg        ProgressServiceConfig
}

// ProgressServiceParams groups constructor dependencies.
type ProgressServiceParams struct {
	Objectives objectiveReader
	Goals      goalReader
	Trials     windowedTrialLister
	Cache      *CacheService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     ProgressServiceConfig
}

// NewProgressService constructs a ProgressService with sane defaults.
func NewProgressService(params ProgressServiceParams) *ProgressService {
	cfg := params.Config
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		objectives: params.Objectives,
		goals:      params.Goals,
		trials:     params.Trials,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// WindowCutoff returns the inclusive lower bound of the trailing window: a
// record belongs iff its session date >= today - WindowDays, compared on
// calendar dates.
func (s *ProgressService) WindowCutoff() time.Time {
	today := s.now().UTC().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -s.cfg.WindowDays)
}

// ObjectiveProgress computes the pooled trailing-window progress for one
// objective. A missing objective surfaces as not-found, never as zero
// progress.
func (s *ProgressService) ObjectiveProgress(ctx context.Context, objectiveID string) (*models.ObjectiveProgress, error) {
	objective, err := s.objectives.FindByID(ctx, objectiveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "objective not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load objective")
	}

	cacheKey := fmt.Sprintf("progress:objective:%s", objectiveID)
	var cached models.ObjectiveProgress
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	result, err := s.computeObjectiveProgress(ctx, *objective)
	if err != nil {
		return nil, err
	}
	s.persistCache(ctx, cacheKey, result)
	return result, nil
}

func (s *ProgressService) computeObjectiveProgress(ctx context.Context, objective models.Objective) (*models.ObjectiveProgress, error) {
	start := time.Now()
	trials, err := s.trials.ListByObjectiveSince(ctx, objective.ID, s.WindowCutoff())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trial records")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("progress_window_trials", time.Since(start))
	}

	totalIndependent := 0
	totalTrials := 0
	for _, trial := range trials {
		totalIndependent += trial.Independent
		totalTrials += trial.TotalTrials()
	}

	// Pooled ratio across the window, not an average of per-record
	// percentages: low-volume sessions must not be overweighted.
	progress := 0.0
	if totalTrials > 0 {
		progress = models.Round1(float64(totalIndependent) / float64(totalTrials) * 100)
	}

	return &models.ObjectiveProgress{
		Objective:        objective,
		Progress:         progress,
		TotalTrials:      totalTrials,
		TotalIndependent: totalIndependent,
		RecordCount:      len(trials),
		WindowDays:       s.cfg.WindowDays,
	}, nil
}

// GoalProgress computes the mean progress of a goal's active objectives.
// A goal with no active objectives reports zero progress even when legacy
// goal-targeted trial records exist; that path is deprecated.
func (s *ProgressService) GoalProgress(ctx context.Context, goalID string) (*models.GoalProgress, error) {
	goal, err := s.goals.FindByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal")
	}

	cacheKey := fmt.Sprintf("progress:goal:%s", goalID)
	var cached models.GoalProgress
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	result, err := s.computeGoalProgress(ctx, *goal)
	if err != nil {
		return nil, err
	}
	s.persistCache(ctx, cacheKey, result)
	return result, nil
}

func (s *ProgressService) computeGoalProgress(ctx context.Context, goal models.Goal) (*models.GoalProgress, error) {
	objectives, err := s.objectives.ListByGoal(ctx, goal.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load objectives")
	}

	result := &models.GoalProgress{Goal: goal, Objectives: make([]models.ObjectiveProgress, 0, len(objectives))}
	if len(objectives) == 0 {
		return result, nil
	}

	sum := 0.0
	for _, objective := range objectives {
		progress, err := s.computeObjectiveProgress(ctx, objective)
		if err != nil {
			return nil, err
		}
		result.Objectives = append(result.Objectives, *progress)
		sum += progress.Progress
	}
	result.Progress = models.Round1(sum / float64(len(objectives)))
	return result, nil
}

// StudentProgress rolls goal progress up across a student's active goals.
func (s *ProgressService) StudentProgress(ctx context.Context, studentID string) (*models.StudentProgress, error) {
	goals, err := s.goals.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goals")
	}
	result := &models.StudentProgress{StudentID: studentID, Goals: make([]models.GoalProgress, 0, len(goals))}
	for _, goal := range goals {
		progress, err := s.computeGoalProgress(ctx, goal)
		if err != nil {
			return nil, err
		}
		result.Goals = append(result.Goals, *progress)
	}
	return result, nil
}

// Invalidate drops cached progress values. Called after trial record writes.
func (s *ProgressService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "progress:*"); err != nil {
		s.logger.Warn("progress cache invalidation failed", zap.Error(err))
	}
}

func (s *ProgressService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("progress cache write failed", zap.String("key", key), zap.Error(err))
	}
}
