package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/slp-tools/caseload-api/internal/dto"
	"github.com/slp-tools/caseload-api/internal/models"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
)

type activeStudentCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type dashboardSessionRepository interface {
	ListRecent(ctx context.Context, limit int) ([]models.SessionSummary, error)
	ListBetweenDates(ctx context.Context, from, to time.Time) ([]models.SessionSummary, error)
	ListPendingSOAP(ctx context.Context) ([]models.SessionSummary, error)
	CountBetweenDates(ctx context.Context, from, to time.Time) (int, error)
}

const dashboardCacheKey = "dash:overview"

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL     time.Duration
	RecentLimit  int
	UpcomingDays int
}

// DashboardService composes the practitioner's landing-page payload.
type DashboardService struct {
	students activeStudentCounter
	sessions dashboardSessionRepository
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cfg      DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students activeStudentCounter
	Sessions dashboardSessionRepository
	Cache    *CacheService
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.UpcomingDays <= 0 {
		cfg.UpcomingDays = 7
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students: params.Students,
		sessions: params.Sessions,
		cache:    params.Cache,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg,
	}
}

// Overview returns the dashboard payload and indicates cache utilisation.
func (s *DashboardService) Overview(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	if overview, hit, err := s.tryCache(ctx); err != nil {
		return nil, false, err
	} else if hit {
		return overview, true, nil
	}

	overview, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, overview)
	return overview, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardResponse, error) {
	totalStudents, err := s.students.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	today := s.today()
	weekStart, weekEnd := weekBounds(today)
	sessionsThisWeek, err := s.sessions.CountBetweenDates(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions")
	}

	recent, err := s.sessions.ListRecent(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent sessions")
	}

	pending, err := s.sessions.ListPendingSOAP(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending notes")
	}

	upcoming, err := s.sessions.ListBetweenDates(ctx, today, today.AddDate(0, 0, s.cfg.UpcomingDays))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming sessions")
	}

	return &dto.DashboardResponse{
		Stats: dto.DashboardStats{
			TotalStudents:    totalStudents,
			SessionsThisWeek: sessionsThisWeek,
			PendingSOAPNotes: len(pending),
			UpcomingSessions: len(upcoming),
		},
		RecentSessions:   recent,
		PendingSOAPNotes: pending,
		UpcomingSessions: upcoming,
	}, nil
}

func (s *DashboardService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// weekBounds returns the Monday-to-Sunday span containing day.
func weekBounds(day time.Time) (time.Time, time.Time) {
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

func (s *DashboardService) tryCache(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached dto.DashboardResponse
	hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *DashboardService) persistCache(ctx context.Context, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", dashboardCacheKey), zap.Error(err))
	}
}
