package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/slp-tools/caseload-api/internal/models"
)

// TrialRepository manages persistence for per-session trial tallies.
type TrialRepository struct {
	db *sqlx.DB
}

// NewTrialRepository constructs a new repository.
func NewTrialRepository(db *sqlx.DB) *TrialRepository {
	return &TrialRepository{db: db}
}

const trialColumns = `tr.id, tr.session_id, tr.objective_id, tr.goal_id, tr.independent, tr.minimal_support, tr.moderate_support, tr.maximal_support, tr.incorrect, tr.notes, tr.created_at`

// FindByID returns a single trial record.
func (r *TrialRepository) FindByID(ctx context.Context, id string) (*models.TrialRecord, error) {
	var trial models.TrialRecord
	query := `SELECT id, session_id, objective_id, goal_id, independent, minimal_support, moderate_support, maximal_support, incorrect, notes, created_at
FROM trial_records WHERE id = $1`
	if err := r.db.GetContext(ctx, &trial, query, id); err != nil {
		return nil, err
	}
	return &trial, nil
}

// Create inserts a new trial record.
func (r *TrialRepository) Create(ctx context.Context, trial *models.TrialRecord) error {
	if trial.ID == "" {
		trial.ID = uuid.NewString()
	}
	if trial.CreatedAt.IsZero() {
		trial.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO trial_records (id, session_id, objective_id, goal_id, independent, minimal_support, moderate_support, maximal_support, incorrect, notes, created_at)
VALUES (:id, :session_id, :objective_id, :goal_id, :independent, :minimal_support, :moderate_support, :maximal_support, :incorrect, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, trial); err != nil {
		return fmt.Errorf("create trial record: %w", err)
	}
	return nil
}

// Overwrite replaces the five counters and notes of an existing record. The
// edit is a full overwrite, never incremental.
func (r *TrialRepository) Overwrite(ctx context.Context, trial *models.TrialRecord) error {
	query := `UPDATE trial_records SET independent = :independent, minimal_support = :minimal_support,
moderate_support = :moderate_support, maximal_support = :maximal_support, incorrect = :incorrect, notes = :notes
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, trial); err != nil {
		return fmt.Errorf("overwrite trial record: %w", err)
	}
	return nil
}

// ListBySession returns a session's trial records in insertion order.
func (r *TrialRepository) ListBySession(ctx context.Context, sessionID string) ([]models.TrialRecord, error) {
	var trials []models.TrialRecord
	query := `SELECT id, session_id, objective_id, goal_id, independent, minimal_support, moderate_support, maximal_support, incorrect, notes, created_at
FROM trial_records WHERE session_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &trials, query, sessionID); err != nil {
		return nil, fmt.Errorf("list trial records by session: %w", err)
	}
	return trials, nil
}

// ListByObjectiveSince returns an objective's trial records whose owning
// session date falls on or after the cutoff date. The calendar-date filter
// is applied here so progress pooling stays a pure computation.
func (r *TrialRepository) ListByObjectiveSince(ctx context.Context, objectiveID string, cutoff time.Time) ([]models.TrialRecord, error) {
	var trials []models.TrialRecord
	query := fmt.Sprintf(`SELECT %s
FROM trial_records tr
JOIN sessions s ON tr.session_id = s.id
WHERE tr.objective_id = $1 AND s.session_date >= $2
ORDER BY s.session_date, tr.created_at`, trialColumns)
	if err := r.db.SelectContext(ctx, &trials, query, objectiveID, cutoff); err != nil {
		return nil, fmt.Errorf("list trial records by objective since: %w", err)
	}
	return trials, nil
}

// ListByObjective returns an objective's trial records, newest session first.
func (r *TrialRepository) ListByObjective(ctx context.Context, objectiveID string, limit int) ([]models.TrialRecord, error) {
	query := fmt.Sprintf(`SELECT %s
FROM trial_records tr
JOIN sessions s ON tr.session_id = s.id
WHERE tr.objective_id = $1
ORDER BY s.session_date DESC, tr.created_at DESC`, trialColumns)
	args := []interface{}{objectiveID}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	var trials []models.TrialRecord
	if err := r.db.SelectContext(ctx, &trials, query, args...); err != nil {
		return nil, fmt.Errorf("list trial records by objective: %w", err)
	}
	return trials, nil
}

// ListRecentByStudent returns a student's latest trial records across
// sessions.
func (r *TrialRepository) ListRecentByStudent(ctx context.Context, studentID string, limit int) ([]models.TrialRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s
FROM trial_records tr
JOIN sessions s ON tr.session_id = s.id
WHERE s.student_id = $1
ORDER BY s.session_date DESC, tr.created_at DESC LIMIT %d`, trialColumns, limit)
	var trials []models.TrialRecord
	if err := r.db.SelectContext(ctx, &trials, query, studentID); err != nil {
		return nil, fmt.Errorf("list recent trial records by student: %w", err)
	}
	return trials, nil
}
