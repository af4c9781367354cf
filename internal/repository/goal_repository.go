package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/slp-tools/caseload-api/internal/models"
)

// GoalRepository manages persistence for intervention goals.
type GoalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository constructs a new repository.
func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// ListByStudent returns a student's active goals.
func (r *GoalRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Goal, error) {
	var goals []models.Goal
	query := `SELECT id, student_id, description, target_accuracy, active, created_at
FROM goals WHERE student_id = $1 AND active = true ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &goals, query, studentID); err != nil {
		return nil, fmt.Errorf("list goals by student: %w", err)
	}
	return goals, nil
}

// FindByID returns a single goal.
func (r *GoalRepository) FindByID(ctx context.Context, id string) (*models.Goal, error) {
	var goal models.Goal
	query := `SELECT id, student_id, description, target_accuracy, active, created_at FROM goals WHERE id = $1`
	if err := r.db.GetContext(ctx, &goal, query, id); err != nil {
		return nil, err
	}
	return &goal, nil
}

// Create inserts a new goal.
func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO goals (id, student_id, description, target_accuracy, active, created_at)
VALUES (:id, :student_id, :description, :target_accuracy, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// Update modifies a goal's description, target and active flag.
func (r *GoalRepository) Update(ctx context.Context, goal *models.Goal) error {
	query := `UPDATE goals SET description = :description, target_accuracy = :target_accuracy, active = :active
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// Delete removes a goal with its objectives and their trial records. The
// goal owns its objectives, so the delete cascades through the hierarchy.
func (r *GoalRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin goal delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM trial_records
WHERE objective_id IN (SELECT id FROM objectives WHERE goal_id = $1)`, id); err != nil {
		return fmt.Errorf("delete objective trial records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM objectives WHERE goal_id = $1", id); err != nil {
		return fmt.Errorf("delete objectives: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM goals WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit goal delete: %w", err)
	}
	return nil
}
