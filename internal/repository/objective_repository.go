package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/slp-tools/caseload-api/internal/models"
)

// ObjectiveRepository manages persistence for measurable objectives.
type ObjectiveRepository struct {
	db *sqlx.DB
}

// NewObjectiveRepository constructs a new repository.
func NewObjectiveRepository(db *sqlx.DB) *ObjectiveRepository {
	return &ObjectiveRepository{db: db}
}

// ListByGoal returns a goal's active objectives in creation order.
func (r *ObjectiveRepository) ListByGoal(ctx context.Context, goalID string) ([]models.Objective, error) {
	var objectives []models.Objective
	query := `SELECT id, goal_id, description, target_percentage, notes, active, created_at
FROM objectives WHERE goal_id = $1 AND active = true ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &objectives, query, goalID); err != nil {
		return nil, fmt.Errorf("list objectives by goal: %w", err)
	}
	return objectives, nil
}

// ListByStudent returns all active objectives across a student's active goals.
func (r *ObjectiveRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Objective, error) {
	var objectives []models.Objective
	query := `SELECT o.id, o.goal_id, o.description, o.target_percentage, o.notes, o.active, o.created_at
FROM objectives o
JOIN goals g ON o.goal_id = g.id
WHERE g.student_id = $1 AND o.active = true AND g.active = true
ORDER BY g.created_at, o.created_at`
	if err := r.db.SelectContext(ctx, &objectives, query, studentID); err != nil {
		return nil, fmt.Errorf("list objectives by student: %w", err)
	}
	return objectives, nil
}

// FindByID returns a single objective.
func (r *ObjectiveRepository) FindByID(ctx context.Context, id string) (*models.Objective, error) {
	var objective models.Objective
	query := `SELECT id, goal_id, description, target_percentage, notes, active, created_at FROM objectives WHERE id = $1`
	if err := r.db.GetContext(ctx, &objective, query, id); err != nil {
		return nil, err
	}
	return &objective, nil
}

// Create inserts a new objective.
func (r *ObjectiveRepository) Create(ctx context.Context, objective *models.Objective) error {
	if objective.ID == "" {
		objective.ID = uuid.NewString()
	}
	if objective.CreatedAt.IsZero() {
		objective.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO objectives (id, goal_id, description, target_percentage, notes, active, created_at)
VALUES (:id, :goal_id, :description, :target_percentage, :notes, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, objective); err != nil {
		return fmt.Errorf("create objective: %w", err)
	}
	return nil
}

// Update modifies an objective's description, target, notes and active flag.
func (r *ObjectiveRepository) Update(ctx context.Context, objective *models.Objective) error {
	query := `UPDATE objectives SET description = :description, target_percentage = :target_percentage,
notes = :notes, active = :active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, objective); err != nil {
		return fmt.Errorf("update objective: %w", err)
	}
	return nil
}
