package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/slp-tools/caseload-api/internal/models"
)

// SOAPRepository manages persistence for SOAP notes.
type SOAPRepository struct {
	db *sqlx.DB
}

// NewSOAPRepository constructs a new repository.
func NewSOAPRepository(db *sqlx.DB) *SOAPRepository {
	return &SOAPRepository{db: db}
}

// FindBySession returns the note attached to a session, if any.
func (r *SOAPRepository) FindBySession(ctx context.Context, sessionID string) (*models.SOAPNote, error) {
	var note models.SOAPNote
	query := `SELECT id, session_id, subjective, objective, assessment, plan, created_at, updated_at
FROM soap_notes WHERE session_id = $1`
	if err := r.db.GetContext(ctx, &note, query, sessionID); err != nil {
		return nil, err
	}
	return &note, nil
}

// Upsert stores the note keyed on its session. A session carries at most
// one note; a second save overwrites the four text fields in place.
func (r *SOAPRepository) Upsert(ctx context.Context, note *models.SOAPNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	query := `INSERT INTO soap_notes (id, session_id, subjective, objective, assessment, plan, created_at, updated_at)
VALUES (:id, :session_id, :subjective, :objective, :assessment, :plan, :created_at, :updated_at)
ON CONFLICT (session_id) DO UPDATE SET subjective = EXCLUDED.subjective, objective = EXCLUDED.objective,
assessment = EXCLUDED.assessment, plan = EXCLUDED.plan, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("upsert soap note: %w", err)
	}
	return nil
}

// ListByStudent returns a student's notes newest session first, enriched
// with the session date.
func (r *SOAPRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SOAPNoteWithSession, error) {
	var notes []models.SOAPNoteWithSession
	query := `SELECT sn.id, sn.session_id, sn.subjective, sn.objective, sn.assessment, sn.plan, sn.created_at, sn.updated_at, s.session_date
FROM soap_notes sn
JOIN sessions s ON sn.session_id = s.id
WHERE s.student_id = $1
ORDER BY s.session_date DESC`
	if err := r.db.SelectContext(ctx, &notes, query, studentID); err != nil {
		return nil, fmt.Errorf("list soap notes by student: %w", err)
	}
	return notes, nil
}

// CountPending counts completed sessions without a note.
func (r *SOAPRepository) CountPending(ctx context.Context) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM sessions s
LEFT JOIN soap_notes sn ON s.id = sn.session_id
WHERE sn.id IS NULL AND s.status = $1`
	if err := r.db.GetContext(ctx, &total, query, models.SessionStatusCompleted); err != nil {
		return 0, fmt.Errorf("count pending soap notes: %w", err)
	}
	return total, nil
}
