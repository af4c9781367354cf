package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/slp-tools/caseload-api/internal/models"
)

// SessionRepository manages persistence for therapy sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a new repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `s.id, s.student_id, s.session_date, s.start_time, s.end_time, s.session_type, s.location, s.status, s.notes, s.created_at`

const sessionSummaryColumns = sessionColumns + `,
CASE WHEN st.preferred_name <> '' THEN st.preferred_name || ' ' || st.last_name ELSE st.first_name || ' ' || st.last_name END AS student_name,
(sn.id IS NOT NULL) AS has_soap_note`

// FindByID returns a single session.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	query := `SELECT id, student_id, session_date, start_time, end_time, session_type, location, status, notes, created_at
FROM sessions WHERE id = $1`
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO sessions (id, student_id, session_date, start_time, end_time, session_type, location, status, notes, created_at)
VALUES (:id, :student_id, :session_date, :start_time, :end_time, :session_type, :location, :status, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update modifies a session's scheduling fields and notes.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	query := `UPDATE sessions SET session_date = :session_date, start_time = :start_time, end_time = :end_time,
session_type = :session_type, location = :location, status = :status, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// ListByStudent returns a student's sessions, newest first.
func (r *SessionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Session, error) {
	var sessions []models.Session
	query := `SELECT id, student_id, session_date, start_time, end_time, session_type, location, status, notes, created_at
FROM sessions WHERE student_id = $1 ORDER BY session_date DESC, created_at DESC`
	if err := r.db.SelectContext(ctx, &sessions, query, studentID); err != nil {
		return nil, fmt.Errorf("list sessions by student: %w", err)
	}
	return sessions, nil
}

// ListRecent returns the most recent sessions enriched with student name and
// SOAP note state.
func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var sessions []models.SessionSummary
	query := fmt.Sprintf(`SELECT %s
FROM sessions s
JOIN students st ON s.student_id = st.id
LEFT JOIN soap_notes sn ON s.id = sn.session_id
ORDER BY s.session_date DESC, s.created_at DESC LIMIT %d`, sessionSummaryColumns, limit)
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return sessions, nil
}

// ListByDate returns sessions on a calendar date with student info.
func (r *SessionRepository) ListByDate(ctx context.Context, date time.Time) ([]models.SessionSummary, error) {
	var sessions []models.SessionSummary
	query := fmt.Sprintf(`SELECT %s
FROM sessions s
JOIN students st ON s.student_id = st.id
LEFT JOIN soap_notes sn ON s.id = sn.session_id
WHERE s.session_date = $1
ORDER BY s.start_time, s.created_at`, sessionSummaryColumns)
	if err := r.db.SelectContext(ctx, &sessions, query, date); err != nil {
		return nil, fmt.Errorf("list sessions by date: %w", err)
	}
	return sessions, nil
}

// ListBetweenDates returns sessions scheduled within the inclusive range.
func (r *SessionRepository) ListBetweenDates(ctx context.Context, from, to time.Time) ([]models.SessionSummary, error) {
	var sessions []models.SessionSummary
	query := fmt.Sprintf(`SELECT %s
FROM sessions s
JOIN students st ON s.student_id = st.id
LEFT JOIN soap_notes sn ON s.id = sn.session_id
WHERE s.session_date BETWEEN $1 AND $2
ORDER BY s.session_date, s.start_time`, sessionSummaryColumns)
	if err := r.db.SelectContext(ctx, &sessions, query, from, to); err != nil {
		return nil, fmt.Errorf("list sessions between dates: %w", err)
	}
	return sessions, nil
}

// ListPendingSOAP returns completed sessions that have no SOAP note yet.
func (r *SessionRepository) ListPendingSOAP(ctx context.Context) ([]models.SessionSummary, error) {
	query := fmt.Sprintf(`SELECT %s
FROM sessions s
JOIN students st ON s.student_id = st.id
LEFT JOIN soap_notes sn ON s.id = sn.session_id
WHERE sn.id IS NULL AND s.status = $1
ORDER BY s.session_date DESC`, sessionSummaryColumns)
	var sessions []models.SessionSummary
	if err := r.db.SelectContext(ctx, &sessions, query, models.SessionStatusCompleted); err != nil {
		return nil, fmt.Errorf("list pending soap sessions: %w", err)
	}
	return sessions, nil
}

// CountBetweenDates counts sessions in the inclusive calendar range.
func (r *SessionRepository) CountBetweenDates(ctx context.Context, from, to time.Time) (int, error) {
	var total int
	query := "SELECT COUNT(*) FROM sessions WHERE session_date BETWEEN $1 AND $2"
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("count sessions between dates: %w", err)
	}
	return total, nil
}
