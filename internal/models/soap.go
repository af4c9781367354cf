package models

import "time"

// SOAPNote is the Subjective/Objective/Assessment/Plan documentation for one
// session. At most one note exists per session.
type SOAPNote struct {
	ID         string    `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	Subjective string    `db:"subjective" json:"subjective"`
	Objective  string    `db:"objective" json:"objective"`
	Assessment string    `db:"assessment" json:"assessment"`
	Plan       string    `db:"plan" json:"plan"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SOAPNoteWithSession pairs a note with its session date for student
// history views.
type SOAPNoteWithSession struct {
	SOAPNote
	SessionDate time.Time `db:"session_date" json:"session_date"`
}
