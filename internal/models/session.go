package models

import "time"

// Session types recognised by the scheduler views.
const (
	SessionTypeIndividual = "Individual"
	SessionTypeGroup      = "Group"
)

// SessionStatusCompleted marks sessions eligible for SOAP documentation.
const SessionStatusCompleted = "Completed"

// Session is one therapy meeting with a student. SessionDate is a calendar
// date; the time-of-day fields are optional display strings.
type Session struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	SessionDate time.Time `db:"session_date" json:"session_date"`
	StartTime   *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime     *string   `db:"end_time" json:"end_time,omitempty"`
	SessionType string    `db:"session_type" json:"session_type"`
	Location    string    `db:"location" json:"location,omitempty"`
	Status      string    `db:"status" json:"status"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SessionSummary carries the session plus join extras (student name, SOAP
// state) as an explicit companion struct rather than dynamically attached
// fields.
type SessionSummary struct {
	Session
	StudentName string `db:"student_name" json:"student_name"`
	HasSOAPNote bool   `db:"has_soap_note" json:"has_soap_note"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	StudentID string
	Date      *time.Time
	Limit     int
}
