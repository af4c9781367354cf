package models

import "time"

// Student represents a learner on the practitioner's caseload.
type Student struct {
	ID            string    `db:"id" json:"id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	PreferredName string    `db:"preferred_name" json:"preferred_name,omitempty"`
	Pronouns      string    `db:"pronouns" json:"pronouns,omitempty"`
	GradeLevel    string    `db:"grade_level" json:"grade_level,omitempty"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName prefers the student's chosen name when one is set.
func (s Student) DisplayName() string {
	if s.PreferredName != "" {
		return s.PreferredName + " " + s.LastName
	}
	return s.FirstName + " " + s.LastName
}

// FullName returns the legal first and last name.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
