package models

import "time"

// Goal is a broad intervention target for a student. Measurable work hangs
// off its objectives; goal-level progress is the mean of objective progress.
type Goal struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	Description    string    `db:"description" json:"description"`
	TargetAccuracy int       `db:"target_accuracy" json:"target_accuracy"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Objective is a measurable sub-target under a goal.
type Objective struct {
	ID               string    `db:"id" json:"id"`
	GoalID           string    `db:"goal_id" json:"goal_id"`
	Description      string    `db:"description" json:"description"`
	TargetPercentage int       `db:"target_percentage" json:"target_percentage"`
	Notes            string    `db:"notes" json:"notes,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// GoalWithObjectives composes a goal with its objectives and live progress
// for student detail views.
type GoalWithObjectives struct {
	Goal       Goal                `json:"goal"`
	Objectives []ObjectiveProgress `json:"objectives"`
	Progress   float64             `json:"progress"`
}
