package models

// ObjectiveProgress is the pooled trailing-window progress for one
// objective. It is always a fresh value; progress is never cached on the
// Objective entity itself.
type ObjectiveProgress struct {
	Objective        Objective `json:"objective"`
	Progress         float64   `json:"progress"`
	TotalTrials      int       `json:"total_trials"`
	TotalIndependent int       `json:"total_independent"`
	RecordCount      int       `json:"record_count"`
	WindowDays       int       `json:"window_days"`
}

// GoalProgress is the mean of a goal's active objectives' progress.
type GoalProgress struct {
	Goal       Goal                `json:"goal"`
	Progress   float64             `json:"progress"`
	Objectives []ObjectiveProgress `json:"objectives"`
}

// StudentProgress rolls goal progress up for a whole caseload entry.
type StudentProgress struct {
	StudentID string         `json:"student_id"`
	Goals     []GoalProgress `json:"goals"`
}
