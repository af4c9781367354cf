package dto

import "github.com/slp-tools/caseload-api/internal/models"

// TrialDetail pairs a trial record with its resolved objective description
// for display. The description is carried alongside the record, never
// attached to it.
type TrialDetail struct {
	models.TrialRecord
	ObjectiveDescription string `json:"objective_description,omitempty"`
}

// StudentDetailResponse composes everything the student view needs.
type StudentDetailResponse struct {
	Student      models.Student               `json:"student"`
	Sessions     []models.Session             `json:"sessions"`
	Goals        []models.GoalProgress        `json:"goals"`
	RecentTrials []TrialDetail                `json:"recent_trials"`
	SOAPNotes    []models.SOAPNoteWithSession `json:"soap_notes"`
}
