package dto

import "github.com/slp-tools/caseload-api/internal/models"

// SessionDetailResponse composes a session view with its student, trial
// data and SOAP note state.
type SessionDetailResponse struct {
	Session  models.Session   `json:"session"`
	Student  models.Student   `json:"student"`
	Trials   []TrialDetail    `json:"trials"`
	SOAPNote *models.SOAPNote `json:"soap_note,omitempty"`
}

// BatchTrialsResponse reports the outcome of a tracking save.
type BatchTrialsResponse struct {
	SessionID   string `json:"session_id"`
	TrialsSaved int    `json:"trials_saved"`
}
