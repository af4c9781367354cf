package dto

import "github.com/slp-tools/caseload-api/internal/models"

// DashboardStats aggregates caseload-wide counters.
type DashboardStats struct {
	TotalStudents    int `json:"total_students"`
	SessionsThisWeek int `json:"sessions_this_week"`
	PendingSOAPNotes int `json:"pending_soap_notes"`
	UpcomingSessions int `json:"upcoming_sessions"`
}

// DashboardResponse is the practitioner's landing-page payload.
type DashboardResponse struct {
	Stats            DashboardStats          `json:"stats"`
	RecentSessions   []models.SessionSummary `json:"recent_sessions"`
	PendingSOAPNotes []models.SessionSummary `json:"pending_soap_notes"`
	UpcomingSessions []models.SessionSummary `json:"upcoming_sessions"`
}
