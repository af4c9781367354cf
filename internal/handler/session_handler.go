package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slp-tools/caseload-api/internal/service"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
	"github.com/slp-tools/caseload-api/pkg/response"
)

// SessionHandler exposes therapy session and trial recording endpoints.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// ListByDate godoc
// @Summary List sessions on a calendar date
// @Tags Sessions
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) ListByDate(c *gin.Context) {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	sessions, err := h.sessions.ListByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Get godoc
// @Summary Session detail with trials and SOAP note state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	detail, err := h.sessions.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Schedule a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.UpdateSessionRequest true "Session payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	var req service.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// RecordTrial godoc
// @Summary Record one trial tally in a session
// @Tags Trials
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.TrialCountersRequest true "Trial counters"
// @Success 201 {object} response.Envelope
// @Router /sessions/{id}/trials [post]
func (h *SessionHandler) RecordTrial(c *gin.Context) {
	var req service.TrialCountersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	trial, err := h.sessions.RecordTrial(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, trial)
}

// RecordTrials godoc
// @Summary Record a batch of trial tallies from a tracking run
// @Tags Trials
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.BatchTrialsRequest true "Trial batch"
// @Success 201 {object} response.Envelope
// @Router /sessions/{id}/trials/batch [post]
func (h *SessionHandler) RecordTrials(c *gin.Context) {
	var req service.BatchTrialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.sessions.RecordTrials(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// EditTrial godoc
// @Summary Overwrite a trial tally's counters
// @Tags Trials
// @Accept json
// @Produce json
// @Param id path string true "Trial record ID"
// @Param payload body service.TrialCountersRequest true "Trial counters"
// @Success 200 {object} response.Envelope
// @Router /trials/{id} [put]
func (h *SessionHandler) EditTrial(c *gin.Context) {
	var req service.TrialCountersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	trial, err := h.sessions.EditTrial(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trial, nil)
}
