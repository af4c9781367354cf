package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slp-tools/caseload-api/internal/service"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
	"github.com/slp-tools/caseload-api/pkg/response"
)

// SOAPHandler exposes SOAP note endpoints.
type SOAPHandler struct {
	notes *service.SOAPService
}

// NewSOAPHandler constructs SOAPHandler.
func NewSOAPHandler(notes *service.SOAPService) *SOAPHandler {
	return &SOAPHandler{notes: notes}
}

// Get godoc
// @Summary Get the session's SOAP note, generating a draft when none is stored
// @Tags SOAP
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/soap [get]
func (h *SOAPHandler) Get(c *gin.Context) {
	note, draft, err := h.notes.GetOrDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil, map[string]interface{}{"draft": draft})
}

// Generate godoc
// @Summary Regenerate a SOAP draft from the session's trial data
// @Tags SOAP
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/soap/draft [get]
func (h *SOAPHandler) Generate(c *gin.Context) {
	note, err := h.notes.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil, map[string]interface{}{"draft": true})
}

// Save godoc
// @Summary Save a SOAP note, overwriting any existing note for the session
// @Tags SOAP
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.SaveSOAPNoteRequest true "Note payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/soap [put]
func (h *SOAPHandler) Save(c *gin.Context) {
	var req service.SaveSOAPNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.SessionID = c.Param("id")
	note, err := h.notes.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// ListByStudent godoc
// @Summary List a student's SOAP note history
// @Tags SOAP
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/soap [get]
func (h *SOAPHandler) ListByStudent(c *gin.Context) {
	notes, err := h.notes.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}
