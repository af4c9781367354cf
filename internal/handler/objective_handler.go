package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slp-tools/caseload-api/internal/service"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
	"github.com/slp-tools/caseload-api/pkg/response"
)

// ObjectiveHandler exposes objective and progress endpoints.
type ObjectiveHandler struct {
	objectives *service.ObjectiveService
}

// NewObjectiveHandler constructs ObjectiveHandler.
func NewObjectiveHandler(objectives *service.ObjectiveService) *ObjectiveHandler {
	return &ObjectiveHandler{objectives: objectives}
}

// ListByGoal godoc
// @Summary List a goal's active objectives with live progress
// @Tags Objectives
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} response.Envelope
// @Router /goals/{id}/objectives [get]
func (h *ObjectiveHandler) ListByGoal(c *gin.Context) {
	objectives, err := h.objectives.ListByGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, objectives, nil)
}

// Progress godoc
// @Summary Trailing-window progress for one objective
// @Tags Objectives
// @Produce json
// @Param id path string true "Objective ID"
// @Success 200 {object} response.Envelope
// @Router /objectives/{id}/progress [get]
func (h *ObjectiveHandler) Progress(c *gin.Context) {
	progress, err := h.objectives.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Create godoc
// @Summary Create an objective under a goal
// @Tags Objectives
// @Accept json
// @Produce json
// @Param payload body service.CreateObjectiveRequest true "Objective payload"
// @Success 201 {object} response.Envelope
// @Router /objectives [post]
func (h *ObjectiveHandler) Create(c *gin.Context) {
	var req service.CreateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	objective, err := h.objectives.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, objective)
}

// Update godoc
// @Summary Update an objective
// @Tags Objectives
// @Accept json
// @Produce json
// @Param id path string true "Objective ID"
// @Param payload body service.UpdateObjectiveRequest true "Objective payload"
// @Success 200 {object} response.Envelope
// @Router /objectives/{id} [put]
func (h *ObjectiveHandler) Update(c *gin.Context) {
	var req service.UpdateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	objective, err := h.objectives.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, objective, nil)
}
