package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slp-tools/caseload-api/internal/service"
	appErrors "github.com/slp-tools/caseload-api/pkg/errors"
	"github.com/slp-tools/caseload-api/pkg/response"
)

// GoalHandler exposes goal endpoints.
type GoalHandler struct {
	goals *service.GoalService
}

// NewGoalHandler constructs GoalHandler.
func NewGoalHandler(goals *service.GoalService) *GoalHandler {
	return &GoalHandler{goals: goals}
}

// ListByStudent godoc
// @Summary List a student's active goals with live progress
// @Tags Goals
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/goals [get]
func (h *GoalHandler) ListByStudent(c *gin.Context) {
	goals, err := h.goals.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goals, nil)
}

// Get godoc
// @Summary Get one goal with its progress rollup
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} response.Envelope
// @Router /goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	goal, err := h.goals.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal, nil)
}

// Create godoc
// @Summary Create a goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param payload body service.CreateGoalRequest true "Goal payload"
// @Success 201 {object} response.Envelope
// @Router /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	var req service.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	goal, err := h.goals.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, goal)
}

// Update godoc
// @Summary Update a goal
// @Tags Goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body service.UpdateGoalRequest true "Goal payload"
// @Success 200 {object} response.Envelope
// @Router /goals/{id} [put]
func (h *GoalHandler) Update(c *gin.Context) {
	var req service.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	goal, err := h.goals.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, goal, nil)
}

// Delete godoc
// @Summary Delete a goal and its objectives and trial data
// @Tags Goals
// @Param id path string true "Goal ID"
// @Success 204
// @Router /goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	if err := h.goals.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
