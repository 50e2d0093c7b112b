package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aristath/tasktracker/internal/task"
)

// transition handles POST /api/v1/todos/:id/transitions.
func (h *handlers) transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err)))
		return
	}

	res, err := h.manager.TransitionExecutionState(c.Param("id"), task.ExecutionState(req.State), req.Error)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, success(transitionData{
		Task:    res.Task,
		From:    res.From,
		To:      res.To,
		Summary: res.Summary,
	}))
}

// resetFailed handles POST /api/v1/todos/:id/reset. The body is optional.
func (h *handlers) resetFailed(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err)))
		return
	}

	out, err := h.manager.ResetFailedTask(c.Param("id"), req.ResetDependents)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, success(resetData{Task: out.Task, Dependents: out.Dependents}))
}

// executionPlan handles GET /api/v1/plan: a full topological ordering of
// the population.
func (h *handlers) executionPlan(c *gin.Context) {
	order, err := h.manager.ExecutionPlan()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list(order))
}

// cycles handles GET /api/v1/cycles. A validated population reports none;
// the endpoint exists for diagnostics.
func (h *handlers) cycles(c *gin.Context) {
	c.JSON(http.StatusOK, list(h.manager.DetectCycles()))
}
