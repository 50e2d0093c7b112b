package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aristath/tasktracker/internal/manager"
)

// createGroup handles POST /api/v1/groups: atomic creation of a main task
// plus its subtasks.
func (h *handlers) createGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err)))
		return
	}

	subtasks := make([]manager.GroupTaskSpec, 0, len(req.Subtasks))
	for _, st := range req.Subtasks {
		subtasks = append(subtasks, groupSpec(st))
	}

	res, err := h.manager.CreateTaskGroup(manager.GroupRequest{
		GroupID:  req.GroupID,
		Main:     groupSpec(req.Main),
		Subtasks: subtasks,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, success(res))
}

func groupSpec(req groupTaskRequest) manager.GroupTaskSpec {
	return manager.GroupTaskSpec{
		Title:              req.Title,
		Description:        req.Description,
		Tags:               req.Tags,
		Dependencies:       req.Dependencies,
		ExecutionConfig:    req.ExecutionConfig,
		VerificationMethod: req.VerificationMethod,
	}
}

// groupStats handles GET /api/v1/groups/:groupId/stats.
func (h *handlers) groupStats(c *gin.Context) {
	c.JSON(http.StatusOK, success(h.manager.GroupExecutionStats(c.Param("groupId"))))
}

// completeMain handles POST /api/v1/groups/:groupId/complete-main: the
// auto-completion cascade for the group's main task.
func (h *handlers) completeMain(c *gin.Context) {
	res, err := h.manager.CompleteMainTask(c.Param("groupId"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, success(completionData{
		Completed:       res.Completed,
		AlreadyComplete: res.AlreadyComplete,
		Reason:          res.Reason,
		Main:            res.Main,
	}))
}
