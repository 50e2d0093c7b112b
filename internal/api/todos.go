package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aristath/tasktracker/internal/manager"
)

// createTodo handles POST /api/v1/todos.
func (h *handlers) createTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err)))
		return
	}

	created, err := h.manager.CreateTodo(manager.CreateRequest{
		Title:              req.Title,
		Description:        req.Description,
		Tags:               req.Tags,
		GroupID:            req.GroupID,
		Dependencies:       req.Dependencies,
		ExecutionOrder:     req.ExecutionOrder,
		ExecutionConfig:    req.ExecutionConfig,
		VerificationMethod: req.VerificationMethod,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, success(created))
}

// listTodos handles GET /api/v1/todos with an optional ?completed= filter.
func (h *handlers) listTodos(c *gin.Context) {
	var completed *bool
	if raw := c.Query("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, fmt.Sprintf("invalid completed filter %q", raw)))
			return
		}
		completed = &v
	}

	c.JSON(http.StatusOK, list(h.manager.ListTodos(completed)))
}

// readyTodos handles GET /api/v1/todos/ready with an optional ?groupId=.
func (h *handlers) readyTodos(c *gin.Context) {
	c.JSON(http.StatusOK, list(h.manager.ReadyTasks(c.Query("groupId"))))
}

// getTodo handles GET /api/v1/todos/:id.
func (h *handlers) getTodo(c *gin.Context) {
	id := c.Param("id")
	t, ok := h.manager.Task(id)
	if !ok {
		c.JSON(http.StatusNotFound, failure(http.StatusNotFound, fmt.Sprintf("task not found: %q", id)))
		return
	}
	c.JSON(http.StatusOK, success(t))
}

// updateTodo handles PATCH /api/v1/todos/:id.
func (h *handlers) updateTodo(c *gin.Context) {
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err)))
		return
	}

	updated, err := h.manager.UpdateTodo(manager.UpdateRequest{
		ID:              c.Param("id"),
		Title:           req.Title,
		Completed:       req.Completed,
		Description:     req.Description,
		Tags:            req.Tags,
		GroupID:         req.GroupID,
		Dependencies:    req.Dependencies,
		ExecutionOrder:  req.ExecutionOrder,
		ExecutionConfig: req.ExecutionConfig,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, success(updated))
}

// deleteTodo handles DELETE /api/v1/todos/:id.
func (h *handlers) deleteTodo(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.DeleteTodo(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success(deletedData{ID: id}))
}
