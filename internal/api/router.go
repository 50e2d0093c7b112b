package api

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/aristath/tasktracker/internal/execution"
	"github.com/aristath/tasktracker/internal/manager"
	"github.com/aristath/tasktracker/internal/resolver"
	"github.com/aristath/tasktracker/internal/task"
)

// handlers binds every route to the manager.
type handlers struct {
	manager *manager.Manager
}

// newRouter builds the gin engine with all middleware and routes.
func newRouter(m *manager.Manager, logger *log.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(recovery(logger))
	router.Use(requestLogger(logger))
	router.Use(cors())

	h := &handlers{manager: m}

	router.GET("/healthz", h.healthz)

	v1 := router.Group("/api/v1")
	{
		todos := v1.Group("/todos")
		{
			todos.POST("", h.createTodo)
			todos.GET("", h.listTodos)
			todos.GET("/ready", h.readyTodos)
			todos.GET("/:id", h.getTodo)
			todos.PATCH("/:id", h.updateTodo)
			todos.DELETE("/:id", h.deleteTodo)
			todos.PUT("/:id/verification/method", h.setVerificationMethod)
			todos.PUT("/:id/verification/status", h.updateVerificationStatus)
			todos.POST("/:id/transitions", h.transition)
			todos.POST("/:id/reset", h.resetFailed)
		}

		groups := v1.Group("/groups")
		{
			groups.POST("", h.createGroup)
			groups.GET("/:groupId/stats", h.groupStats)
			groups.POST("/:groupId/complete-main", h.completeMain)
		}

		v1.GET("/verification/pending", h.pendingVerification)
		v1.GET("/plan", h.executionPlan)
		v1.GET("/cycles", h.cycles)
	}

	return router
}

// httpStatus maps manager sentinel errors onto HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, task.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, manager.ErrEmptyTitle),
		errors.Is(err, manager.ErrBadSubtaskIndex),
		errors.Is(err, manager.ErrBadVerificationStatus):
		return http.StatusBadRequest
	case errors.Is(err, resolver.ErrDependencyNotFound),
		errors.Is(err, resolver.ErrCircularDependency):
		return http.StatusUnprocessableEntity
	case errors.Is(err, execution.ErrInvalidTransition),
		errors.Is(err, execution.ErrNotFailed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the envelope for err at its mapped status.
func fail(c *gin.Context, err error) {
	status := httpStatus(err)
	c.JSON(status, failure(status, err.Error()))
}

func (h *handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "status": "ok"})
}
