package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// setVerificationMethod handles PUT /api/v1/todos/:id/verification/method.
func (h *handlers) setVerificationMethod(c *gin.Context) {
	var req verificationMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err)))
		return
	}

	updated, err := h.manager.SetVerificationMethod(c.Param("id"), req.Method)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success(updated))
}

// updateVerificationStatus handles PUT /api/v1/todos/:id/verification/status.
func (h *handlers) updateVerificationStatus(c *gin.Context) {
	var req verificationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err)))
		return
	}

	updated, err := h.manager.UpdateVerificationStatus(c.Param("id"), req.Status, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, success(updated))
}

// pendingVerification handles GET /api/v1/verification/pending with an
// optional ?groupId=.
func (h *handlers) pendingVerification(c *gin.Context) {
	c.JSON(http.StatusOK, list(h.manager.TodosNeedingVerification(c.Query("groupId"))))
}
