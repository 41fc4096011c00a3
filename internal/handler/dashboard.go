package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DashboardStats returns the admin dashboard counts.
func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Health reports the health of the service and its storage backend.
func (h *Handler) Health(c *gin.Context) {
	status := h.repo.Health(c.Request.Context())

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
