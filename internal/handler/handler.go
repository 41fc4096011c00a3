// Package handler implements the HTTP handlers for the store ratings API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harshal20m/storeratings/internal/auth"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

// Handler carries the shared dependencies of all route handlers.
type Handler struct {
	logger *zap.Logger
	repo   ratings.Repository
	hasher *auth.PasswordHasher
	jwt    *auth.JWTManager
}

// New creates a Handler.
func New(logger *zap.Logger, repo ratings.Repository, hasher *auth.PasswordHasher, jwtManager *auth.JWTManager) *Handler {
	return &Handler{
		logger: logger,
		repo:   repo,
		hasher: hasher,
		jwt:    jwtManager,
	}
}

func (h *Handler) respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

func (h *Handler) respondValidation(c *gin.Context, errs []string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"message": "Validation failed",
		"errors":  errs,
	})
}

// respondError maps a repository error onto the HTTP surface. Database and
// internal failures are logged with their cause and answered with a generic
// message.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case ratings.IsNotFound(err):
		h.respondMessage(c, http.StatusNotFound, errorMessage(err))
	case ratings.IsConflict(err), ratings.IsValidation(err):
		h.respondMessage(c, http.StatusBadRequest, errorMessage(err))
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		h.respondMessage(c, http.StatusInternalServerError, "Server error")
	}
}

func errorMessage(err error) string {
	var e *ratings.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
