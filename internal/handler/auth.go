package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harshal20m/storeratings/internal/middleware"
	"github.com/harshal20m/storeratings/internal/validation"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

// Register creates a normal user account. The role is always "user"; admin
// and store_owner accounts are created through the admin endpoints.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validation.User(req.Name, req.Email, req.Address, &req.Password); len(errs) > 0 {
		h.respondValidation(c, errs)
		return
	}

	exists, err := h.repo.Users().ExistsByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if exists {
		h.respondMessage(c, http.StatusBadRequest, "Email already registered")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := &ratings.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Address:  req.Address,
		Role:     ratings.RoleUser,
	}
	if err := h.repo.Users().Create(c.Request.Context(), user); err != nil {
		if ratings.IsConflict(err) {
			h.respondMessage(c, http.StatusBadRequest, "Email already registered")
			return
		}
		h.respondError(c, err)
		return
	}

	h.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email))

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"id":      user.ID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a JWT. Unknown email and wrong
// password answer identically so the endpoint does not leak which emails are
// registered.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondMessage(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.repo.Users().GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if ratings.IsNotFound(err) {
			h.respondMessage(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.respondError(c, err)
		return
	}

	if err := h.hasher.Verify(req.Password, user.Password); err != nil {
		h.respondMessage(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdatePassword changes the caller's password after verifying the current
// one.
func (h *Handler) UpdatePassword(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		h.respondMessage(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validation.ValidPassword(req.NewPassword) {
		h.respondMessage(c, http.StatusBadRequest, validation.MsgPassword)
		return
	}

	user, err := h.repo.Users().GetByID(c.Request.Context(), identity.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.hasher.Verify(req.CurrentPassword, user.Password); err != nil {
		h.respondMessage(c, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.repo.Users().UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
		h.respondError(c, err)
		return
	}

	h.respondMessage(c, http.StatusOK, "Password updated successfully")
}
