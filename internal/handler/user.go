package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harshal20m/storeratings/internal/validation"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

// ListUsers returns user views filtered and sorted per query parameters.
// Each row carries the average rating of the store the user owns.
func (h *Handler) ListUsers(c *gin.Context) {
	filter := &ratings.UserFilter{
		Name:      c.Query("name"),
		Email:     c.Query("email"),
		Address:   c.Query("address"),
		Role:      ratings.Role(c.Query("role")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	users, err := h.repo.Users().List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if users == nil {
		users = []*ratings.UserView{}
	}

	c.JSON(http.StatusOK, users)
}

// GetUser returns a single user view by ID.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.respondMessage(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.repo.Users().GetView(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

// CreateUser creates an account with an explicit role. Only admins reach
// this handler.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := validation.User(req.Name, req.Email, req.Address, &req.Password)

	role := ratings.Role(req.Role)
	if req.Role == "" {
		role = ratings.RoleUser
	} else if !role.Valid() {
		errs = append(errs, "Role must be one of: user, admin, store_owner")
	}

	if len(errs) > 0 {
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
		Role:     role,
	}
	if err := h.repo.Users().Create(c.Request.Context(), user); err != nil {
		if ratings.IsConflict(err) {
			h.respondMessage(c, http.StatusBadRequest, "Email already registered")
			return
		}
		h.respondError(c, err)
		return
	}

	h.logger.Info("user created",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)))

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"id":      user.ID,
	})
}
