package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harshal20m/storeratings/internal/middleware"
	"github.com/harshal20m/storeratings/internal/validation"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

// ListStores returns store views filtered and sorted per query parameters.
// Callers with the user role additionally get their own rating per store;
// admins and store owners get the plain projection.
func (h *Handler) ListStores(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		h.respondMessage(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter := &ratings.StoreFilter{
		Name:      c.Query("name"),
		Address:   c.Query("address"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	if identity.Role == ratings.RoleUser {
		stores, err := h.repo.Stores().ListWithUserRating(c.Request.Context(), filter, identity.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if stores == nil {
			stores = []*ratings.StoreViewWithUserRating{}
		}
		c.JSON(http.StatusOK, stores)
		return
	}

	stores, err := h.repo.Stores().List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if stores == nil {
		stores = []*ratings.StoreView{}
	}
	c.JSON(http.StatusOK, stores)
}

// GetMyStore returns the calling store owner's store with its aggregated
// rating and the full list of raters, most recent first.
func (h *Handler) GetMyStore(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		h.respondMessage(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	store, err := h.repo.Stores().GetByOwner(c.Request.Context(), identity.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	raters, err := h.repo.Stores().ListRaters(c.Request.Context(), store.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if raters == nil {
		raters = []*ratings.Rater{}
	}

	c.JSON(http.StatusOK, gin.H{
		"store":  store,
		"raters": raters,
	})
}

type createStoreRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	OwnerEmail    string `json:"ownerEmail"`
	OwnerName     string `json:"ownerName"`
	OwnerPassword string `json:"ownerPassword"`
	OwnerAddress  string `json:"ownerAddress"`
}

// CreateStore creates a store and resolves its owner inside a single
// transaction. An existing user with ownerEmail is reused as the owner
// whatever their role; otherwise a store_owner account is created from
// ownerName and ownerPassword. Any failure rolls the whole unit back.
func (h *Handler) CreateStore(c *gin.Context) {
	var req createStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := validation.Store(req.Name, req.Email, req.Address)
	if !validation.ValidEmail(req.OwnerEmail) {
		errs = append(errs, "Valid owner email is required")
	}
	if len(errs) > 0 {
		h.respondValidation(c, errs)
		return
	}

	ctx := c.Request.Context()
	tx, err := h.repo.BeginTx(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer tx.Rollback(ctx)

	storeExists, err := tx.Stores().ExistsByEmail(ctx, req.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if storeExists {
		h.respondMessage(c, http.StatusBadRequest, "Store email already registered")
		return
	}

	owner, err := tx.Users().GetByEmail(ctx, req.OwnerEmail)
	if err != nil && !ratings.IsNotFound(err) {
		h.respondError(c, err)
		return
	}

	if owner == nil {
		var ownerErrs []string
		if !validation.ValidUserName(req.OwnerName) {
			ownerErrs = append(ownerErrs, validation.MsgOwnerName)
		}
		if !validation.ValidPassword(req.OwnerPassword) {
			ownerErrs = append(ownerErrs, validation.MsgOwnerPassword)
		}
		if len(ownerErrs) > 0 {
			h.respondValidation(c, ownerErrs)
			return
		}

		hash, err := h.hasher.Hash(req.OwnerPassword)
		if err != nil {
			h.respondError(c, err)
			return
		}
		ownerAddress := req.OwnerAddress
		if ownerAddress == "" {
			ownerAddress = req.Address
		}
		owner = &ratings.User{
			Name:     req.OwnerName,
			Email:    req.OwnerEmail,
			Password: hash,
			Address:  ownerAddress,
			Role:     ratings.RoleStoreOwner,
		}
		if err := tx.Users().Create(ctx, owner); err != nil {
			h.respondError(c, err)
			return
		}
	}

	store := &ratings.Store{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		OwnerID: owner.ID,
	}
	if err := tx.Stores().Create(ctx, store); err != nil {
		if ratings.IsConflict(err) {
			h.respondMessage(c, http.StatusBadRequest, "Store email already registered")
			return
		}
		h.respondError(c, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("store created",
		zap.Int64("store_id", store.ID),
		zap.Int64("owner_id", owner.ID))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Store created successfully",
		"id":      store.ID,
	})
}
