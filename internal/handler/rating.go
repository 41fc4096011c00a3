package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harshal20m/storeratings/internal/middleware"
	"github.com/harshal20m/storeratings/internal/validation"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

type submitRatingRequest struct {
	StoreID int64 `json:"storeId"`
	Rating  int   `json:"rating"`
}

// SubmitRating records or updates the caller's rating for a store. A repeat
// submission for the same store updates the existing row in place.
func (h *Handler) SubmitRating(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		h.respondMessage(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req submitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !validation.ValidRating(req.Rating) {
		h.respondMessage(c, http.StatusBadRequest, validation.MsgRating)
		return
	}

	ctx := c.Request.Context()
	exists, err := h.repo.Stores().Exists(ctx, req.StoreID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !exists {
		h.respondMessage(c, http.StatusNotFound, "Store not found")
		return
	}

	created, err := h.repo.Ratings().Upsert(ctx, identity.ID, req.StoreID, req.Rating)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if created {
		h.respondMessage(c, http.StatusCreated, "Rating submitted successfully")
		return
	}
	h.respondMessage(c, http.StatusOK, "Rating updated successfully")
}

// GetMyRating returns the caller's rating for a store, null when the caller
// has not rated it.
func (h *Handler) GetMyRating(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		h.respondMessage(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	storeID, err := strconv.ParseInt(c.Param("storeId"), 10, 64)
	if err != nil {
		h.respondMessage(c, http.StatusBadRequest, "Invalid store ID")
		return
	}

	rating, err := h.repo.Ratings().GetByUserAndStore(c.Request.Context(), identity.ID, storeID)
	if err != nil {
		if ratings.IsNotFound(err) {
			c.JSON(http.StatusOK, gin.H{"rating": nil})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rating": rating.Value})
}
