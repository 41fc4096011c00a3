package memory

import (
	"context"
	"time"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// RatingRepository implements the ratings.RatingRepository interface using
// in-memory storage.
type RatingRepository struct {
	repo *Repository
	tx   *Transaction
}

func (rr *RatingRepository) read(fn func(st *state) error) error {
	if rr.tx != nil {
		return fn(rr.tx.st)
	}
	rr.repo.mu.RLock()
	defer rr.repo.mu.RUnlock()
	return fn(rr.repo.st)
}

func (rr *RatingRepository) write(fn func(st *state) error) error {
	if rr.tx != nil {
		return fn(rr.tx.st)
	}
	rr.repo.mu.Lock()
	defer rr.repo.mu.Unlock()
	return fn(rr.repo.st)
}

// Upsert inserts a rating for the (user, store) pair or updates the existing
// one in place. It reports whether a new row was created.
func (rr *RatingRepository) Upsert(ctx context.Context, userID, storeID int64, value int) (bool, error) {
	if value < 1 || value > 5 {
		return false, ratings.NewValidationError("INVALID_RATING", "Rating must be between 1 and 5")
	}

	created := false
	err := rr.write(func(st *state) error {
		if _, ok := st.stores[storeID]; !ok {
			return ratings.NewNotFoundError("STORE_NOT_FOUND", "Store not found")
		}

		for _, r := range st.ratingRows {
			if r.UserID == userID && r.StoreID == storeID {
				r.Value = value
				r.UpdatedAt = time.Now()
				return nil
			}
		}

		now := time.Now()
		id := st.nextRatingID
		st.nextRatingID++
		st.ratingRows[id] = &ratings.Rating{
			ID:        id,
			UserID:    userID,
			StoreID:   storeID,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		created = true
		return nil
	})
	return created, err
}

// GetByUserAndStore retrieves the rating a user gave a store.
func (rr *RatingRepository) GetByUserAndStore(ctx context.Context, userID, storeID int64) (*ratings.Rating, error) {
	var rating *ratings.Rating
	err := rr.read(func(st *state) error {
		for _, r := range st.ratingRows {
			if r.UserID == userID && r.StoreID == storeID {
				cp := *r
				rating = &cp
				return nil
			}
		}
		return ratings.NewNotFoundError("RATING_NOT_FOUND", "Rating not found")
	})
	return rating, err
}
