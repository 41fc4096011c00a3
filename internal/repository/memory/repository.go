// Package memory implements the ratings repository interfaces with in-memory
// storage. It backs handler tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// state is the complete mutable store. Transactions operate on a deep copy
// and swap it in on commit, so a rolled-back transaction leaves no trace.
type state struct {
	users      map[int64]*ratings.User
	stores     map[int64]*ratings.Store
	ratingRows map[int64]*ratings.Rating

	nextUserID   int64
	nextStoreID  int64
	nextRatingID int64
}

func newState() *state {
	return &state{
		users:        make(map[int64]*ratings.User),
		stores:       make(map[int64]*ratings.Store),
		ratingRows:   make(map[int64]*ratings.Rating),
		nextUserID:   1,
		nextStoreID:  1,
		nextRatingID: 1,
	}
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[int64]*ratings.User, len(s.users)),
		stores:       make(map[int64]*ratings.Store, len(s.stores)),
		ratingRows:   make(map[int64]*ratings.Rating, len(s.ratingRows)),
		nextUserID:   s.nextUserID,
		nextStoreID:  s.nextStoreID,
		nextRatingID: s.nextRatingID,
	}
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, st := range s.stores {
		cp := *st
		c.stores[id] = &cp
	}
	for id, r := range s.ratingRows {
		cp := *r
		c.ratingRows[id] = &cp
	}
	return c
}

// Repository implements the ratings.Repository interface using in-memory
// storage.
type Repository struct {
	mu     sync.RWMutex
	st     *state
	closed bool

	users      *UserRepository
	stores     *StoreRepository
	ratingRepo *RatingRepository
}

// NewRepository creates a new in-memory repository.
func NewRepository() *Repository {
	r := &Repository{
		st: newState(),
	}
	r.users = &UserRepository{repo: r}
	r.stores = &StoreRepository{repo: r}
	r.ratingRepo = &RatingRepository{repo: r}
	return r
}

// Health returns the health status of the repository.
func (r *Repository) Health(ctx context.Context) ratings.HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := "healthy"
	message := "In-memory repository is operational"
	if r.closed {
		status = "unhealthy"
		message = "Repository is closed"
	}

	return ratings.HealthStatus{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"users_count":   len(r.st.users),
			"stores_count":  len(r.st.stores),
			"ratings_count": len(r.st.ratingRows),
		},
		Timestamp: time.Now(),
	}
}

// Close closes the repository and releases resources.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.st = newState()
	r.closed = true
	return nil
}

// BeginTx begins a transaction operating on a copy of the current state.
func (r *Repository) BeginTx(ctx context.Context) (ratings.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ratings.NewDatabaseError("REPO_CLOSED", "repository is closed", nil)
	}

	return newTransaction(r, r.st.clone()), nil
}

// Users returns the user repository.
func (r *Repository) Users() ratings.UserRepository {
	return r.users
}

// Stores returns the store repository.
func (r *Repository) Stores() ratings.StoreRepository {
	return r.stores
}

// Ratings returns the rating repository.
func (r *Repository) Ratings() ratings.RatingRepository {
	return r.ratingRepo
}

// Stats returns the total counts of users, stores and ratings.
func (r *Repository) Stats(ctx context.Context) (*ratings.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &ratings.Stats{
		TotalUsers:   int64(len(r.st.users)),
		TotalStores:  int64(len(r.st.stores)),
		TotalRatings: int64(len(r.st.ratingRows)),
	}, nil
}

// storeAverage computes the mean rating and count for a store, 0 when the
// store has no ratings.
func storeAverage(st *state, storeID int64) (float64, int64) {
	var sum, count int64
	for _, r := range st.ratingRows {
		if r.StoreID == storeID {
			sum += int64(r.Value)
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return float64(sum) / float64(count), count
}

// ownedStoreAverage computes the average rating of the store owned by the
// user, 0 when the user owns no store.
func ownedStoreAverage(st *state, userID int64) float64 {
	for _, s := range st.stores {
		if s.OwnerID == userID {
			avg, _ := storeAverage(st, s.ID)
			return avg
		}
	}
	return 0
}
