package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// StoreRepository implements the ratings.StoreRepository interface using
// in-memory storage.
type StoreRepository struct {
	repo *Repository
	tx   *Transaction
}

func (sr *StoreRepository) read(fn func(st *state) error) error {
	if sr.tx != nil {
		return fn(sr.tx.st)
	}
	sr.repo.mu.RLock()
	defer sr.repo.mu.RUnlock()
	return fn(sr.repo.st)
}

func (sr *StoreRepository) write(fn func(st *state) error) error {
	if sr.tx != nil {
		return fn(sr.tx.st)
	}
	sr.repo.mu.Lock()
	defer sr.repo.mu.Unlock()
	return fn(sr.repo.st)
}

// Create inserts a new store and fills in the generated ID.
func (sr *StoreRepository) Create(ctx context.Context, store *ratings.Store) error {
	if store == nil {
		return ratings.NewValidationError("INVALID_STORE", "store cannot be nil")
	}
	if store.Name == "" || store.Email == "" {
		return ratings.NewValidationError("INVALID_STORE", "store name and email cannot be empty")
	}

	return sr.write(func(st *state) error {
		if _, ok := st.users[store.OwnerID]; !ok {
			return ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		for _, existing := range st.stores {
			if existing.Email == store.Email {
				return ratings.NewConflictError("STORE_EMAIL_EXISTS", "Store email already registered")
			}
		}

		if store.CreatedAt.IsZero() {
			store.CreatedAt = time.Now()
		}
		store.ID = st.nextStoreID
		st.nextStoreID++

		cp := *store
		st.stores[store.ID] = &cp
		return nil
	})
}

// Exists checks if a store exists by ID.
func (sr *StoreRepository) Exists(ctx context.Context, id int64) (bool, error) {
	exists := false
	err := sr.read(func(st *state) error {
		_, exists = st.stores[id]
		return nil
	})
	return exists, err
}

// ExistsByEmail checks if a store exists with the given email.
func (sr *StoreRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, ratings.NewValidationError("INVALID_EMAIL", "email cannot be empty")
	}

	exists := false
	err := sr.read(func(st *state) error {
		for _, s := range st.stores {
			if s.Email == email {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

// List retrieves store views matching the filter.
func (sr *StoreRepository) List(ctx context.Context, filter *ratings.StoreFilter) ([]*ratings.StoreView, error) {
	if filter == nil {
		filter = &ratings.StoreFilter{}
	}

	var views []*ratings.StoreView
	err := sr.read(func(st *state) error {
		for _, s := range st.stores {
			if !containsFold(s.Name, filter.Name) || !containsFold(s.Address, filter.Address) {
				continue
			}
			avg, count := storeAverage(st, s.ID)
			views = append(views, &ratings.StoreView{
				ID:           s.ID,
				Name:         s.Name,
				Email:        s.Email,
				Address:      s.Address,
				CreatedAt:    s.CreatedAt,
				Rating:       avg,
				TotalRatings: count,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortStoreViews(views, filter.SortBy, filter.SortOrder)
	return views, nil
}

// ListWithUserRating retrieves store views matching the filter, each carrying
// userID's own rating for the store. UserRating is nil when the user has not
// rated the store.
func (sr *StoreRepository) ListWithUserRating(ctx context.Context, filter *ratings.StoreFilter, userID int64) ([]*ratings.StoreViewWithUserRating, error) {
	views, err := sr.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*ratings.StoreViewWithUserRating, 0, len(views))
	err = sr.read(func(st *state) error {
		for _, v := range views {
			vw := &ratings.StoreViewWithUserRating{StoreView: *v}
			for _, r := range st.ratingRows {
				if r.UserID == userID && r.StoreID == v.ID {
					value := r.Value
					vw.UserRating = &value
					break
				}
			}
			out = append(out, vw)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByOwner retrieves the store owned by ownerID with aggregated rating data.
func (sr *StoreRepository) GetByOwner(ctx context.Context, ownerID int64) (*ratings.StoreView, error) {
	var view *ratings.StoreView
	err := sr.read(func(st *state) error {
		for _, s := range st.stores {
			if s.OwnerID == ownerID {
				avg, count := storeAverage(st, s.ID)
				view = &ratings.StoreView{
					ID:           s.ID,
					Name:         s.Name,
					Email:        s.Email,
					Address:      s.Address,
					CreatedAt:    s.CreatedAt,
					Rating:       avg,
					TotalRatings: count,
				}
				return nil
			}
		}
		return ratings.NewNotFoundError("STORE_NOT_FOUND", "No store found for this owner")
	})
	return view, err
}

// ListRaters retrieves all raters of a store, most recent first.
func (sr *StoreRepository) ListRaters(ctx context.Context, storeID int64) ([]*ratings.Rater, error) {
	var raters []*ratings.Rater
	err := sr.read(func(st *state) error {
		for _, r := range st.ratingRows {
			if r.StoreID != storeID {
				continue
			}
			u, ok := st.users[r.UserID]
			if !ok {
				continue
			}
			raters = append(raters, &ratings.Rater{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Rating:    r.Value,
				CreatedAt: r.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(raters, func(i, j int) bool {
		if raters[i].CreatedAt.Equal(raters[j].CreatedAt) {
			return raters[i].ID > raters[j].ID
		}
		return raters[i].CreatedAt.After(raters[j].CreatedAt)
	})
	return raters, nil
}

func sortStoreViews(views []*ratings.StoreView, sortBy, sortOrder string) {
	desc := strings.EqualFold(sortOrder, "DESC")

	if sortBy == "rating" {
		sort.Slice(views, func(i, j int) bool {
			if views[i].Rating == views[j].Rating {
				return views[i].ID < views[j].ID
			}
			if desc {
				return views[i].Rating > views[j].Rating
			}
			return views[i].Rating < views[j].Rating
		})
		return
	}

	key := func(v *ratings.StoreView) string {
		switch sortBy {
		case "email":
			return v.Email
		case "address":
			return v.Address
		default:
			return v.Name
		}
	}

	sort.Slice(views, func(i, j int) bool {
		a, b := key(views[i]), key(views[j])
		if a == b {
			return views[i].ID < views[j].ID
		}
		if desc {
			return a > b
		}
		return a < b
	})
}
