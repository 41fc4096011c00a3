package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// UserRepository implements the ratings.UserRepository interface using
// in-memory storage.
type UserRepository struct {
	repo *Repository
	tx   *Transaction
}

func (ur *UserRepository) read(fn func(st *state) error) error {
	if ur.tx != nil {
		return fn(ur.tx.st)
	}
	ur.repo.mu.RLock()
	defer ur.repo.mu.RUnlock()
	return fn(ur.repo.st)
}

func (ur *UserRepository) write(fn func(st *state) error) error {
	if ur.tx != nil {
		return fn(ur.tx.st)
	}
	ur.repo.mu.Lock()
	defer ur.repo.mu.Unlock()
	return fn(ur.repo.st)
}

// Create inserts a new user and fills in the generated ID.
func (ur *UserRepository) Create(ctx context.Context, user *ratings.User) error {
	if user == nil {
		return ratings.NewValidationError("INVALID_USER", "user cannot be nil")
	}
	if user.Email == "" || user.Name == "" {
		return ratings.NewValidationError("INVALID_USER", "user name and email cannot be empty")
	}
	if !user.Role.Valid() {
		return ratings.NewValidationError("INVALID_USER_ROLE", "user role is not recognized")
	}

	return ur.write(func(st *state) error {
		for _, existing := range st.users {
			if existing.Email == user.Email {
				return ratings.NewConflictError("USER_EMAIL_EXISTS", "Email already registered")
			}
		}

		now := time.Now()
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		user.UpdatedAt = now
		user.ID = st.nextUserID
		st.nextUserID++

		cp := *user
		st.users[user.ID] = &cp
		return nil
	})
}

// GetByID retrieves a user by ID.
func (ur *UserRepository) GetByID(ctx context.Context, id int64) (*ratings.User, error) {
	var user *ratings.User
	err := ur.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		cp := *u
		user = &cp
		return nil
	})
	return user, err
}

// GetByEmail retrieves a user by email address.
func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (*ratings.User, error) {
	if email == "" {
		return nil, ratings.NewValidationError("INVALID_EMAIL", "email cannot be empty")
	}

	var user *ratings.User
	err := ur.read(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				cp := *u
				user = &cp
				return nil
			}
		}
		return ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
	})
	return user, err
}

// ExistsByEmail checks if a user exists with the given email.
func (ur *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, ratings.NewValidationError("INVALID_EMAIL", "email cannot be empty")
	}

	exists := false
	err := ur.read(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

// UpdatePassword overwrites the stored password hash for a user.
func (ur *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if passwordHash == "" {
		return ratings.NewValidationError("INVALID_PASSWORD_HASH", "password hash cannot be empty")
	}

	return ur.write(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		u.Password = passwordHash
		u.UpdatedAt = time.Now()
		return nil
	})
}

// List retrieves user views matching the filter, each carrying the average
// rating of the store the user owns.
func (ur *UserRepository) List(ctx context.Context, filter *ratings.UserFilter) ([]*ratings.UserView, error) {
	if filter == nil {
		filter = &ratings.UserFilter{}
	}

	var views []*ratings.UserView
	err := ur.read(func(st *state) error {
		for _, u := range st.users {
			if !containsFold(u.Name, filter.Name) ||
				!containsFold(u.Email, filter.Email) ||
				!containsFold(u.Address, filter.Address) {
				continue
			}
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			views = append(views, &ratings.UserView{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Address:   u.Address,
				Role:      u.Role,
				CreatedAt: u.CreatedAt,
				Rating:    ownedStoreAverage(st, u.ID),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortUserViews(views, filter.SortBy, filter.SortOrder)
	return views, nil
}

// GetView retrieves a single user view with its derived rating.
func (ur *UserRepository) GetView(ctx context.Context, id int64) (*ratings.UserView, error) {
	var view *ratings.UserView
	err := ur.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		view = &ratings.UserView{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Address:   u.Address,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			Rating:    ownedStoreAverage(st, u.ID),
		}
		return nil
	})
	return view, err
}

// containsFold reports whether s contains substr case-insensitively. An
// empty substr always matches, so unset filters pass through.
func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sortUserViews(views []*ratings.UserView, sortBy, sortOrder string) {
	desc := strings.EqualFold(sortOrder, "DESC")

	key := func(v *ratings.UserView) string {
		switch sortBy {
		case "email":
			return v.Email
		case "address":
			return v.Address
		case "role":
			return string(v.Role)
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
