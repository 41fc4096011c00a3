package ratings

import (
	"context"
)

// Repository is the storage backend for the service. Implementations exist
// for PostgreSQL (production) and in-memory storage (tests, local runs).
type Repository interface {
	// Health returns the health status of the repository.
	Health(ctx context.Context) HealthStatus

	// Close closes the repository connection and releases resources.
	Close() error

	// BeginTx begins a transaction. Callers must either Commit or Rollback.
	BeginTx(ctx context.Context) (Transaction, error)

	// Users returns the user repository.
	Users() UserRepository

	// Stores returns the store repository.
	Stores() StoreRepository

	// Ratings returns the rating repository.
	Ratings() RatingRepository

	// Stats returns the total counts of users, stores and ratings.
	Stats(ctx context.Context) (*Stats, error)
}

// Transaction scopes repository operations to a single all-or-nothing unit.
type Transaction interface {
	// Commit commits the transaction.
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction.
	Rollback(ctx context.Context) error

	// Users returns a user repository bound to this transaction.
	Users() UserRepository

	// Stores returns a store repository bound to this transaction.
	Stores() StoreRepository

	// Ratings returns a rating repository bound to this transaction.
	Ratings() RatingRepository
}

// UserRepository defines user data operations.
type UserRepository interface {
	// Create inserts a new user and fills in the generated ID.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail checks if a user exists with the given email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdatePassword overwrites the stored password hash for a user.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// List retrieves user views matching the filter, each carrying the
	// average rating of the store the user owns.
	List(ctx context.Context, filter *UserFilter) ([]*UserView, error)

	// GetView retrieves a single user view with its derived rating.
	GetView(ctx context.Context, id int64) (*UserView, error)
}

// StoreRepository defines store data operations.
type StoreRepository interface {
	// Create inserts a new store and fills in the generated ID.
	Create(ctx context.Context, store *Store) error

	// Exists checks if a store exists by ID.
	Exists(ctx context.Context, id int64) (bool, error)

	// ExistsByEmail checks if a store exists with the given email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List retrieves store views matching the filter.
	List(ctx context.Context, filter *StoreFilter) ([]*StoreView, error)

	// ListWithUserRating retrieves store views matching the filter, each
	// carrying userID's own rating for the store (nil when unrated).
	ListWithUserRating(ctx context.Context, filter *StoreFilter, userID int64) ([]*StoreViewWithUserRating, error)

	// GetByOwner retrieves the store owned by ownerID with aggregated
	// rating data.
	GetByOwner(ctx context.Context, ownerID int64) (*StoreView, error)

	// ListRaters retrieves all raters of a store, most recent first.
	ListRaters(ctx context.Context, storeID int64) ([]*Rater, error)
}

// RatingRepository defines rating data operations.
type RatingRepository interface {
	// Upsert inserts a rating for the (user, store) pair or updates the
	// existing one. It reports whether a new row was created.
	Upsert(ctx context.Context, userID, storeID int64, value int) (created bool, err error)

	// GetByUserAndStore retrieves the rating a user gave a store.
	GetByUserAndStore(ctx context.Context, userID, storeID int64) (*Rating, error)
}
