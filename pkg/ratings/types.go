package ratings

import (
	"time"
)

// Role controls route access. The set is fixed; there is no role hierarchy.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleStoreOwner Role = "store_owner"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleStoreOwner:
		return true
	}
	return false
}

// User represents a registered account. The password field holds the bcrypt
// hash and is never included in JSON responses.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Address   string    `json:"address" db:"address"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Store represents a rateable store. Every store references exactly one
// owner; a store_owner user owns at most one store.
type Store struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Address   string    `json:"address" db:"address"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Rating is a single user's 1-5 rating of a store. At most one row exists
// per (user, store) pair; a resubmission updates the row in place.
type Rating struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	StoreID   int64     `json:"store_id" db:"store_id"`
	Value     int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserView is the admin-facing projection of a user. Rating is the average
// rating of the store the user owns, 0 when they own no store or it has no
// ratings.
type UserView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	Rating    float64   `json:"rating"`
}

// StoreView is the store-list projection with aggregated rating data.
type StoreView struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	CreatedAt    time.Time `json:"created_at"`
	Rating       float64   `json:"rating"`
	TotalRatings int64     `json:"total_ratings"`
}

// StoreViewWithUserRating extends StoreView with the calling user's own
// rating for the store. UserRating is null when the caller has not rated the
// store; zero is never used to mean "unrated".
type StoreViewWithUserRating struct {
	StoreView
	UserRating *int `json:"user_rating"`
}

// Rater describes one user's rating of a store as shown to its owner.
type Rater struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFilter narrows and orders admin user listings. Name, Email and Address
// are substring matches; Role is an exact match. SortBy outside the allow-list
// {name, email, address, role} falls back to name; SortOrder other than DESC
// is treated as ASC.
type UserFilter struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
	Role      Role   `json:"role,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// StoreFilter narrows and orders store listings. SortBy allow-list is
// {name, email, address, rating}, defaulting to name.
type StoreFilter struct {
	Name      string `json:"name,omitempty"`
	Address   string `json:"address,omitempty"`
	SortBy    string `json:"sort_by,omitempty"`
	SortOrder string `json:"sort_order,omitempty"`
}

// Stats holds the dashboard cardinalities.
type Stats struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalStores  int64 `json:"totalStores"`
	TotalRatings int64 `json:"totalRatings"`
}

// HealthStatus represents the health of a repository backend.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
