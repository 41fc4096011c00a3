package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// UserRepository implements the ratings.UserRepository interface using
// PostgreSQL. When tx is non-nil all statements run inside that transaction.
type UserRepository struct {
	repo *Repository
	tx   *Transaction
}

func (ur *UserRepository) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if ur.tx != nil {
		return ur.tx.execQuery(ctx, query, args...)
	}
	return ur.repo.execQuery(ctx, query, args...)
}

func (ur *UserRepository) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if ur.tx != nil {
		return ur.tx.execQueryRow(ctx, query, args...)
	}
	return ur.repo.execQueryRow(ctx, query, args...)
}

func (ur *UserRepository) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if ur.tx != nil {
		return ur.tx.execCommand(ctx, query, args...)
	}
	return ur.repo.execCommand(ctx, query, args...)
}

// Create inserts a new user and fills in the generated ID. The unique email
// index is the actual guard against duplicate-registration races; callers'
// existence checks are only an early exit.
func (ur *UserRepository) Create(ctx context.Context, user *ratings.User) error {
	if err := validateUserRow(user); err != nil {
		return err
	}

	query := `
		INSERT INTO users (name, email, password, address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	row := ur.queryRow(ctx, query, user.Name, user.Email, user.Password, user.Address, user.Role, user.CreatedAt, user.UpdatedAt)
	if err := row.Scan(&user.ID); err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return ratings.NewConflictError("USER_EMAIL_EXISTS", "Email already registered")
		}
		return ratings.NewDatabaseError("CREATE_USER_FAILED", "failed to create user", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (ur *UserRepository) GetByID(ctx context.Context, id int64) (*ratings.User, error) {
	query := `
		SELECT id, name, email, password, address, role, created_at, updated_at
		FROM users
		WHERE id = $1`

	user := &ratings.User{}
	row := ur.queryRow(ctx, query, id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Address, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan user", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email address.
func (ur *UserRepository) GetByEmail(ctx context.Context, email string) (*ratings.User, error) {
	if email == "" {
		return nil, ratings.NewValidationError("INVALID_EMAIL", "email cannot be empty")
	}

	query := `
		SELECT id, name, email, password, address, role, created_at, updated_at
		FROM users
		WHERE email = $1`

	user := &ratings.User{}
	row := ur.queryRow(ctx, query, email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.Address, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan user", err)
	}

	return user, nil
}

// ExistsByEmail checks if a user exists with the given email.
func (ur *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, ratings.NewValidationError("INVALID_EMAIL", "email cannot be empty")
	}

	query := `SELECT 1 FROM users WHERE email = $1 LIMIT 1`

	var exists int
	err := ur.queryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, ratings.NewDatabaseError("SCAN_FAILED", "failed to check user email existence", err)
	}

	return true, nil
}

// UpdatePassword overwrites the stored password hash for a user.
func (ur *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if passwordHash == "" {
		return ratings.NewValidationError("INVALID_PASSWORD_HASH", "password hash cannot be empty")
	}

	query := `UPDATE users SET password = $2, updated_at = $3 WHERE id = $1`

	result, err := ur.exec(ctx, query, id, passwordHash, time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ratings.NewDatabaseError("ROWS_AFFECTED_FAILED", "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
	}

	return nil
}

// userSortColumns is the allow-list for List's sortBy parameter.
var userSortColumns = map[string]string{
	"name":    "u.name",
	"email":   "u.email",
	"address": "u.address",
	"role":    "u.role",
}

// List retrieves user views matching the filter. Each row carries the
// average rating of the store the user owns, 0 when there is none.
func (ur *UserRepository) List(ctx context.Context, filter *ratings.UserFilter) ([]*ratings.UserView, error) {
	if filter == nil {
		filter = &ratings.UserFilter{}
	}

	var conditions []string
	var args []interface{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("u.name ILIKE $%d", len(args)))
	}
	if filter.Email != "" {
		args = append(args, "%"+filter.Email+"%")
		conditions = append(conditions, fmt.Sprintf("u.email ILIKE $%d", len(args)))
	}
	if filter.Address != "" {
		args = append(args, "%"+filter.Address+"%")
		conditions = append(conditions, fmt.Sprintf("u.address ILIKE $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Unrecognized sort columns silently fall back to name.
	sortColumn, ok := userSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "u.name"
	}
	order := "ASC"
	if strings.EqualFold(filter.SortOrder, "DESC") {
		order = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT u.id, u.name, u.email, u.address, u.role, u.created_at,
		       COALESCE(AVG(r.rating), 0)::float8 AS rating
		FROM users u
		LEFT JOIN stores s ON s.owner_id = u.id
		LEFT JOIN ratings r ON r.store_id = s.id
		%s
		GROUP BY u.id
		ORDER BY %s %s, u.id ASC`, whereClause, sortColumn, order)

	rows, err := ur.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*ratings.UserView
	for rows.Next() {
		v := &ratings.UserView{}
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Address, &v.Role, &v.CreatedAt, &v.Rating); err != nil {
			return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan user view", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, ratings.NewDatabaseError("ROWS_ERROR", "error iterating rows", err)
	}

	return views, nil
}

// GetView retrieves a single user view with its derived rating.
func (ur *UserRepository) GetView(ctx context.Context, id int64) (*ratings.UserView, error) {
	query := `
		SELECT u.id, u.name, u.email, u.address, u.role, u.created_at,
		       COALESCE(AVG(r.rating), 0)::float8 AS rating
		FROM users u
		LEFT JOIN stores s ON s.owner_id = u.id
		LEFT JOIN ratings r ON r.store_id = s.id
		WHERE u.id = $1
		GROUP BY u.id`

	v := &ratings.UserView{}
	row := ur.queryRow(ctx, query, id)
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.Address, &v.Role, &v.CreatedAt, &v.Rating)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ratings.NewNotFoundError("USER_NOT_FOUND", "User not found")
		}
		return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan user view", err)
	}

	return v, nil
}

// validateUserRow validates user data before writes.
func validateUserRow(user *ratings.User) error {
	if user == nil {
		return ratings.NewValidationError("INVALID_USER", "user cannot be nil")
	}
	if user.Email == "" {
		return ratings.NewValidationError("INVALID_USER_EMAIL", "user email cannot be empty")
	}
	if user.Name == "" {
		return ratings.NewValidationError("INVALID_USER_NAME", "user name cannot be empty")
	}
	if user.Password == "" {
		return ratings.NewValidationError("INVALID_USER_PASSWORD", "user password hash cannot be empty")
	}
	if !user.Role.Valid() {
		return ratings.NewValidationError("INVALID_USER_ROLE", "user role is not recognized")
	}
	return nil
}
