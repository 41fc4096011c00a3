package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// StoreRepository implements the ratings.StoreRepository interface using
// PostgreSQL.
type StoreRepository struct {
	repo *Repository
	tx   *Transaction
}

func (sr *StoreRepository) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if sr.tx != nil {
		return sr.tx.execQuery(ctx, query, args...)
	}
	return sr.repo.execQuery(ctx, query, args...)
}

func (sr *StoreRepository) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if sr.tx != nil {
		return sr.tx.execQueryRow(ctx, query, args...)
	}
	return sr.repo.execQueryRow(ctx, query, args...)
}

// Create inserts a new store and fills in the generated ID.
func (sr *StoreRepository) Create(ctx context.Context, store *ratings.Store) error {
	if store == nil {
		return ratings.NewValidationError("INVALID_STORE", "store cannot be nil")
	}
	if store.Name == "" || store.Email == "" {
		return ratings.NewValidationError("INVALID_STORE", "store name and email cannot be empty")
	}
	if store.OwnerID == 0 {
		return ratings.NewValidationError("INVALID_STORE_OWNER", "store owner cannot be empty")
	}

	query := `
		INSERT INTO stores (name, email, address, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if store.CreatedAt.IsZero() {
		store.CreatedAt = time.Now()
	}

	row := sr.queryRow(ctx, query, store.Name, store.Email, store.Address, store.OwnerID, store.CreatedAt)
	if err := row.Scan(&store.ID); err != nil {
		if isUniqueViolation(err, "stores_email_key") {
			return ratings.NewConflictError("STORE_EMAIL_EXISTS", "Store email already registered")
		}
		return ratings.NewDatabaseError("CREATE_STORE_FAILED", "failed to create store", err)
	}

	return nil
}

// Exists checks if a store exists by ID.
func (sr *StoreRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT 1 FROM stores WHERE id = $1 LIMIT 1`

	var exists int
	err := sr.queryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, ratings.NewDatabaseError("SCAN_FAILED", "failed to check store existence", err)
	}

	return true, nil
}

// ExistsByEmail checks if a store exists with the given email.
func (sr *StoreRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, ratings.NewValidationError("INVALID_EMAIL", "email cannot be empty")
	}

	query := `SELECT 1 FROM stores WHERE email = $1 LIMIT 1`

	var exists int
	err := sr.queryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, ratings.NewDatabaseError("SCAN_FAILED", "failed to check store email existence", err)
	}

	return true, nil
}

// storeSortColumns is the allow-list for List's sortBy parameter. The rating
// column refers to the aggregated alias, not a stored column.
var storeSortColumns = map[string]string{
	"name":    "s.name",
	"email":   "s.email",
	"address": "s.address",
	"rating":  "rating",
}

// buildListClauses assembles the WHERE and ORDER BY fragments shared by List
// and ListWithUserRating. Ties are always broken by store id for
// deterministic ordering.
func buildListClauses(filter *ratings.StoreFilter, argOffset int) (where string, orderBy string, args []interface{}) {
	var conditions []string

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("s.name ILIKE $%d", argOffset+len(args)))
	}
	if filter.Address != "" {
		args = append(args, "%"+filter.Address+"%")
		conditions = append(conditions, fmt.Sprintf("s.address ILIKE $%d", argOffset+len(args)))
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	sortColumn, ok := storeSortColumns[filter.SortBy]
	if !ok {
		sortColumn = "s.name"
	}
	order := "ASC"
	if strings.EqualFold(filter.SortOrder, "DESC") {
		order = "DESC"
	}
	orderBy = fmt.Sprintf("ORDER BY %s %s, s.id ASC", sortColumn, order)

	return where, orderBy, args
}

// List retrieves store views matching the filter with aggregated rating data.
func (sr *StoreRepository) List(ctx context.Context, filter *ratings.StoreFilter) ([]*ratings.StoreView, error) {
	if filter == nil {
		filter = &ratings.StoreFilter{}
	}

	whereClause, orderBy, args := buildListClauses(filter, 0)

	query := fmt.Sprintf(`
		SELECT s.id, s.name, s.email, s.address, s.created_at,
		       COALESCE(AVG(r.rating), 0)::float8 AS rating,
		       COUNT(r.id) AS total_ratings
		FROM stores s
		LEFT JOIN ratings r ON r.store_id = s.id
		%s
		GROUP BY s.id
		%s`, whereClause, orderBy)

	rows, err := sr.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*ratings.StoreView
	for rows.Next() {
		v := &ratings.StoreView{}
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Address, &v.CreatedAt, &v.Rating, &v.TotalRatings); err != nil {
			return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan store view", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, ratings.NewDatabaseError("ROWS_ERROR", "error iterating rows", err)
	}

	return views, nil
}

// ListWithUserRating retrieves store views matching the filter, each carrying
// userID's own rating for the store. The rating pointer is nil when the user
// has not rated the store.
func (sr *StoreRepository) ListWithUserRating(ctx context.Context, filter *ratings.StoreFilter, userID int64) ([]*ratings.StoreViewWithUserRating, error) {
	if filter == nil {
		filter = &ratings.StoreFilter{}
	}

	// $1 is reserved for the user id; filter placeholders start at $2.
	whereClause, orderBy, args := buildListClauses(filter, 1)
	args = append([]interface{}{userID}, args...)

	query := fmt.Sprintf(`
		SELECT s.id, s.name, s.email, s.address, s.created_at,
		       COALESCE(AVG(r.rating), 0)::float8 AS rating,
		       COUNT(r.id) AS total_ratings,
		       (SELECT ur.rating FROM ratings ur WHERE ur.user_id = $1 AND ur.store_id = s.id) AS user_rating
		FROM stores s
		LEFT JOIN ratings r ON r.store_id = s.id
		%s
		GROUP BY s.id
		%s`, whereClause, orderBy)

	rows, err := sr.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*ratings.StoreViewWithUserRating
	for rows.Next() {
		v := &ratings.StoreViewWithUserRating{}
		var userRating sql.NullInt64
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Address, &v.CreatedAt, &v.Rating, &v.TotalRatings, &userRating); err != nil {
			return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan store view", err)
		}
		if userRating.Valid {
			value := int(userRating.Int64)
			v.UserRating = &value
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, ratings.NewDatabaseError("ROWS_ERROR", "error iterating rows", err)
	}

	return views, nil
}

// GetByOwner retrieves the store owned by ownerID with aggregated rating data.
func (sr *StoreRepository) GetByOwner(ctx context.Context, ownerID int64) (*ratings.StoreView, error) {
	query := `
		SELECT s.id, s.name, s.email, s.address, s.created_at,
		       COALESCE(AVG(r.rating), 0)::float8 AS rating,
		       COUNT(r.id) AS total_ratings
		FROM stores s
		LEFT JOIN ratings r ON r.store_id = s.id
		WHERE s.owner_id = $1
		GROUP BY s.id`

	v := &ratings.StoreView{}
	row := sr.queryRow(ctx, query, ownerID)
	err := row.Scan(&v.ID, &v.Name, &v.Email, &v.Address, &v.CreatedAt, &v.Rating, &v.TotalRatings)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ratings.NewNotFoundError("STORE_NOT_FOUND", "No store found for this owner")
		}
		return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan store view", err)
	}

	return v, nil
}

// ListRaters retrieves all raters of a store, most recent first.
func (sr *StoreRepository) ListRaters(ctx context.Context, storeID int64) ([]*ratings.Rater, error) {
	query := `
		SELECT u.id, u.name, u.email, r.rating, r.created_at
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		WHERE r.store_id = $1
		ORDER BY r.created_at DESC`

	rows, err := sr.query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var raters []*ratings.Rater
	for rows.Next() {
		rater := &ratings.Rater{}
		if err := rows.Scan(&rater.ID, &rater.Name, &rater.Email, &rater.Rating, &rater.CreatedAt); err != nil {
			return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan rater", err)
		}
		raters = append(raters, rater)
	}
	if err := rows.Err(); err != nil {
		return nil, ratings.NewDatabaseError("ROWS_ERROR", "error iterating rows", err)
	}

	return raters, nil
}
