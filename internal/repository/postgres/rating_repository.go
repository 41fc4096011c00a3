package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// RatingRepository implements the ratings.RatingRepository interface using
// PostgreSQL.
type RatingRepository struct {
	repo *Repository
	tx   *Transaction
}

func (rr *RatingRepository) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if rr.tx != nil {
		return rr.tx.execQueryRow(ctx, query, args...)
	}
	return rr.repo.execQueryRow(ctx, query, args...)
}

func (rr *RatingRepository) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if rr.tx != nil {
		return rr.tx.execCommand(ctx, query, args...)
	}
	return rr.repo.execCommand(ctx, query, args...)
}

// Upsert inserts a rating for the (user, store) pair or updates the existing
// one in place. Outside an enclosing transaction it opens its own, so the
// existence check and the write are a single unit; the unique constraint on
// (user_id, store_id) guards against concurrent submissions either way.
func (rr *RatingRepository) Upsert(ctx context.Context, userID, storeID int64, value int) (bool, error) {
	if value < 1 || value > 5 {
		return false, ratings.NewValidationError("INVALID_RATING", "Rating must be between 1 and 5")
	}

	if rr.tx != nil {
		return rr.upsert(ctx, userID, storeID, value)
	}

	tx, err := rr.repo.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	txRatings := tx.Ratings().(*RatingRepository)
	created, err := txRatings.upsert(ctx, userID, storeID, value)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return created, nil
}

func (rr *RatingRepository) upsert(ctx context.Context, userID, storeID int64, value int) (bool, error) {
	var id int64
	err := rr.queryRow(ctx,
		`SELECT id FROM ratings WHERE user_id = $1 AND store_id = $2 FOR UPDATE`,
		userID, storeID).Scan(&id)

	now := time.Now()
	switch {
	case err == nil:
		_, err := rr.exec(ctx,
			`UPDATE ratings SET rating = $2, updated_at = $3 WHERE id = $1`,
			id, value, now)
		if err != nil {
			return false, err
		}
		return false, nil

	case err == sql.ErrNoRows:
		// ON CONFLICT backstops the race where another transaction inserted
		// the pair between our check and this insert.
		_, err := rr.exec(ctx, `
			INSERT INTO ratings (user_id, store_id, rating, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (user_id, store_id)
			DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at`,
			userID, storeID, value, now)
		if err != nil {
			return false, err
		}
		return true, nil

	default:
		return false, ratings.NewDatabaseError("SCAN_FAILED", "failed to check existing rating", err)
	}
}

// GetByUserAndStore retrieves the rating a user gave a store.
func (rr *RatingRepository) GetByUserAndStore(ctx context.Context, userID, storeID int64) (*ratings.Rating, error) {
	query := `
		SELECT id, user_id, store_id, rating, created_at, updated_at
		FROM ratings
		WHERE user_id = $1 AND store_id = $2`

	rating := &ratings.Rating{}
	row := rr.queryRow(ctx, query, userID, storeID)
	err := row.Scan(&rating.ID, &rating.UserID, &rating.StoreID, &rating.Value, &rating.CreatedAt, &rating.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ratings.NewNotFoundError("RATING_NOT_FOUND", "Rating not found")
		}
		return nil, ratings.NewDatabaseError("SCAN_FAILED", "failed to scan rating", err)
	}

	return rating, nil
}
