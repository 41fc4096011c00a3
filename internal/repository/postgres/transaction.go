package postgres

import (
	"context"
	"database/sql"
	"sync"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// Transaction implements the ratings.Transaction interface for PostgreSQL.
type Transaction struct {
	repo       *Repository
	tx         *sql.Tx
	users      *UserRepository
	stores     *StoreRepository
	ratingRepo *RatingRepository
	committed  bool
	rolledBack bool
	mu         sync.Mutex
}

func newTransaction(repo *Repository, tx *sql.Tx) *Transaction {
	t := &Transaction{
		repo: repo,
		tx:   tx,
	}

	// Repository instances that share the same transaction context.
	t.users = &UserRepository{repo: repo, tx: t}
	t.stores = &StoreRepository{repo: repo, tx: t}
	t.ratingRepo = &RatingRepository{repo: repo, tx: t}

	return t
}

// Commit commits the transaction.
func (t *Transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.committed {
		return ratings.NewDatabaseError("TX_ALREADY_COMMITTED", "transaction already committed", nil)
	}
	if t.rolledBack {
		return ratings.NewDatabaseError("TX_ALREADY_ROLLED_BACK", "transaction already rolled back", nil)
	}

	if err := t.tx.Commit(); err != nil {
		return ratings.NewDatabaseError("TX_COMMIT_FAILED", "failed to commit transaction", err)
	}

	t.committed = true
	return nil
}

// Rollback rolls back the transaction. Rolling back after a commit is a
// no-op so callers can defer it unconditionally.
func (t *Transaction) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.committed || t.rolledBack {
		return nil
	}

	if err := t.tx.Rollback(); err != nil {
		return ratings.NewDatabaseError("TX_ROLLBACK_FAILED", "failed to rollback transaction", err)
	}

	t.rolledBack = true
	return nil
}

// Users returns a user repository bound to this transaction.
func (t *Transaction) Users() ratings.UserRepository {
	return t.users
}

// Stores returns a store repository bound to this transaction.
func (t *Transaction) Stores() ratings.StoreRepository {
	return t.stores
}

// Ratings returns a rating repository bound to this transaction.
func (t *Transaction) Ratings() ratings.RatingRepository {
	return t.ratingRepo
}

// isActive checks if the transaction is still usable.
func (t *Transaction) isActive() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.committed {
		return ratings.NewDatabaseError("TX_COMMITTED", "transaction is committed", nil)
	}
	if t.rolledBack {
		return ratings.NewDatabaseError("TX_ROLLED_BACK", "transaction is rolled back", nil)
	}
	return nil
}

// execQuery executes a query within the transaction.
func (t *Transaction) execQuery(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if err := t.isActive(); err != nil {
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ratings.NewDatabaseError("QUERY_FAILED", "database query failed", err)
	}
	return rows, nil
}

// execQueryRow executes a query that returns a single row within the transaction.
func (t *Transaction) execQueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

// execCommand executes a command within the transaction.
func (t *Transaction) execCommand(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if err := t.isActive(); err != nil {
		return nil, err
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, ratings.NewDatabaseError("COMMAND_FAILED", "database command failed", err)
	}
	return result, nil
}
