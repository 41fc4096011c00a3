package memory

import (
	"context"
	"sync"

	"github.com/harshal20m/storeratings/pkg/ratings"
)

// Transaction implements the ratings.Transaction interface for in-memory
// storage. It works on a private copy of the repository state; Commit swaps
// the copy in, Rollback discards it. Concurrent transactions are
// last-writer-wins, which is sufficient for tests and local runs.
type Transaction struct {
	repo       *Repository
	st         *state
	users      *UserRepository
	stores     *StoreRepository
	ratingRepo *RatingRepository
	committed  bool
	rolledBack bool
	mu         sync.Mutex
}

func newTransaction(repo *Repository, st *state) *Transaction {
	tx := &Transaction{
		repo: repo,
		st:   st,
	}
	tx.users = &UserRepository{repo: repo, tx: tx}
	tx.stores = &StoreRepository{repo: repo, tx: tx}
	tx.ratingRepo = &RatingRepository{repo: repo, tx: tx}
	return tx
}

// Commit publishes the transaction's state to the repository.
func (tx *Transaction) Commit(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed {
		return ratings.NewDatabaseError("TX_ALREADY_COMMITTED", "transaction already committed", nil)
	}
	if tx.rolledBack {
		return ratings.NewDatabaseError("TX_ALREADY_ROLLED_BACK", "transaction already rolled back", nil)
	}

	tx.repo.mu.Lock()
	tx.repo.st = tx.st
	tx.repo.mu.Unlock()

	tx.committed = true
	return nil
}

// Rollback discards the transaction's state. Rolling back after a commit is
// a no-op so callers can defer it unconditionally.
func (tx *Transaction) Rollback(ctx context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.committed || tx.rolledBack {
		return nil
	}

	tx.rolledBack = true
	return nil
}

// Users returns a user repository bound to this transaction.
func (tx *Transaction) Users() ratings.UserRepository {
	return tx.users
}

// Stores returns a store repository bound to this transaction.
func (tx *Transaction) Stores() ratings.StoreRepository {
	return tx.stores
}

// Ratings returns a rating repository bound to this transaction.
func (tx *Transaction) Ratings() ratings.RatingRepository {
	return tx.ratingRepo
}
