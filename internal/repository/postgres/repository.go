// Package postgres implements the ratings repository interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"

	"github.com/harshal20m/storeratings/internal/config"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

// Repository implements the ratings.Repository interface using PostgreSQL.
type Repository struct {
	db            *sql.DB
	migrationPath string

	users      *UserRepository
	stores     *StoreRepository
	ratingRepo *RatingRepository
}

// NewRepository opens a connection pool and wires the sub-repositories.
func NewRepository(cfg *config.DatabaseConfig) (*Repository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config cannot be nil")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Std())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &Repository{
		db:            db,
		migrationPath: cfg.MigrationPath,
	}
	repo.users = &UserRepository{repo: repo}
	repo.stores = &StoreRepository{repo: repo}
	repo.ratingRepo = &RatingRepository{repo: repo}

	return repo, nil
}

// Migrate runs database migrations.
func (r *Repository) Migrate() error {
	driver, err := migratepg.WithInstance(r.db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(r.migrationPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Health returns the health status of the repository.
func (r *Repository) Health(ctx context.Context) ratings.HealthStatus {
	status := "healthy"
	message := "PostgreSQL repository is operational"
	details := map[string]interface{}{
		"database_type": "postgresql",
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.db.PingContext(pingCtx); err != nil {
		status = "unhealthy"
		message = fmt.Sprintf("Database connection failed: %v", err)
	} else {
		stats := r.db.Stats()
		details["open_connections"] = stats.OpenConnections
		details["in_use"] = stats.InUse
		details["idle"] = stats.Idle
	}

	return ratings.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// Close closes the repository connection and releases resources.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// BeginTx begins a transaction.
func (r *Repository) BeginTx(ctx context.Context) (ratings.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ratings.NewDatabaseError("TX_BEGIN_FAILED", "failed to begin transaction", err)
	}

	return newTransaction(r, tx), nil
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
	stats := &ratings.Stats{}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM stores),
			(SELECT COUNT(*) FROM ratings)`)
	if err := row.Scan(&stats.TotalUsers, &stats.TotalStores, &stats.TotalRatings); err != nil {
		return nil, ratings.NewDatabaseError("STATS_FAILED", "failed to count entities", err)
	}

	return stats, nil
}

// DB returns the underlying database connection (for tests).
func (r *Repository) DB() *sql.DB {
	return r.db
}

// execQuery executes a query and returns the result.
func (r *Repository) execQuery(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ratings.NewDatabaseError("QUERY_FAILED", "database query failed", err)
	}
	return rows, nil
}

// execQueryRow executes a query that returns a single row.
func (r *Repository) execQueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, query, args...)
}

// execCommand executes a command (INSERT, UPDATE, DELETE).
func (r *Repository) execCommand(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, ratings.NewDatabaseError("COMMAND_FAILED", "database command failed", err)
	}
	return result, nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation on
// the named constraint. Errors wrapped by the repository error type are
// unwrapped before inspection.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}
