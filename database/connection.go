package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	// PostgreSQL driver
	_ "github.com/lib/pq"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection tuning for Open.
const (
	pingAttempts = 5
	pingBackoff  = 500 * time.Millisecond
)

// Open opens a PostgreSQL connection pool for dsn and pings it, retrying with
// exponential backoff while the server is still starting.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	logger.Info("initializing postgresql database connection")

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").Wrap(err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	attempt := 0
	backoff := retry.WithMaxRetries(pingAttempts-1, retry.NewExponential(pingBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("database ping failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, oops.Code("DB_PING_FAILED").With("attempts", attempt).Wrap(err)
	}

	logger.Info("postgresql database connection established")
	return db, nil
}
