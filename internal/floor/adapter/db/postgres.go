package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/config"
	"whos-got-my-order/pkg/logger"
)

type DB struct {
	Pool  *pgxpool.Pool
	mylog logger.Logger
}

// Start opens a connection pool and verifies it with a ping.
func Start(ctx context.Context, cfg *config.Postgres, mylog logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool, mylog: mylog}, nil
}

func (db *DB) Close() error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	return nil
}

func (db *DB) IsAlive(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// withRetry runs op up to StoreRetryAttempts times with a fixed backoff, then
// wraps the last error in ErrStoreUnavailable. Non-transient errors (not
// found, version conflict) pass through untouched.
func withRetry(ctx context.Context, op func() error) error {
	var last error
	for attempt := 0; attempt < core.StoreRetryAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrVersionConflict) {
			return err
		}
		last = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(core.StoreRetryBackoff):
		}
	}
	return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, last)
}
