package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

var (
	sharedMu   sync.Mutex
	sharedPool *Pool
)

// Shared returns the process-wide pool, creating it on first use.
// A failed creation is not cached; the next call tries again.
// Later calls return the existing pool regardless of dsn.
func Shared(ctx context.Context, dsn string) (*Pool, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedPool != nil {
		return sharedPool, nil
	}

	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	sharedPool = pool
	return sharedPool, nil
}

// CloseShared closes the process-wide pool if one was created.
func CloseShared() {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedPool != nil {
		sharedPool.Close()
		sharedPool = nil
	}
}

// PostgreSQL error codes
const (
	pgErrUniqueViolation = "23505" // unique_violation
)

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}

	return false
}
