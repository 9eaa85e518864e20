package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// seedLockKey is the advisory lock id held for the duration of a seed run.
const seedLockKey = 7462839

// ErrLocked is returned when another process holds the seed lock.
var ErrLocked = errors.New("another seed run is currently in progress")

// SeedLock holds a session-level advisory lock on a dedicated connection.
type SeedLock struct {
	conn *pgxpool.Conn
}

// AcquireSeedLock takes the seed advisory lock without waiting.
func AcquireSeedLock(ctx context.Context, pool *pgxpool.Pool) (*SeedLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for lock: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", seedLockKey).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to query advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, ErrLocked
	}
	return &SeedLock{conn: conn}, nil
}

// Release unlocks and returns the connection to the pool.
func (l *SeedLock) Release(ctx context.Context) error {
	defer l.conn.Release()
	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", seedLockKey); err != nil {
		return fmt.Errorf("failed to release advisory lock: %w", err)
	}
	return nil
}

// SeedLocker hands out the seed lock for one pool.
type SeedLocker struct {
	Pool *pgxpool.Pool
}

// Lock acquires the seed lock and returns its release function.
func (l SeedLocker) Lock(ctx context.Context) (func(context.Context) error, error) {
	lock, err := AcquireSeedLock(ctx, l.Pool)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}
