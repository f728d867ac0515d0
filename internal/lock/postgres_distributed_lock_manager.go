package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PostgresDistributedLockManager struct {
	db *sql.DB
}

func NewPostgresDistributedLockManager(db *sql.DB) *PostgresDistributedLockManager {
	return &PostgresDistributedLockManager{
		db: db,
	}
}

func (l *PostgresDistributedLockManager) Acquire(ctx context.Context, lockID int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	return nil
}

// TryAcquire returns false without blocking when another session holds the
// lock.
func (l *PostgresDistributedLockManager) TryAcquire(ctx context.Context, lockID int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to try lock: %w", err)
	}

	return acquired, nil
}

func (l *PostgresDistributedLockManager) Release(ctx context.Context, lockID int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockID)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	return nil
}
