package lock

import "context"

// DistributedLockManager coordinates work across dispatcher instances.
// TryAcquire is non-blocking, used where a cycle should be skipped rather
// than queued when another instance is already dispatching.
type DistributedLockManager interface {
	Acquire(ctx context.Context, lockID int) error
	TryAcquire(ctx context.Context, lockID int) (bool, error)
	Release(ctx context.Context, lockID int) error
}
