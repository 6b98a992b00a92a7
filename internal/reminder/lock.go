package reminder

import (
	"context"
	"time"
)

// ReleaseFunc releases a held run lock.
type ReleaseFunc func(ctx context.Context) error

// RunLock serializes scanner runs across processes.
type RunLock interface {
	// Acquire takes the lock for at most ttl. It returns ErrRunLocked when
	// another holder has it.
	Acquire(ctx context.Context, ttl time.Duration) (ReleaseFunc, error)
}

// NoopRunLock always succeeds. It is used when only one process runs the
// scanner.
type NoopRunLock struct{}

// Acquire implements RunLock.
func (NoopRunLock) Acquire(context.Context, time.Duration) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}
