package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/schedule-master-api/internal/reminder"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultLockKey is the key the reminder scanner locks.
const DefaultLockKey = "schedule-master:reminder-scan"

// releaseScript deletes the key only if it still holds our token, so a
// run that outlived its TTL never frees a lock someone else now holds.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock implements reminder.RunLock with SET NX PX.
type RunLock struct {
	client goredis.UniversalClient
	key    string
	logger *slog.Logger
}

var _ reminder.RunLock = (*RunLock)(nil)

// NewRunLock creates a lock on key. An empty key uses DefaultLockKey.
func NewRunLock(client goredis.UniversalClient, key string, logger *slog.Logger) *RunLock {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultLockKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunLock{
		client: client,
		key:    key,
		logger: logger.With(slog.String("component", "redis_run_lock")),
	}
}

// Acquire implements reminder.RunLock.
func (l *RunLock) Acquire(ctx context.Context, ttl time.Duration) (reminder.ReleaseFunc, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire reminder run lock: %w", err)
	}
	if !ok {
		return nil, reminder.ErrRunLocked
	}

	l.logger.Debug("reminder run lock acquired", slog.Duration("ttl", ttl))

	return func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to release reminder run lock: %w", err)
		}
		if deleted == 0 {
			l.logger.Warn("reminder run lock expired before release")
		}
		return nil
	}, nil
}
