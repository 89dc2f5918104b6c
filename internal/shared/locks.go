package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AccountLockKey builds redis keys for per-account finance critical sections.
func AccountLockKey(accountID int64) string {
	return fmt.Sprintf("finance:account:%d:lock", accountID)
}

// AccountLocker serializes statement generation and imports per account.
// Different accounts never contend; the same account is single-writer.
type AccountLocker struct {
	client  *redis.Client
	ttl     time.Duration
	maxWait time.Duration
}

// NewAccountLocker constructs the locker. ttl bounds how long a crashed
// holder can wedge an account; maxWait bounds how long Acquire blocks.
func NewAccountLocker(client *redis.Client, ttl, maxWait time.Duration) *AccountLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}
	return &AccountLocker{client: client, ttl: ttl, maxWait: maxWait}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Acquire takes the per-account lock, polling until maxWait elapses.
// Returns ErrLockNotAcquired when the account stays busy; callers treat
// that as a retryable conflict rather than queueing indefinitely.
func (l *AccountLocker) Acquire(ctx context.Context, accountID int64) (release func(), err error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	key := AccountLockKey(accountID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.maxWait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("shared: acquire lock: %w", err)
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
