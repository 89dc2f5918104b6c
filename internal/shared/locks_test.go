package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLockClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAccountLockerAcquireRelease(t *testing.T) {
	client := newLockClient(t)
	locker := NewAccountLocker(client, time.Second, 100*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)

	// Same account stays busy until released.
	_, err = locker.Acquire(ctx, 1)
	require.ErrorIs(t, err, ErrLockNotAcquired)

	release()

	release2, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)
	release2()
}

func TestAccountLockerIndependentAccounts(t *testing.T) {
	client := newLockClient(t)
	locker := NewAccountLocker(client, time.Second, 100*time.Millisecond)
	ctx := context.Background()

	release1, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)
	defer release1()

	release2, err := locker.Acquire(ctx, 2)
	require.NoError(t, err)
	release2()
}

func TestAccountLockerReleaseIsScopedToToken(t *testing.T) {
	client := newLockClient(t)
	locker := NewAccountLocker(client, time.Second, 100*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)

	// A stale release must not free a lock re-acquired by someone else.
	release()
	other, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)
	release() // token no longer matches; this is a no-op

	_, err = locker.Acquire(ctx, 1)
	require.ErrorIs(t, err, ErrLockNotAcquired)
	other()
}

func TestAccountLockerNilClientIsNoop(t *testing.T) {
	var locker *AccountLocker
	release, err := locker.Acquire(context.Background(), 1)
	require.NoError(t, err)
	release()
}

func TestAccountLockKey(t *testing.T) {
	require.Equal(t, "finance:account:42:lock", AccountLockKey(42))
}
