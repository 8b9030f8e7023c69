package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisSlotLocker(client, 5*time.Second), client
}

func TestWithSlotLockRunsCriticalSection(t *testing.T) {
	locker, _ := newTestLocker(t)

	ran := false
	err := locker.WithSlotLock(context.Background(), 1, time.Unix(1747738800, 0), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestWithSlotLockRejectsConcurrentHolder(t *testing.T) {
	locker, _ := newTestLocker(t)

	slot := time.Unix(1747738800, 0)
	doctorID := int64(7)

	err := locker.WithSlotLock(context.Background(), doctorID, slot, func(ctx context.Context) error {
		inner := locker.WithSlotLock(ctx, doctorID, slot, func(ctx context.Context) error {
			t.Fatal("second holder must not enter the critical section")
			return nil
		})
		require.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
}

func TestWithSlotLockDifferentSlotsDoNotContend(t *testing.T) {
	locker, _ := newTestLocker(t)

	slot := time.Unix(1747738800, 0)

	err := locker.WithSlotLock(context.Background(), 1, slot, func(ctx context.Context) error {
		return locker.WithSlotLock(ctx, 2, slot, func(ctx context.Context) error {
			return locker.WithSlotLock(ctx, 1, slot.Add(30*time.Minute), func(ctx context.Context) error {
				return nil
			})
		})
	})
	require.NoError(t, err)
}

func TestWithSlotLockReleasesAfterUse(t *testing.T) {
	locker, client := newTestLocker(t)

	slot := time.Unix(1747738800, 0)
	err := locker.WithSlotLock(context.Background(), 3, slot, func(ctx context.Context) error {
		return errors.New("boom")
	})
	require.Error(t, err)

	// Lock must be gone even though the critical section failed.
	n, err := client.Exists(context.Background(), "lock:booking:3:1747738800").Result()
	require.NoError(t, err)
	require.Zero(t, n)

	err = locker.WithSlotLock(context.Background(), 3, slot, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
}
