package notification_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumhq/notify/notification"
)

var errFakeRedisDown = errors.New("fake redis down")

// fakeRedis implements the handful of commands the unread cache issues.
// The embedded interface panics on anything else, which keeps the cache's
// command surface honest.
type fakeRedis struct {
	redis.UniversalClient
	mu   sync.Mutex
	data map[string]string
	fail bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return redis.NewStringResult("", errFakeRedisDown)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return redis.NewStatusResult("", errFakeRedisDown)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return redis.NewIntResult(0, errFakeRedisDown)
	}
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return redis.NewIntResult(0, errFakeRedisDown)
	}
	var n int64
	fmt.Sscan(f.data[key], &n)
	n++
	f.data[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newUnreadCache(t *testing.T) (*notification.UnreadCache, *notification.MemoryStorage, *fakeRedis) {
	t.Helper()

	inner := notification.NewMemoryStorage()
	rdb := newFakeRedis()
	cache := notification.NewUnreadCache(inner, rdb, notification.WithCacheLogger(quietLogger()))
	return cache, inner, rdb
}

func unreadNotification(id, recipient string) notification.Notification {
	return notification.Notification{
		ID:        id,
		Emitter:   "scheduler",
		Recipient: recipient,
		Subject:   "subject",
		Body:      "body",
		Kind:      notification.KindAssignment,
		Timestamp: time.Now(),
	}
}

func TestUnreadCache_ReadThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, inner, _ := newUnreadCache(t)

	require.NoError(t, cache.Create(ctx, unreadNotification("n-1", "alice")))

	count, err := cache.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Write around the cache; the cached counter must not notice.
	require.NoError(t, inner.Create(ctx, unreadNotification("n-2", "alice")))
	require.NoError(t, inner.Create(ctx, unreadNotification("n-3", "alice")))

	count, err = cache.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "counter should be served from cache")

	// A mutation through the cache invalidates the counter.
	_, err = cache.MarkRead(ctx, "n-1")
	require.NoError(t, err)

	count, err = cache.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "counter should be recomputed after invalidation")
}

func TestUnreadCache_Invalidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	warm := func(t *testing.T, cache *notification.UnreadCache, recipient string, want int64) {
		t.Helper()
		count, err := cache.CountUnread(ctx, recipient)
		require.NoError(t, err)
		require.EqualValues(t, want, count)
	}

	t.Run("create", func(t *testing.T) {
		t.Parallel()
		cache, _, _ := newUnreadCache(t)

		require.NoError(t, cache.Create(ctx, unreadNotification("n-1", "alice")))
		warm(t, cache, "alice", 1)

		require.NoError(t, cache.Create(ctx, unreadNotification("n-2", "alice")))
		warm(t, cache, "alice", 2)
	})

	t.Run("read-state update", func(t *testing.T) {
		t.Parallel()
		cache, _, _ := newUnreadCache(t)

		require.NoError(t, cache.Create(ctx, unreadNotification("n-1", "alice")))
		warm(t, cache, "alice", 1)

		read := true
		_, err := cache.Update(ctx, "n-1", notification.UpdateFields{Read: &read})
		require.NoError(t, err)
		warm(t, cache, "alice", 0)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		cache, _, _ := newUnreadCache(t)

		require.NoError(t, cache.Create(ctx, unreadNotification("n-1", "alice")))
		require.NoError(t, cache.Create(ctx, unreadNotification("n-2", "alice")))
		warm(t, cache, "alice", 2)

		require.NoError(t, cache.Delete(ctx, "n-1"))
		warm(t, cache, "alice", 1)

		assert.ErrorIs(t, cache.Delete(ctx, "missing"), notification.ErrNotificationNotFound)
	})

	t.Run("delete all for recipient", func(t *testing.T) {
		t.Parallel()
		cache, _, _ := newUnreadCache(t)

		require.NoError(t, cache.Create(ctx, unreadNotification("n-1", "alice")))
		require.NoError(t, cache.Create(ctx, unreadNotification("n-2", "alice")))
		warm(t, cache, "alice", 2)

		deleted, err := cache.DeleteAllForRecipient(ctx, "alice")
		require.NoError(t, err)
		assert.EqualValues(t, 2, deleted)
		warm(t, cache, "alice", 0)
	})
}

func TestUnreadCache_EpochBumpOnMarkManyRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, inner, _ := newUnreadCache(t)

	require.NoError(t, cache.Create(ctx, unreadNotification("a-1", "alice")))
	require.NoError(t, cache.Create(ctx, unreadNotification("b-1", "bob")))

	// Warm both counters, then write around the cache so both go stale.
	for _, recipient := range []string{"alice", "bob"} {
		count, err := cache.CountUnread(ctx, recipient)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	}
	require.NoError(t, inner.Create(ctx, unreadNotification("a-2", "alice")))
	require.NoError(t, inner.Create(ctx, unreadNotification("b-2", "bob")))

	// Marking ids read does not name the affected recipients, so the epoch
	// bump must retire every stale counter at once.
	changed, err := cache.MarkManyRead(ctx, []string{"a-1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, changed)

	count, err := cache.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = cache.CountUnread(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	t.Run("no flips, no bump", func(t *testing.T) {
		// Counters are warm again; marking already-read ids must not retire them.
		require.NoError(t, inner.Create(ctx, unreadNotification("b-3", "bob")))

		changed, err := cache.MarkManyRead(ctx, []string{"a-1"})
		require.NoError(t, err)
		require.Zero(t, changed)

		count, err := cache.CountUnread(ctx, "bob")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count, "stale counter should survive a no-op mark")
	})
}

func TestUnreadCache_FallThroughOnRedisFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, _, rdb := newUnreadCache(t)

	require.NoError(t, cache.Create(ctx, unreadNotification("n-1", "alice")))
	require.NoError(t, cache.Create(ctx, unreadNotification("n-2", "alice")))

	rdb.fail = true

	// Reads fall through to the store.
	count, err := cache.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Mutations still succeed; invalidation failures are logged only.
	_, err = cache.MarkRead(ctx, "n-1")
	require.NoError(t, err)

	count, err = cache.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
