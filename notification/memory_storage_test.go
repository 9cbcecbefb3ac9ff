package notification_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumhq/notify/notification"
)

func seedStorage(t *testing.T, store *notification.MemoryStorage, count int, recipient string) []notification.Notification {
	t.Helper()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	seeded := make([]notification.Notification, 0, count)
	for i := 0; i < count; i++ {
		n := notification.Notification{
			ID:        fmt.Sprintf("%s-%d", recipient, i),
			Emitter:   "scheduler",
			Recipient: recipient,
			Subject:   fmt.Sprintf("subject %d", i),
			Body:      "body",
			Kind:      notification.KindAssignment,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.Create(context.Background(), n))
		seeded = append(seeded, n)
	}
	return seeded
}

func TestMemoryStorage_GetAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notification.NewMemoryStorage()
	seedStorage(t, store, 3, "alice")

	t.Run("get returns the stored record", func(t *testing.T) {
		n, err := store.Get(ctx, "alice-1")
		require.NoError(t, err)
		assert.Equal(t, "subject 1", n.Subject)
	})

	t.Run("unknown id yields not found", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
	})

	t.Run("malformed id behaves like an unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, "not a real id %%%")
		assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "alice-0"))
		_, err := store.Get(ctx, "alice-0")
		assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "alice-0"), notification.ErrNotificationNotFound)
	})
}

func TestMemoryStorage_ListOrderingAndFilters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notification.NewMemoryStorage()
	seedStorage(t, store, 5, "alice")
	seedStorage(t, store, 2, "bob")

	t.Run("newest first", func(t *testing.T) {
		items, err := store.List(ctx, notification.ListFilter{Recipient: "alice"})
		require.NoError(t, err)
		require.Len(t, items, 5)
		for i := 1; i < len(items); i++ {
			assert.True(t, items[i].Timestamp.Before(items[i-1].Timestamp) ||
				items[i].Timestamp.Equal(items[i-1].Timestamp))
		}
	})

	t.Run("recipient filter excludes others", func(t *testing.T) {
		items, err := store.List(ctx, notification.ListFilter{Recipient: "bob"})
		require.NoError(t, err)
		require.Len(t, items, 2)
		for _, n := range items {
			assert.Equal(t, "bob", n.Recipient)
		}
	})

	t.Run("time window bounds the logical timestamp", func(t *testing.T) {
		from := time.Date(2026, 2, 1, 13, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 1, 15, 0, 0, 0, time.UTC)
		items, err := store.List(ctx, notification.ListFilter{Recipient: "alice", From: from, To: to})
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("read filter", func(t *testing.T) {
		_, err := store.MarkRead(ctx, "alice-2")
		require.NoError(t, err)

		read := true
		items, err := store.List(ctx, notification.ListFilter{Recipient: "alice", Read: &read})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "alice-2", items[0].ID)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		items, err := store.List(ctx, notification.ListFilter{Recipient: "alice", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestMemoryStorage_Search(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notification.NewMemoryStorage()
	seedStorage(t, store, 7, "alice")

	page, err := store.Search(ctx, notification.ListFilter{Recipient: "alice", Limit: 3, Page: 2})
	require.NoError(t, err)

	assert.EqualValues(t, 7, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 3)

	last, err := store.Search(ctx, notification.ListFilter{Recipient: "alice", Limit: 3, Page: 3})
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)

	beyond, err := store.Search(ctx, notification.ListFilter{Recipient: "alice", Limit: 3, Page: 9})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.EqualValues(t, 7, beyond.Total)
}

func TestMemoryStorage_ReadState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notification.NewMemoryStorage()
	seedStorage(t, store, 4, "alice")

	count, err := store.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)

	t.Run("mark many counts only actual flips", func(t *testing.T) {
		changed, err := store.MarkManyRead(ctx, []string{"alice-0", "alice-1", "missing"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, changed)

		// A second pass flips nothing.
		changed, err = store.MarkManyRead(ctx, []string{"alice-0", "alice-1"})
		require.NoError(t, err)
		assert.Zero(t, changed)

		count, err := store.CountUnread(ctx, "alice")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("update flips read back", func(t *testing.T) {
		unread := false
		n, err := store.Update(ctx, "alice-0", notification.UpdateFields{Read: &unread})
		require.NoError(t, err)
		assert.False(t, n.Read)
	})
}

func TestMemoryStorage_DeleteAllForRecipient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notification.NewMemoryStorage()
	seedStorage(t, store, 3, "alice")
	seedStorage(t, store, 2, "bob")

	deleted, err := store.DeleteAllForRecipient(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	remaining, err := store.List(ctx, notification.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	deleted, err = store.DeleteAllForRecipient(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
