package notification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumhq/notify/notification"
	"github.com/quorumhq/notify/pkg/registry"
	"github.com/quorumhq/notify/pkg/validator"
)

// failingStorage wraps a Storage and fails Create for one recipient.
type failingStorage struct {
	notification.Storage
	failFor string
}

var errStorageDown = errors.New("storage down")

func (s *failingStorage) Create(ctx context.Context, n notification.Notification) error {
	if n.Recipient == s.failFor {
		return errStorageDown
	}
	return s.Storage.Create(ctx, n)
}

func validInput() notification.Input {
	return notification.Input{
		EventID:   "evt-1",
		Role:      "chair",
		EventTime: time.Now().Add(48 * time.Hour),
	}
}

func TestDispatcher_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("persists then pushes to a connected recipient", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStorage()
		live := registry.New(registry.WithSweepInterval(0))
		defer live.Close()
		disp := notification.NewDispatcher(store, live)

		conn := live.Connect("alice")

		n, err := disp.Send(ctx, notification.KindAssignment, "scheduler", "alice", validInput())
		require.NoError(t, err)
		require.NotEmpty(t, n.ID)

		stored, err := store.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.Subject, stored.Subject)
		assert.False(t, stored.Read)

		select {
		case ev := <-conn.Events():
			assert.Equal(t, notification.EventNewNotification, ev.Type)
			summary, ok := ev.Data.(notification.Summary)
			require.True(t, ok)
			assert.Equal(t, n.ID, summary.ID)
		case <-time.After(time.Second):
			t.Fatal("expected a live event")
		}
	})

	t.Run("succeeds when the recipient is offline", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStorage()
		live := registry.New(registry.WithSweepInterval(0))
		defer live.Close()
		disp := notification.NewDispatcher(store, live)

		n, err := disp.Send(ctx, notification.KindAssignment, "scheduler", "nobody", validInput())
		require.NoError(t, err)

		_, err = store.Get(ctx, n.ID)
		assert.NoError(t, err)
	})

	t.Run("persists nothing on validation failure", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStorage()
		live := registry.New(registry.WithSweepInterval(0))
		defer live.Close()
		disp := notification.NewDispatcher(store, live)

		_, err := disp.Send(ctx, notification.KindAssignment, "scheduler", "alice", notification.Input{
			EventID:   "evt-1",
			Role:      "chair",
			EventTime: time.Now().Add(-time.Hour),
		})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		items, err := store.List(ctx, notification.ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestDispatcher_SendMany(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("partial failure isolates recipients", func(t *testing.T) {
		t.Parallel()

		store := &failingStorage{Storage: notification.NewMemoryStorage(), failFor: "carol"}
		live := registry.New(registry.WithSweepInterval(0))
		defer live.Close()
		disp := notification.NewDispatcher(store, live)

		result, err := disp.SendMany(ctx, notification.KindAssignment, "scheduler",
			[]string{"alice", "bob", "carol"}, validInput())
		require.NoError(t, err)

		assert.Len(t, result.Succeeded, 2)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, "carol", result.Failed[0].Recipient)
		assert.Contains(t, result.Failed[0].Reason, "storage down")
	})

	t.Run("dedupes and drops blank recipients", func(t *testing.T) {
		t.Parallel()

		store := notification.NewMemoryStorage()
		live := registry.New(registry.WithSweepInterval(0))
		defer live.Close()
		disp := notification.NewDispatcher(store, live)

		result, err := disp.SendMany(ctx, notification.KindAssignment, "scheduler",
			[]string{"alice", " alice ", "", "  ", "bob"}, validInput())
		require.NoError(t, err)

		assert.Len(t, result.Succeeded, 2)
		assert.Empty(t, result.Failed)

		items, err := store.List(ctx, notification.ListFilter{Recipient: "alice"})
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("no usable recipients is an error", func(t *testing.T) {
		t.Parallel()

		disp := notification.NewDispatcher(notification.NewMemoryStorage(), nil)

		_, err := disp.SendMany(ctx, notification.KindAssignment, "scheduler",
			[]string{"", "   "}, validInput())
		assert.ErrorIs(t, err, notification.ErrNoRecipients)
	})
}

func TestDispatcher_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := notification.NewMemoryStorage()
	live := registry.New(registry.WithSweepInterval(0))
	defer live.Close()
	disp := notification.NewDispatcher(store, live)

	n, err := disp.Send(ctx, notification.KindAssignment, "scheduler", "alice", validInput())
	require.NoError(t, err)

	conn := live.Connect("alice")

	t.Run("mark read pushes a lifecycle event", func(t *testing.T) {
		updated, err := disp.MarkRead(ctx, n.ID)
		require.NoError(t, err)
		assert.True(t, updated.Read)

		select {
		case ev := <-conn.Events():
			assert.Equal(t, notification.EventMarkedRead, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("expected a marked_read event")
		}
	})

	t.Run("update rejects out-of-bounds fields", func(t *testing.T) {
		long := make([]byte, 1200)
		for i := range long {
			long[i] = 'x'
		}
		body := string(long)
		_, err := disp.Update(ctx, n.ID, notification.UpdateFields{Body: &body})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
	})

	t.Run("delete pushes a lifecycle event", func(t *testing.T) {
		require.NoError(t, disp.Delete(ctx, n.ID))

		select {
		case ev := <-conn.Events():
			assert.Equal(t, notification.EventDeleted, ev.Type)
		case <-time.After(time.Second):
			t.Fatal("expected a deleted event")
		}

		_, err := disp.Get(ctx, n.ID)
		assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
	})

	t.Run("delete of an unknown id is not found", func(t *testing.T) {
		assert.ErrorIs(t, disp.Delete(ctx, "missing"), notification.ErrNotificationNotFound)
	})
}
