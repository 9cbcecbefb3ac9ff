package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quorumhq/notify/pkg/logger"
)

const (
	unreadEpochKey  = "notify:unread:epoch"
	defaultCacheTTL = 5 * time.Minute
)

// UnreadCache decorates a Storage with a Redis read-through cache for
// CountUnread. Mutations touching a recipient's mailbox invalidate that
// recipient's counter; cross-recipient mutations (MarkManyRead) bump a cache
// epoch instead, invalidating every counter at once. Redis failures are
// logged and fall through to the underlying storage.
type UnreadCache struct {
	Storage
	rdb redis.UniversalClient
	ttl time.Duration
	log *slog.Logger
}

// UnreadCacheOption configures an UnreadCache.
type UnreadCacheOption func(*UnreadCache)

// WithCacheTTL sets the counter expiry.
func WithCacheTTL(ttl time.Duration) UnreadCacheOption {
	return func(c *UnreadCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for cache fall-through events.
func WithCacheLogger(log *slog.Logger) UnreadCacheOption {
	return func(c *UnreadCache) {
		if log != nil {
			c.log = log
		}
	}
}

// NewUnreadCache wraps the storage with a Redis-backed unread counter cache.
func NewUnreadCache(inner Storage, rdb redis.UniversalClient, opts ...UnreadCacheOption) *UnreadCache {
	c := &UnreadCache{
		Storage: inner,
		rdb:     rdb,
		ttl:     defaultCacheTTL,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *UnreadCache) CountUnread(ctx context.Context, recipient string) (int64, error) {
	key := c.key(ctx, recipient)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
			return count, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.LogAttrs(ctx, slog.LevelWarn, "unread cache read failed, falling through",
			logger.Recipient(recipient),
			logger.Error(err),
		)
	}

	count, err := c.Storage.CountUnread(ctx, recipient)
	if err != nil {
		return 0, err
	}

	if err := c.rdb.Set(ctx, key, count, c.ttl).Err(); err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "unread cache write failed",
			logger.Recipient(recipient),
			logger.Error(err),
		)
	}
	return count, nil
}

func (c *UnreadCache) Create(ctx context.Context, n Notification) error {
	if err := c.Storage.Create(ctx, n); err != nil {
		return err
	}
	c.invalidate(ctx, n.Recipient)
	return nil
}

func (c *UnreadCache) Update(ctx context.Context, id string, fields UpdateFields) (*Notification, error) {
	n, err := c.Storage.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if fields.Read != nil {
		c.invalidate(ctx, n.Recipient)
	}
	return n, nil
}

func (c *UnreadCache) MarkRead(ctx context.Context, id string) (*Notification, error) {
	n, err := c.Storage.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, n.Recipient)
	return n, nil
}

func (c *UnreadCache) MarkManyRead(ctx context.Context, ids []string) (int64, error) {
	changed, err := c.Storage.MarkManyRead(ctx, ids)
	if err != nil {
		return 0, err
	}
	// The affected recipients are unknown here, so age out every counter.
	if changed > 0 {
		c.bumpEpoch(ctx)
	}
	return changed, nil
}

func (c *UnreadCache) Delete(ctx context.Context, id string) error {
	// Look the record up first; after deletion its recipient is gone.
	n, err := c.Storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			return c.Storage.Delete(ctx, id)
		}
		return err
	}

	if err := c.Storage.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, n.Recipient)
	return nil
}

func (c *UnreadCache) DeleteAllForRecipient(ctx context.Context, recipient string) (int64, error) {
	deleted, err := c.Storage.DeleteAllForRecipient(ctx, recipient)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, recipient)
	return deleted, nil
}

func (c *UnreadCache) key(ctx context.Context, recipient string) string {
	epoch, err := c.rdb.Get(ctx, unreadEpochKey).Result()
	if err != nil {
		epoch = "0"
	}
	return fmt.Sprintf("notify:unread:%s:%s", epoch, recipient)
}

func (c *UnreadCache) invalidate(ctx context.Context, recipient string) {
	if err := c.rdb.Del(ctx, c.key(ctx, recipient)).Err(); err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "unread cache invalidation failed",
			logger.Recipient(recipient),
			logger.Error(err),
		)
	}
}

func (c *UnreadCache) bumpEpoch(ctx context.Context) {
	if err := c.rdb.Incr(ctx, unreadEpochKey).Err(); err != nil {
		c.log.LogAttrs(ctx, slog.LevelWarn, "unread cache epoch bump failed",
			logger.Error(err),
		)
	}
}
