package notifications

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadKeyPrefix = "notifications:unread:"

// UnreadCache caches per-user unread counts in Redis. The unread badge is
// polled far more often than it changes, so the count is cached on read and
// invalidated whenever a notification is created or marked read. The cache
// is best effort; a Redis failure degrades to counting in the database.
type UnreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUnreadCache creates an unread-count cache with the given TTL.
// A zero TTL defaults to one minute.
func NewUnreadCache(client *redis.Client, ttl time.Duration) *UnreadCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &UnreadCache{client: client, ttl: ttl}
}

// Get returns the cached count and whether it was present.
func (c *UnreadCache) Get(ctx context.Context, userID string) (int64, bool) {
	val, err := c.client.Get(ctx, unreadKeyPrefix+userID).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

// Set stores the count. Failures are ignored.
func (c *UnreadCache) Set(ctx context.Context, userID string, count int64) {
	c.client.Set(ctx, unreadKeyPrefix+userID, strconv.FormatInt(count, 10), c.ttl)
}

// Invalidate drops the cached count so the next read recomputes it.
// Failures are ignored; the TTL bounds staleness.
func (c *UnreadCache) Invalidate(ctx context.Context, userID string) {
	c.client.Del(ctx, unreadKeyPrefix+userID)
}
