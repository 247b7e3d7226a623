package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCountCache caches per-user unread-notification counters in Redis so
// badge polling does not hit Postgres on every request.
type UnreadCountCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUnreadCountCache constructs the cache with the given entry TTL.
func NewUnreadCountCache(client *redis.Client, ttl time.Duration) *UnreadCountCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UnreadCountCache{client: client, ttl: ttl}
}

func unreadKey(userID string) string {
	return fmt.Sprintf("notifications:unread:%s", userID)
}

// Get returns the cached count and whether the key was present.
func (c *UnreadCountCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	raw, err := c.client.Get(ctx, unreadKey(userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get unread count: %w", err)
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return count, true, nil
}

// Set stores the count under the cache TTL.
func (c *UnreadCountCache) Set(ctx context.Context, userID string, count int64) error {
	if err := c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("set unread count: %w", err)
	}
	return nil
}

// Invalidate drops the cached count after any notification write for the user.
func (c *UnreadCountCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, unreadKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate unread count: %w", err)
	}
	return nil
}
