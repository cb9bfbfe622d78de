package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"userlist/internal/domain"
)

const countKey = "userapi:users:count"

// New creates a Redis client and checks the connection.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("adapters/cache: ping: %w", err)
	}

	return client, nil
}

// CountCache keeps the total user count in Redis for ttl.
type CountCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCountCache returns a cache backed by client. A nil client yields a cache
// that never hits.
func NewCountCache(client *redis.Client, ttl time.Duration) *CountCache {
	return &CountCache{client: client, ttl: ttl}
}

var _ domain.CountCache = (*CountCache)(nil)

// Get returns the cached count, with ok false on a miss.
func (c *CountCache) Get(ctx context.Context) (int, bool, error) {
	if c == nil || c.client == nil {
		return 0, false, nil
	}
	n, err := c.client.Get(ctx, countKey).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("adapters/cache: get count: %w", err)
	}
	return n, true, nil
}

// Set stores the count until the ttl elapses.
func (c *CountCache) Set(ctx context.Context, count int) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, countKey, count, c.ttl).Err(); err != nil {
		return fmt.Errorf("adapters/cache: set count: %w", err)
	}
	return nil
}

// Invalidate drops the cached count.
func (c *CountCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, countKey).Err(); err != nil {
		return fmt.Errorf("adapters/cache: invalidate count: %w", err)
	}
	return nil
}
