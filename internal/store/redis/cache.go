package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// DefaultLinkTTL is the default lifetime of a cached link record
const DefaultLinkTTL = 10 * time.Minute

// LinkCache caches link records in Redis, shared by every qrlink instance
// pointing at the same database.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLinkCache creates a Redis-backed link cache
func NewLinkCache(client *redis.Client, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &LinkCache{
		client: client,
		ttl:    ttl,
	}
}

// GetLink returns a cached record; a miss is (nil, false, nil)
func (c *LinkCache) GetLink(ctx context.Context, shortID string) (*domain.Link, bool, error) {
	data, err := c.client.Get(ctx, LinkKey(shortID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached link: %w", err)
	}

	var link domain.Link
	if err := json.Unmarshal(data, &link); err != nil {
		// Corrupt entry: drop it and report a miss
		_ = c.client.Del(ctx, LinkKey(shortID)).Err()
		return nil, false, nil
	}
	return &link, true, nil
}

// PutLink stores a record with the cache TTL
func (c *LinkCache) PutLink(ctx context.Context, link *domain.Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}
	if err := c.client.Set(ctx, LinkKey(link.ShortID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache link: %w", err)
	}
	return nil
}

// Invalidate removes a cached record
func (c *LinkCache) Invalidate(ctx context.Context, shortID string) error {
	if err := c.client.Del(ctx, LinkKey(shortID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached link: %w", err)
	}
	return nil
}

var _ store.Cache = (*LinkCache)(nil)
