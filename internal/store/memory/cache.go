package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// DefaultCleanupInterval is how often expired cache entries are purged.
const DefaultCleanupInterval = 10 * time.Minute

// Cache is an in-process link record cache. It is used when no Redis is
// configured but record caching is enabled.
type Cache struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewCache creates a cache whose entries live for ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		items: gocache.New(ttl, DefaultCleanupInterval),
		ttl:   ttl,
	}
}

func (c *Cache) GetLink(_ context.Context, shortID string) (*domain.Link, bool, error) {
	v, ok := c.items.Get(shortID)
	if !ok {
		return nil, false, nil
	}
	link, ok := v.(*domain.Link)
	if !ok {
		c.items.Delete(shortID)
		return nil, false, nil
	}
	return link.Clone(), true, nil
}

func (c *Cache) PutLink(_ context.Context, link *domain.Link) error {
	c.items.Set(link.ShortID, link.Clone(), c.ttl)
	return nil
}

func (c *Cache) Invalidate(_ context.Context, shortID string) error {
	c.items.Delete(shortID)
	return nil
}

// Len returns the number of cached records, including not yet purged ones.
func (c *Cache) Len() int { return c.items.ItemCount() }

var _ store.Cache = (*Cache)(nil)
