package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
)

var (
	// ErrNotFound is returned when no link has the requested short ID.
	ErrNotFound = errors.New("link not found")
	// ErrDuplicateShortID is returned when the short ID is already taken.
	// Callers retry with a fresh ID.
	ErrDuplicateShortID = errors.New("short id already exists")
)

// Store persists links. A successful Create is visible to every later
// FindByShortID.
type Store interface {
	Create(ctx context.Context, shortID, originalURL string, expiresAt *string) (*domain.Link, error)
	FindByShortID(ctx context.Context, shortID string) (*domain.Link, error)
	Ping(ctx context.Context) error
	Close() error
}

// ExpirationRow is the projection scanned by the maintenance pass.
type ExpirationRow struct {
	ID        int64
	ShortID   string
	ExpiresAt string
}

// ExpirationRepairer is the maintenance-only capability used to rewrite
// malformed expiresAt values. It is not part of the request path.
type ExpirationRepairer interface {
	// ScanExpirations calls fn once for every link with a non-null expiresAt.
	ScanExpirations(ctx context.Context, fn func(ExpirationRow) error) error
	// SetExpiration overwrites expiresAt for the link with the given ID;
	// nil stores NULL.
	SetExpiration(ctx context.Context, id int64, expiresAt *string) error
}

// Cache holds immutable link records keyed by short ID. It never stores the
// expiration decision; callers re-check expiresAt on every resolution.
type Cache interface {
	GetLink(ctx context.Context, shortID string) (*domain.Link, bool, error)
	PutLink(ctx context.Context, link *domain.Link) error
	Invalidate(ctx context.Context, shortID string) error
}
