package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// Store keeps links in process memory. It backs the "memory" driver and the
// package tests; contents are lost on restart.
type Store struct {
	mu      sync.RWMutex
	byShort map[string]*domain.Link // shortId -> Link
	byID    map[int64]*domain.Link  // id -> Link
	nextID  int64
	now     func() time.Time
}

// NewStore creates an empty memory store.
func NewStore() *Store {
	return &Store{
		byShort: make(map[string]*domain.Link),
		byID:    make(map[int64]*domain.Link),
		now:     time.Now,
	}
}

// Create inserts a link, enforcing shortId uniqueness.
func (s *Store) Create(_ context.Context, shortID, originalURL string, expiresAt *string) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byShort[shortID]; exists {
		return nil, store.ErrDuplicateShortID
	}

	s.nextID++
	link := &domain.Link{
		ID:          s.nextID,
		ShortID:     shortID,
		OriginalURL: originalURL,
		CreatedAt:   s.now().UTC(),
	}
	if expiresAt != nil {
		v := *expiresAt
		link.ExpiresAt = &v
	}

	s.byShort[shortID] = link
	s.byID[link.ID] = link
	return link.Clone(), nil
}

// FindByShortID returns a copy of the stored link.
func (s *Store) FindByShortID(_ context.Context, shortID string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.byShort[shortID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return link.Clone(), nil
}

// ScanExpirations visits links with a non-null expiresAt in ID order.
// fn runs without the lock held so it may call SetExpiration.
func (s *Store) ScanExpirations(ctx context.Context, fn func(store.ExpirationRow) error) error {
	s.mu.RLock()
	rows := make([]store.ExpirationRow, 0, len(s.byID))
	for _, link := range s.byID {
		if link.ExpiresAt == nil {
			continue
		}
		rows = append(rows, store.ExpirationRow{
			ID:        link.ID,
			ShortID:   link.ShortID,
			ExpiresAt: *link.ExpiresAt,
		})
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// SetExpiration overwrites expiresAt for id.
func (s *Store) SetExpiration(_ context.Context, id int64, expiresAt *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	if expiresAt == nil {
		link.ExpiresAt = nil
		return nil
	}
	v := *expiresAt
	link.ExpiresAt = &v
	return nil
}

// Count returns the number of stored links.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.byShort)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

var (
	_ store.Store              = (*Store)(nil)
	_ store.ExpirationRepairer = (*Store)(nil)
)
