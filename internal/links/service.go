package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// DefaultMaxAttempts bounds short ID allocation retries on collision.
const DefaultMaxAttempts = 5

// ErrShortIDExhausted is returned when every allocation attempt collided.
var ErrShortIDExhausted = errors.New("could not allocate a unique short id")

// Outcome is the result of resolving a short ID.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeRedirect
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return "redirect"
	case OutcomeExpired:
		return "expired"
	default:
		return "not_found"
	}
}

// Resolution describes what /r/{shortId} should answer.
type Resolution struct {
	Outcome Outcome
	// Target is the original URL, set for OutcomeRedirect.
	Target string
	// ExpiredAt is the human-readable expiration, set for OutcomeExpired.
	ExpiredAt string
	Link      *domain.Link
}

// Service creates and resolves short links.
type Service struct {
	store       store.Store
	cache       store.Cache
	ids         domain.Allocator
	log         logger.Logger
	now         func() time.Time
	maxAttempts int
	displayLoc  *time.Location
	renderer    Renderer
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables read-through caching of link records.
func WithCache(c store.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxAttempts sets the short ID allocation budget.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithDisplayLocation sets the zone used for expired-page dates.
func WithDisplayLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.displayLoc = loc
		}
	}
}

// WithRenderer sets the QR renderer used by Generate.
func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// NewService wires a Service over st.
func NewService(st store.Store, ids domain.Allocator, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:       st,
		ids:         ids,
		log:         log,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
		displayLoc:  time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	return s
}

// Create validates originalURL and expiresAt, then inserts a link under a
// fresh short ID. Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, originalURL, expiresAt string) (*domain.Link, error) {
	target, err := domain.ValidateURL(originalURL)
	if err != nil {
		return nil, err
	}

	canonical, err := domain.NormalizeExpiration(expiresAt, s.now())
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		shortID, err := s.ids.NewShortID()
		if err != nil {
			return nil, err
		}

		link, err := s.store.Create(ctx, shortID, target, canonical)
		if err == nil {
			s.cachePut(ctx, link)
			s.log.Debug("short link created",
				logger.String("short_id", link.ShortID),
				logger.Int("attempt", attempt))
			return link, nil
		}
		if !errors.Is(err, store.ErrDuplicateShortID) {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}

		s.log.Warn("short id collision, retrying",
			logger.String("short_id", shortID),
			logger.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrShortIDExhausted, s.maxAttempts)
}

// Resolve looks up shortID and decides between redirect, expired and not
// found. Expiration is evaluated against the current time on every call.
func (s *Service) Resolve(ctx context.Context, shortID string) (Resolution, error) {
	if !domain.IsShortID(shortID) {
		return Resolution{Outcome: OutcomeNotFound}, nil
	}

	link, err := s.lookup(ctx, shortID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Resolution{Outcome: OutcomeNotFound}, nil
		}
		return Resolution{}, err
	}

	if link.ExpiresAt != nil && domain.IsExpiredAt(*link.ExpiresAt, s.now()) {
		return Resolution{
			Outcome:   OutcomeExpired,
			ExpiredAt: domain.FormatDisplay(*link.ExpiresAt, s.displayLoc),
			Link:      link,
		}, nil
	}

	return Resolution{
		Outcome: OutcomeRedirect,
		Target:  link.OriginalURL,
		Link:    link,
	}, nil
}

func (s *Service) lookup(ctx context.Context, shortID string) (*domain.Link, error) {
	if s.cache != nil {
		link, ok, err := s.cache.GetLink(ctx, shortID)
		switch {
		case err != nil:
			s.log.Warn("link cache read failed",
				logger.String("short_id", shortID),
				logger.Error(err))
		case ok:
			return link, nil
		}
	}

	link, err := s.store.FindByShortID(ctx, shortID)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, link)
	return link, nil
}

func (s *Service) cachePut(ctx context.Context, link *domain.Link) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutLink(ctx, link); err != nil {
		s.log.Warn("link cache write failed",
			logger.String("short_id", link.ShortID),
			logger.Error(err))
	}
}
