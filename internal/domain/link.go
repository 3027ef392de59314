package domain

import "time"

// Link is the single persisted entity: a short redirect to an original URL.
//
// A Link is uniquely identified by its ShortID. Once created it is never
// mutated by the request path; only the maintenance repair pass may rewrite
// ExpiresAt.
type Link struct {
	// ID is assigned by the store on insert and never reused.
	ID int64 `json:"id"`

	// ShortID is the URL-safe token used in /r/{shortId}.
	ShortID string `json:"shortId"`

	// OriginalURL is the redirect destination.
	OriginalURL string `json:"originalUrl"`

	// ExpiresAt is nil when the link never expires. Otherwise it holds the
	// canonical form produced by CanonicalExpiration.
	ExpiresAt *string `json:"expiresAt,omitempty"`

	// CreatedAt is set by the store at insert time.
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy so callers cannot alias cached records.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	c := *l
	if l.ExpiresAt != nil {
		v := *l.ExpiresAt
		c.ExpiresAt = &v
	}
	return &c
}
