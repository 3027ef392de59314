package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// CanonicalLayout is the only format expiresAt is ever stored in:
// ISO-8601, UTC, millisecond precision (e.g. 2030-01-02T15:04:05.000Z).
// Lexical and chronological order agree for values in this form.
const CanonicalLayout = "2006-01-02T15:04:05.000Z"

// DisplayLayout renders an expiration for humans on the expired page.
const DisplayLayout = "2 January 2006, 15:04:05 MST"

// UnknownDate is shown when a stored expiration cannot be parsed.
const UnknownDate = "unknown date"

// strictLayouts are tried before falling back to dateparse. Values without an
// offset are interpreted as UTC.
var strictLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseExpiration parses a user supplied or stored expiration value into an
// instant. It reports false when the value is blank or unparseable.
func ParseExpiration(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range strictLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}

	return parseLenient(s)
}

func parseLenient(s string) (t time.Time, ok bool) {
	// dateparse panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || parsed.IsZero() {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// CanonicalExpiration formats t in CanonicalLayout.
func CanonicalExpiration(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(CanonicalLayout)
}

// NormalizeExpiration validates a candidate expiration at instant now.
//
// A blank value means "never expires" and yields (nil, nil). An unparseable
// value fails with ErrInvalidExpiration, and an instant at or before now fails
// with ErrExpirationInPast. Otherwise the canonical string is returned.
func NormalizeExpiration(raw string, now time.Time) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	t, ok := ParseExpiration(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExpiration, raw)
	}

	t = t.Truncate(time.Millisecond)
	if !t.After(now) {
		return nil, ErrExpirationInPast
	}

	canonical := CanonicalExpiration(t)
	return &canonical, nil
}

// IsExpiredAt reports whether a stored expiration has passed at now.
// Unparseable values count as expired.
func IsExpiredAt(stored string, now time.Time) bool {
	t, ok := ParseExpiration(stored)
	if !ok {
		return true
	}
	return !now.Before(t)
}

// FormatDisplay renders a stored expiration for humans in loc, or UnknownDate
// when the value is unparseable.
func FormatDisplay(stored string, loc *time.Location) string {
	t, ok := ParseExpiration(stored)
	if !ok {
		return UnknownDate
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}

// RepairAction says what the maintenance pass must do with a stored value.
type RepairAction int

const (
	// RepairNone means the value is already canonical.
	RepairNone RepairAction = iota
	// RepairNormalize means the value is valid but must be rewritten.
	RepairNormalize
	// RepairClear means the value is unparseable and must become NULL.
	RepairClear
)

func (a RepairAction) String() string {
	switch a {
	case RepairNone:
		return "none"
	case RepairNormalize:
		return "normalize"
	case RepairClear:
		return "clear"
	default:
		return "unknown"
	}
}

// RepairResult is the outcome of RepairExpiration.
type RepairResult struct {
	Action RepairAction
	// Value is the canonical replacement for RepairNormalize, nil otherwise.
	Value *string
}

// RepairExpiration decides how to fix a stored expiresAt value. It is
// idempotent: a canonical input always yields RepairNone.
func RepairExpiration(stored string) RepairResult {
	t, ok := ParseExpiration(stored)
	if !ok {
		return RepairResult{Action: RepairClear}
	}

	canonical := CanonicalExpiration(t)
	if canonical == stored {
		return RepairResult{Action: RepairNone}
	}
	return RepairResult{Action: RepairNormalize, Value: &canonical}
}
