package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxURLLength bounds stored destinations.
const MaxURLLength = 2048

// blockedSchemes are never valid redirect targets.
var blockedSchemes = map[string]bool{
	"javascript": true,
	"data":       true,
	"vbscript":   true,
}

// ValidateURL checks that raw is a syntactically valid absolute URL and
// returns it trimmed.
func ValidateURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrURLRequired
	}
	if len(s) > MaxURLLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, MaxURLLength)
	}

	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return "", ErrInvalidURL
	}

	scheme := strings.ToLower(u.Scheme)
	if blockedSchemes[scheme] {
		return "", fmt.Errorf("%w: scheme %q is not allowed", ErrInvalidURL, u.Scheme)
	}
	if (scheme == "http" || scheme == "https") && u.Host == "" {
		return "", ErrInvalidURL
	}
	if u.Host == "" && u.Opaque == "" && u.Path == "" {
		return "", ErrInvalidURL
	}

	return s, nil
}
