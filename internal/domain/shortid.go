package domain

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DefaultShortIDLength matches the 8-character IDs of existing links.
	DefaultShortIDLength = 8

	// ShortIDAlphabet is the URL-safe nanoid alphabet.
	ShortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// Allocator produces fresh random short IDs.
type Allocator interface {
	NewShortID() (string, error)
}

// NanoIDAllocator generates fixed-length nanoid short IDs.
type NanoIDAllocator struct {
	length int
}

// NewNanoIDAllocator returns an allocator for IDs of the given length
// (DefaultShortIDLength when length <= 0).
func NewNanoIDAllocator(length int) *NanoIDAllocator {
	if length <= 0 {
		length = DefaultShortIDLength
	}
	return &NanoIDAllocator{length: length}
}

// NewShortID returns a new random ID drawn from ShortIDAlphabet.
func (a *NanoIDAllocator) NewShortID() (string, error) {
	id, err := gonanoid.Generate(ShortIDAlphabet, a.length)
	if err != nil {
		return "", fmt.Errorf("failed to generate short id: %w", err)
	}
	return id, nil
}

// Length returns the configured ID length.
func (a *NanoIDAllocator) Length() int { return a.length }

// IsShortID reports whether s could have been produced by an allocator:
// non-empty, at most 64 characters, only ShortIDAlphabet runes.
func IsShortID(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}
