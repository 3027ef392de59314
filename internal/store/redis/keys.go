package redis

const (
	// KeyPrefixLink is the prefix for cached link records
	KeyPrefixLink = "qrlink:link:"
)

// LinkKey returns the Redis key for a cached link by short ID
func LinkKey(shortID string) string {
	return KeyPrefixLink + shortID
}
