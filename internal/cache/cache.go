// Package cache stores search evidence between runs so repeated queries do not cost a provider call.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// EvidenceKey derives a cache key for a search query and the options that shape its result.
// Queries are case- and whitespace-normalized.
func EvidenceKey(query string, depth string, maxResults int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", normalized, depth, maxResults)))
	return "skilldiff:evidence:v1:" + hex.EncodeToString(hash[:])
}
