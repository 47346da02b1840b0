package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryTier is the in-process cache tier: bounded size, fixed TTL. Entries
// age out on their own; an entry past its TTL is treated as absent.
type MemoryTier struct {
	lru *expirable.LRU[string, []byte]
	ttl time.Duration
}

// NewMemoryTier builds the in-process tier with the given entry bound and
// TTL.
func NewMemoryTier(size int, ttl time.Duration) *MemoryTier {
	return &MemoryTier{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
		ttl: ttl,
	}
}

// Get returns the raw cached payload, or false when absent or expired.
func (m *MemoryTier) Get(key string) ([]byte, bool) {
	return m.lru.Get(key)
}

// Set stores a payload under the tier's TTL.
func (m *MemoryTier) Set(key string, payload []byte) {
	m.lru.Add(key, payload)
}

// Remove evicts a single key.
func (m *MemoryTier) Remove(key string) {
	m.lru.Remove(key)
}

// Purge evicts every entry.
func (m *MemoryTier) Purge() {
	m.lru.Purge()
}

// Keys returns the currently live keys.
func (m *MemoryTier) Keys() []string {
	return m.lru.Keys()
}

// Len reports the number of live entries.
func (m *MemoryTier) Len() int {
	return m.lru.Len()
}

// TTL reports the tier's entry lifetime.
func (m *MemoryTier) TTL() time.Duration {
	return m.ttl
}
