// Package idempotency suppresses duplicate payment submissions by replaying the first response
// for a repeated idempotency key.
package idempotency

import (
	"context"
	"sync"
)

// Entry is the cached outcome of one payment submission.
type Entry struct {
	RequestPayload  string `json:"requestPayload"`
	ResponsePayload string `json:"responsePayload"`
	// CreatedTime is ISO-8601 with the offset of the submission's Date header.
	CreatedTime string `json:"createdTime"`
}

// Cache stores entries under "{clientId}_{idempotencyKey}". Get returns nil, nil for an absent key.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, entry Entry) error
}

// CacheKey builds the cache key of a client's idempotency key.
func CacheKey(clientID, idempotencyKey string) string {
	return clientID + "_" + idempotencyKey
}

// MemoryCache is a process-local Cache.
//
// Get and Put are individually atomic, but a lookup followed by a later Put is not: two first-time
// submissions with the same key can both miss and both reach the payment endpoint. The payment
// endpoint must tolerate that duplicate.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}

// Len returns the number of cached keys.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
