package mpesa

import (
	"sync"
	"time"
)

// TokenCache holds a bearer token between gateway calls. Injected into
// the Client so tests can run against a deterministic cache instead of
// process-global state.
type TokenCache interface {
	Get() (string, bool)
	Set(token string, expiry time.Time)
}

type MemoryTokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || time.Now().After(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

func (c *MemoryTokenCache) Set(token string, expiry time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = expiry
}
