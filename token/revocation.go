package token

import (
	"sync"
	"time"
)

// RevocationList records credentials that must no longer verify, by jti. An entry is
// only needed until the credential's own exp, after which Verify rejects it anyway,
// so Cleanup can drop it then.
type RevocationList interface {
	Revoke(jti string, exp time.Time)
	IsRevoked(jti string) bool
	Cleanup(now time.Time) // Remove entries that have expired anyway
}

// InMemoryRevocationList holds revoked jtis with their expiry in a map. It lives as
// long as the issuer; a restarted mock server forgets its revocations.
type InMemoryRevocationList struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
}

func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		revoked: make(map[string]time.Time),
	}
}

func (c *InMemoryRevocationList) Revoke(jti string, exp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
}

func (c *InMemoryRevocationList) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

func (c *InMemoryRevocationList) Cleanup(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
}
