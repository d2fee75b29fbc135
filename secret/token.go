package secret

import (
	"context"
	"sync"
	"time"
)

// TokenSource hands out a short-lived credential resolved through a Chain.
// The value is reused for ttl, and resolved again after it expires or after
// Invalidate, so a provider that rotates the value (a refreshed mounted
// file, a new secret version) is picked up without a restart.
type TokenSource struct {
	chain *Chain
	name  string
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	value   string
	expires time.Time
}

// NewTokenSource creates a source for the secret called name. A ttl of zero
// resolves on every call.
func NewTokenSource(chain *Chain, name string, ttl time.Duration) *TokenSource {
	return &TokenSource{chain: chain, name: name, ttl: ttl, now: time.Now}
}

// Token returns the cached value or resolves a fresh one.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.value != "" && t.now().Before(t.expires) {
		return t.value, nil
	}
	v, err := t.chain.Resolve(ctx, t.name)
	if err != nil {
		return "", err
	}
	t.value, t.expires = v, t.now().Add(t.ttl)
	return v, nil
}

// Invalidate drops the cached value. Callers use it when the upstream
// rejects the credential.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	t.value, t.expires = "", time.Time{}
	t.mu.Unlock()
}
