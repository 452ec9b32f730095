package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist remembers revoked JWTs until they would have expired anyway.
// It prefers Redis and falls back to process memory.
type TokenBlacklist struct {
	rc      *redis.Client
	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewTokenBlacklist creates a blacklist; rc may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, entries: map[string]time.Time{}}
}

// Revoke stores a token until expiresAt to support logout semantics.
func (b *TokenBlacklist) Revoke(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.rc.Set(ctx, "jwt:blacklist:"+token, "1", ttl).Err(); err == nil {
			return
		}
	}
	b.mu.Lock()
	b.entries[token] = expiresAt
	b.mu.Unlock()
}

// IsRevoked checks if a token was revoked before natural expiration.
func (b *TokenBlacklist) IsRevoked(token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := b.rc.Exists(ctx, "jwt:blacklist:"+token).Result(); err == nil && n > 0 {
			return true
		}
	}
	b.mu.RLock()
	expiresAt, ok := b.entries[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.entries, token)
		b.mu.Unlock()
		return false
	}
	return true
}
