package service

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenDenylist remembers revoked token IDs until their natural expiry.
// Backed by an in-process TTL cache; a restart clears it, which is
// acceptable because the tokens it guards are short-lived anyway.
type TokenDenylist struct {
	store *cache.Cache
}

func NewTokenDenylist() *TokenDenylist {
	return &TokenDenylist{
		store: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (d *TokenDenylist) Revoke(jti string, until time.Time) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return
	}
	d.store.Set(jti, struct{}{}, ttl)
}

func (d *TokenDenylist) IsRevoked(jti string) bool {
	_, found := d.store.Get(jti)
	return found
}
