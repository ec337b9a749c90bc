package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDenylistRevokeAndCheck(t *testing.T) {
	d := NewTokenDenylist()

	d.Revoke("jti-1", time.Now().Add(time.Hour))

	assert.True(t, d.IsRevoked("jti-1"))
	assert.False(t, d.IsRevoked("jti-2"))
}

func TestDenylistIgnoresAlreadyExpired(t *testing.T) {
	d := NewTokenDenylist()

	d.Revoke("jti-old", time.Now().Add(-time.Minute))

	assert.False(t, d.IsRevoked("jti-old"))
}
