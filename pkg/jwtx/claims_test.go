package jwtx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/epicevents/pkg/jwtx"
)

func TestNewSessionClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := jwtx.NewSessionClaims("user-1", 30*time.Minute, now)

	require.Equal(t, "user-1", c.Subject)
	require.True(t, c.IssuedAt.Time.Equal(now))
	require.True(t, c.Expiry().Equal(now.Add(30*time.Minute)))
	require.NotEmpty(t, c.ID)
	require.Empty(t, c.Issuer)
	require.Empty(t, c.Audience)
}

func TestClaims_Expiry(t *testing.T) {
	require.True(t, jwtx.Claims{}.Expiry().IsZero())
}

func TestNewJTI(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		jti := jwtx.NewJTI()
		require.NotContains(t, jti, "=")
		require.NotContains(t, jti, "+")
		require.NotContains(t, jti, "/")
		_, dup := seen[jti]
		require.False(t, dup)
		seen[jti] = struct{}{}
	}
}
