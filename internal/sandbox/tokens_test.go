package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Generate(42, "USER")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "USER", claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	_, err := svc.Generate(0, "USER")
	require.Error(t, err)

	_, err = svc.Validate("not-a-token")
	require.Error(t, err)

	other := NewTokenService("different-secret", time.Hour)
	token, err := other.Generate(1, "USER")
	require.NoError(t, err)
	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceExpiry(t *testing.T) {
	svc := NewTokenService("secret", -time.Nanosecond)
	// Negative TTL falls back to the one hour default.
	token, err := svc.Generate(1, "USER")
	require.NoError(t, err)
	_, err = svc.Validate(token)
	require.NoError(t, err)
}
