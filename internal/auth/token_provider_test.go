package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": int64(1),
		"exp":     exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSetGetClear(t *testing.T) {
	p := NewTokenProvider()
	assert.Empty(t, p.Get())

	require.NoError(t, p.Set("  abc.def.ghi  "))
	assert.Equal(t, "abc.def.ghi", p.Get())

	require.NoError(t, p.Clear())
	assert.Empty(t, p.Get())
}

func TestFileBackedProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	p, err := NewFileTokenProvider(path)
	require.NoError(t, err)
	assert.Empty(t, p.Get(), "missing file means logged out")

	require.NoError(t, p.Set("abc.def.ghi"))

	reloaded, err := NewFileTokenProvider(path)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", reloaded.Get())

	require.NoError(t, reloaded.Clear())
	again, err := NewFileTokenProvider(path)
	require.NoError(t, err)
	assert.Empty(t, again.Get())
}

func TestValidSelfReport(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	p := NewTokenProvider()

	assert.False(t, p.Valid(now), "no token")

	require.NoError(t, p.Set(signedToken(t, now.Add(time.Hour))))
	assert.True(t, p.Valid(now))

	require.NoError(t, p.Set(signedToken(t, now.Add(-time.Hour))))
	assert.False(t, p.Valid(now), "expired token")

	require.NoError(t, p.Set("not-a-jwt"))
	assert.False(t, p.Valid(now))
}
