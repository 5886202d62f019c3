package auth

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenProvider holds the bearer token shared by all outgoing requests.
// It is an explicit object passed by reference to the HTTP client; there is
// no package-level singleton. Set/Clear are the only mutators.
type TokenProvider struct {
	mu    sync.RWMutex
	token string
	path  string
}

// NewTokenProvider returns an in-memory provider with no token set.
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{}
}

// NewFileTokenProvider returns a provider that persists the token to path so
// command-line sessions survive restarts. A missing file means no token.
func NewFileTokenProvider(path string) (*TokenProvider, error) {
	p := &TokenProvider{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return nil, err
	}
	p.token = strings.TrimSpace(string(data))
	return p, nil
}

// Set stores the token and persists it when file-backed.
func (p *TokenProvider) Set(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = strings.TrimSpace(token)
	if p.path == "" {
		return nil
	}
	return os.WriteFile(p.path, []byte(p.token+"\n"), 0o600)
}

// Get returns the current token, empty when logged out.
func (p *TokenProvider) Get() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Clear drops the token and removes the backing file if any.
func (p *TokenProvider) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	if p.path == "" {
		return nil
	}
	err := os.Remove(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Valid self-reports whether the held token exists and has not passed its
// exp claim. The claim is decoded without signature verification: this is a
// display hint, not a security boundary. The backend is the authority.
func (p *TokenProvider) Valid(now time.Time) bool {
	token := p.Get()
	if token == "" {
		return false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Before(exp.Time)
}
