package authapi

import (
	"context"
	"net/http"

	"chargehub/internal/auth"
	"chargehub/internal/rest"
)

// Client handles login/signup against the marketplace and stores the
// resulting bearer token in the shared provider.
type Client struct {
	rest   *rest.Client
	tokens *auth.TokenProvider
}

// NewClient returns client.
func NewClient(restClient *rest.Client, tokens *auth.TokenProvider) *Client {
	return &Client{rest: restClient, tokens: tokens}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var payload tokenPayload
	err := c.rest.CallEnvelope(ctx, http.MethodPost, "/api/auth/login",
		credentials{Email: email, Password: password}, &payload)
	if err != nil {
		return err
	}
	return c.tokens.Set(payload.Token)
}

// Signup registers a new account and stores the returned token.
func (c *Client) Signup(ctx context.Context, email, password string) error {
	var payload tokenPayload
	err := c.rest.CallEnvelope(ctx, http.MethodPost, "/api/auth/signup",
		credentials{Email: email, Password: password}, &payload)
	if err != nil {
		return err
	}
	return c.tokens.Set(payload.Token)
}

// Logout drops the local token. There is no server-side session to revoke.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}
