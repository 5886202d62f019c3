package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chargehub/internal/metrics"
	"chargehub/internal/models"
)

// HTTPDoer defines the http.Client interface subset the REST client needs.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token attached to every request. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Get() string
}

// APIError reports a request the backend answered but refused: a non-2xx
// status or a success:false envelope. Message carries the server-supplied
// message when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// ErrMissingData indicates a success envelope without the data the caller
// expected.
var ErrMissingData = errors.New("rest: response data missing")

// Client issues requests against the marketplace API base URL, attaching
// bearer auth from the injected token source.
type Client struct {
	baseURL string
	http    HTTPDoer
	tokens  TokenSource
}

// NewClient builds a client. tokens may be nil for unauthenticated use.
func NewClient(baseURL string, doer HTTPDoer, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		tokens:  tokens,
	}
}

// NewDefaultHTTPClient returns an *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do executes an HTTP request and returns status and raw body. A non-nil
// body is JSON-encoded.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("rest: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Get(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncRequest(method, "error")
		return 0, nil, err
	}
	defer resp.Body.Close()
	metrics.IncRequest(method, strconv.Itoa(resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// CallEnvelope executes the request, unwraps the {success, message, data}
// envelope and decodes data into out (skipped when out is nil). Backend
// refusals come back as *APIError; transport failures as plain errors.
func (c *Client) CallEnvelope(ctx context.Context, method, path string, body, out interface{}) error {
	status, respBody, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}

	var env models.Envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if status < 200 || status >= 300 {
		if decodeErr == nil && env.Message != "" {
			return &APIError{StatusCode: status, Message: env.Message}
		}
		return &APIError{StatusCode: status}
	}
	if decodeErr != nil {
		return fmt.Errorf("rest: decode response: %w", decodeErr)
	}
	if !env.Success {
		return &APIError{StatusCode: status, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return ErrMissingData
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("rest: decode data: %w", err)
	}
	return nil
}
