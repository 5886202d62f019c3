package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Get() string { return string(s) }

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"success":true,"message":"","data":{"ok":true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewDefaultHTTPClient(time.Second), staticTokens("tok-123"))
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.CallEnvelope(context.Background(), http.MethodPost, "/api/test", map[string]int{"a": 1}, &out))

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.True(t, out.OK)
}

func TestNoTokenMeansNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), staticTokens(""))
	require.NoError(t, c.CallEnvelope(context.Background(), http.MethodGet, "/api/test", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestServerRefusalMapsToAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	err := c.CallEnvelope(context.Background(), http.MethodPost, "/api/charging/start", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Empty(t, apiErr.Message)
}

func TestEnvelopeFailureCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Session not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	err := c.CallEnvelope(context.Background(), http.MethodGet, "/api/charging/booking/42", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Session not found", apiErr.Message)
}

func TestNonEnvelopeErrorBodyStillAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	err := c.CallEnvelope(context.Background(), http.MethodGet, "/api/test", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestMissingDataOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	var out struct{}
	err := c.CallEnvelope(context.Background(), http.MethodGet, "/api/test", nil, &out)
	assert.ErrorIs(t, err, ErrMissingData)
}

func TestNetworkErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, NewDefaultHTTPClient(time.Second), nil)
	err := c.CallEnvelope(context.Background(), http.MethodGet, "/api/test", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failure is not an APIError")
}
