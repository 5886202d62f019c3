package cli

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"chargehub/internal/admin"
	"chargehub/internal/auth"
	"chargehub/internal/authapi"
	"chargehub/internal/booking"
	"chargehub/internal/charging"
	"chargehub/internal/rest"
	"chargehub/internal/stations"
)

// Env bundles the API clients a command needs, built once per invocation.
type Env struct {
	Config *Config
	Logger *zap.Logger
	Tokens *auth.TokenProvider

	Auth      *authapi.Client
	Stations  *stations.Client
	Bookings  *booking.Client
	Admin     *admin.Client
	Lifecycle *charging.Lifecycle
}

// NewEnv loads configuration and wires the client graph. The token file's
// directory is created up front so a later login can persist.
func NewEnv(logger *zap.Logger) (*Env, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.TokenFile), 0o700); err != nil {
		return nil, err
	}
	tokens, err := auth.NewFileTokenProvider(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	restClient := rest.NewClient(cfg.API.BaseURL, rest.NewDefaultHTTPClient(cfg.API.Timeout), tokens)

	return &Env{
		Config:    cfg,
		Logger:    logger,
		Tokens:    tokens,
		Auth:      authapi.NewClient(restClient, tokens),
		Stations:  stations.NewClient(restClient),
		Bookings:  booking.NewClient(restClient),
		Admin:     admin.NewClient(restClient),
		Lifecycle: charging.New(restClient, logger),
	}, nil
}
