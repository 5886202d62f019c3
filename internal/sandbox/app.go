package sandbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	libdb "chargehub/libs/db"
	libredis "chargehub/libs/redis"
	"chargehub/internal/metrics"
)

const activeSessionTTL = 12 * time.Hour

// App wires the sandbox dependency graph.
type App struct {
	server *Server
	logger *zap.Logger
	close  []func()
}

// New constructs the application. Postgres and redis are optional; without
// them the sandbox runs fully in memory.
func New(cfg *Config, logger *zap.Logger) (*App, error) {
	metrics.Register()

	app := &App{logger: logger}

	var store Store = NewMemoryStore()
	if cfg.Postgres.DSN != "" {
		pool, err := libdb.NewPostgres(cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, err
		}
		app.close = append(app.close, func() { pool.Close() })
		store = NewPostgresStore(pool)
		logger.Info("using postgres store")
	} else {
		logger.Info("using in-memory store")
	}

	var cache *ActiveSessionCache
	if cfg.Redis.Addr != "" {
		client, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		app.close = append(app.close, func() { client.Close() })
		cache = NewActiveSessionCache(client, activeSessionTTL)
		logger.Info("active session cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	tokens := NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	hasher := NewPasswordHasher(0)
	service := NewService(store, cache, tokens, hasher, cfg.Booking.HoldTTL, logger)
	handlers := NewHandlers(service, logger)
	router := NewRouter(handlers, tokens)

	app.server = NewServer(
		cfg.HTTPAddress(),
		router,
		logger,
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)
	return app, nil
}

// Run starts serving HTTP traffic.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases held resources.
func (a *App) Close() {
	for _, fn := range a.close {
		fn()
	}
}
