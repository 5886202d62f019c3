package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "chargehub/libs/config"
)

// Config defines the sandbox backend configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"SANDBOX_HTTP_PORT"`
	} `yaml:"http"`
	JWT struct {
		Secret    string        `yaml:"secret" env:"SANDBOX_JWT_SECRET"`
		ExpiresIn time.Duration `yaml:"expiresIn" env:"SANDBOX_JWT_TTL"`
	} `yaml:"jwt"`
	Postgres struct {
		DSN      string `yaml:"dsn" env:"SANDBOX_POSTGRES_DSN"`
		MaxConns int    `yaml:"maxConns" env:"SANDBOX_POSTGRES_MAX_CONNS"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr" env:"SANDBOX_REDIS_ADDR"`
		Password string `yaml:"password" env:"SANDBOX_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"SANDBOX_REDIS_DB"`
	} `yaml:"redis"`
	Booking struct {
		HoldTTL time.Duration `yaml:"holdTtl" env:"SANDBOX_BOOKING_HOLD_TTL"`
	} `yaml:"booking"`
}

// Load configuration via the shared helper. An empty Postgres DSN means the
// in-memory store; an empty Redis addr disables the session cache.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.JWT.ExpiresIn = 24 * time.Hour
	cfg.Booking.HoldTTL = 15 * time.Minute

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
