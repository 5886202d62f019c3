package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	libconfig "chargehub/libs/config"
)

// Config holds the command-line client configuration.
type Config struct {
	API struct {
		BaseURL string        `yaml:"baseUrl" env:"CHARGEHUB_API_URL"`
		Timeout time.Duration `yaml:"timeout" env:"CHARGEHUB_API_TIMEOUT"`
	} `yaml:"api"`
	TokenFile string `yaml:"tokenFile" env:"CHARGEHUB_TOKEN_FILE"`
	Display   struct {
		PollInterval   time.Duration `yaml:"pollInterval" env:"CHARGEHUB_POLL_INTERVAL"`
		DefaultPowerKW float64       `yaml:"defaultPowerKw" env:"CHARGEHUB_DEFAULT_POWER_KW"`
	} `yaml:"display"`
}

// LoadConfig reads CLI configuration with sensible local defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.API.BaseURL = "http://localhost:8080"
	cfg.API.Timeout = 15 * time.Second
	cfg.Display.PollInterval = 5 * time.Second
	cfg.Display.DefaultPowerKW = 22

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return nil, fmt.Errorf("config: api base url required")
	}
	if cfg.TokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.TokenFile = filepath.Join(home, ".chargehub", "token")
	}
	return cfg, nil
}
