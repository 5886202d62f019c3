package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	HTTP struct {
		Port    string        `yaml:"port"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"http"`
	API struct {
		BaseURL string `yaml:"baseUrl" env:"API_BASE_URL"`
	} `yaml:"api"`
	RateKWh float64 `yaml:"rateKwh"`
	Debug   bool    `yaml:"debug"`
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HTTP_TIMEOUT", "45s")
	t.Setenv("API_BASE_URL", "http://localhost:8080")
	t.Setenv("RATEKWH", "17.5")
	t.Setenv("DEBUG", "true")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 45*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 17.5, cfg.RateKWh)
	assert.True(t, cfg.Debug)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
http:
  port: "8081"
  timeout: 10s
api:
  baseUrl: http://file.example
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_BASE_URL", "http://env.example")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "8081", cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "http://env.example", cfg.API.BaseURL, "env must win over file")
}

func TestLoadRejectsNonStruct(t *testing.T) {
	assert.Error(t, Load(nil))

	var n int
	assert.Error(t, Load(&n))
}

func TestLoadReportsBadValue(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")

	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}
