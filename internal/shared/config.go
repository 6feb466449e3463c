package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API       APIConfig       `toml:"api"`
	Player    PlayerConfig    `toml:"player"`
	Database  DatabaseConfig  `toml:"database"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	// AuthenticatedStreaming selects the materialized-source mode: the client
	// downloads the whole resource with the bearer token attached instead of
	// handing the raw URL to the player. Only sensible for short resources.
	AuthenticatedStreaming bool   `toml:"authenticated_streaming"`
	TokenPath              string `toml:"token_path"`
}

// PlayerConfig contains playback defaults and timer settings.
type PlayerConfig struct {
	SkipSeconds         int     `toml:"skip_seconds"`
	PushIntervalSeconds int     `toml:"push_interval_seconds"`
	Volume              float64 `toml:"volume"`
	Rate                float64 `toml:"rate"`
	MpvPath             string  `toml:"mpv_path"`
}

// DatabaseConfig contains listening-history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// TelemetryConfig contains session telemetry settings.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled"`
	LogPath string `toml:"log_path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveTokenPath expands the configured token path, falling back to
// ~/.shelfplay/token when unset.
func (c *Config) ResolveTokenPath() string {
	if c.API.TokenPath != "" {
		return c.API.TokenPath
	}
	return filepath.Join(os.Getenv("HOME"), ".shelfplay", "token")
}
