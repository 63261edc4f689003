package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// BaseURLEnv overrides [APIConfig.BaseURL] when set.
const BaseURLEnv = "POSEUP_API_BASE_URL"

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API       APIConfig       `toml:"api"`
	Upload    UploadConfig    `toml:"upload"`
	Downloads DownloadsConfig `toml:"downloads"`
	Database  DatabaseConfig  `toml:"database"`
	Log       LogConfig       `toml:"log"`
}

// APIConfig points the client at the remote analysis API.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

// UploadConfig contains batch upload settings.
type UploadConfig struct {
	BatchSize int `toml:"batch_size"`
}

// DownloadsConfig contains settings for saving remote resources locally.
type DownloadsConfig struct {
	Dir       string  `toml:"dir"`
	RateLimit float64 `toml:"rate_limit"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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

// ResolveBaseURL applies the environment override and trims trailing slashes.
//
// Called once at startup; the result is used for every remote call.
func (c *Config) ResolveBaseURL() string {
	if env := strings.TrimSpace(os.Getenv(BaseURLEnv)); env != "" {
		c.API.BaseURL = env
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	return c.API.BaseURL
}

// Validate checks the values the client cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	if c.Upload.BatchSize < 1 {
		return fmt.Errorf("%w: upload.batch_size must be at least 1, got %d", ErrInvalidConfig, c.Upload.BatchSize)
	}
	if c.Downloads.RateLimit < 0 {
		return fmt.Errorf("%w: downloads.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}
