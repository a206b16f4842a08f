// Manages server configuration stored in server_config.yaml.

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// ServerConfigFile is the name of the configuration file inside the data
// directory.
const ServerConfigFile = "server_config.yaml"

// ServerConfig stores all server-wide configuration.
// Loaded from server_config.yaml, created with defaults if missing.
type ServerConfig struct {
	// MaxRequestBodyBytes limits the size of any single HTTP request body.
	// 0 means unlimited.
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`

	// StrictIdentifiers rejects empty page identifiers with
	// KindInvalidIdentifier instead of passing them to the file store.
	StrictIdentifiers bool `yaml:"strict_identifiers"`

	// RateLimits defines rate limiting configuration.
	RateLimits RateLimits `yaml:"rate_limits"`
}

// RateLimits defines rate limiting configuration (requests per minute per
// client IP).
type RateLimits struct {
	// WriteRatePerMin limits POST and DELETE on /edit.
	// 0 means unlimited.
	WriteRatePerMin int `yaml:"write_rate_per_min"`

	// ReadRatePerMin limits GET requests.
	// 0 means unlimited.
	ReadRatePerMin int `yaml:"read_rate_per_min"`
}

// Validate checks that rate limit values are non-negative.
func (r *RateLimits) Validate() error {
	if r.WriteRatePerMin < 0 {
		return errors.New("write_rate_per_min must be non-negative")
	}
	if r.ReadRatePerMin < 0 {
		return errors.New("read_rate_per_min must be non-negative")
	}
	return nil
}

// DefaultRateLimits returns the default rate limits.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		WriteRatePerMin: 60,   // 60 req/min for edits
		ReadRatePerMin:  6000, // 6k req/min for static reads
	}
}

// DefaultServerConfig returns the configuration written on first start.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MaxRequestBodyBytes: 10 * 1024 * 1024, // 10 MiB
		RateLimits:          DefaultRateLimits(),
	}
}

// Validate checks the configuration for invalid values.
func (c *ServerConfig) Validate() error {
	if c.MaxRequestBodyBytes < 0 {
		return errors.New("max_request_body_bytes must be non-negative")
	}
	return c.RateLimits.Validate()
}

// LoadServerConfig loads dataDir/server_config.yaml, creating it with
// defaults if it doesn't exist.
func LoadServerConfig(dataDir string) (*ServerConfig, error) {
	path := filepath.Join(dataDir, ServerConfigFile)
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from dataDir, not user input
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", ServerConfigFile, err)
		}
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ServerConfigFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ServerConfigFile, err)
	}
	return &cfg, nil
}

// Save saves configuration to dataDir/server_config.yaml.
func (c *ServerConfig) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := atomic.WriteFile(filepath.Join(dataDir, ServerConfigFile), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", ServerConfigFile, err)
	}
	return nil
}
