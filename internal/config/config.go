// Package config handles environment variable parsing and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AuthMode represents the SSH authentication mode.
type AuthMode string

const (
	AuthModeAllowlist AuthMode = "allowlist"
	AuthModePublic    AuthMode = "public"
)

// Config holds all application configuration.
type Config struct {
	// Inventory API settings
	APIURL     string        `env:"INVENTORY_API_URL" envDefault:"http://localhost:3000"`
	APITimeout time.Duration `env:"INVENTORY_API_TIMEOUT" envDefault:"10s"`

	// Cache and view settings
	CacheTTLSeconds int      `env:"CACHE_TTL_SECONDS" envDefault:"60"`
	ItemsPerPage    int      `env:"ITEMS_PER_PAGE" envDefault:"10"`
	ExportDir       string   `env:"EXPORT_DIR" envDefault:"."`
	Teams           []string `env:"TEAMS" envSeparator:"," envDefault:"Bodega Central,Sucursal Norte,Sucursal Sur"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	// SSH server settings
	SSHAddr        string   `env:"SSH_ADDR" envDefault:":23234"`
	SSHHostKeyPath string   `env:"SSH_HOSTKEY_PATH" envDefault:"./.ssh_host_ed25519_key"`
	SSHAuthMode    AuthMode `env:"SSH_AUTH_MODE" envDefault:"allowlist"`
	AllowlistPath  string   `env:"SSH_ALLOWLIST_PATH" envDefault:"./allowlist_authorized_keys"`

	// Mock inventory server settings
	MockAddr      string        `env:"MOCKINV_ADDR" envDefault:":3000"`
	MockJWTSecret string        `env:"MOCKINV_JWT_SECRET" envDefault:"dev-secret-change-me"`
	MockTokenTTL  time.Duration `env:"MOCKINV_TOKEN_TTL" envDefault:"1h"`
}

// CacheTTL returns the product cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from environment variables with defaults.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	if c.SSHAuthMode != AuthModeAllowlist && c.SSHAuthMode != AuthModePublic {
		return errors.New("SSH_AUTH_MODE must be 'allowlist' or 'public'")
	}
	if c.ItemsPerPage <= 0 {
		return errors.New("ITEMS_PER_PAGE must be positive")
	}
	if c.CacheTTLSeconds < 0 {
		return errors.New("CACHE_TTL_SECONDS must not be negative")
	}
	if c.APITimeout <= 0 {
		return errors.New("INVENTORY_API_TIMEOUT must be positive")
	}
	if c.APIURL == "" {
		return errors.New("INVENTORY_API_URL must not be empty")
	}
	return nil
}
