// Package config loads server settings from the environment.
//
// Values come from the process environment (optionally seeded from a .env
// file by the caller) and can be overridden by command line flags in main.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the server settings
type Config struct {
	Port  int    `env:"PORT" envDefault:"3000"`
	Host  string `env:"HOST"`
	Debug bool   `env:"DEBUG"`

	// AllowedOrigins is checked against the Origin header on WebSocket upgrade
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	MaxCodeAttempts int `env:"MAX_CODE_ATTEMPTS" envDefault:"100"`
	SendBuffer      int `env:"SEND_BUFFER" envDefault:"64"`

	Ngrok   NgrokConfig
	Tracing TracingConfig
}

// TracingConfig configures OTLP span export
type TracingConfig struct {
	Endpoint string `env:"OTEL_ENDPOINT"`
	Enabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// NgrokConfig configures the optional public tunnel
type NgrokConfig struct {
	Enabled   bool   `env:"NGROK_ENABLED"`
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	// AuthTokenAlt is the underscore spelling some setups use
	AuthTokenAlt string `env:"NGROK_AUTH_TOKEN"`
	Domain       string `env:"NGROK_DOMAIN"`
}

// Token returns the auth token, preferring NGROK_AUTHTOKEN
func (n NgrokConfig) Token() string {
	if n.AuthToken != "" {
		return n.AuthToken
	}
	return n.AuthTokenAlt
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates the process environment
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFrom reads and validates the given variables instead of the process environment
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxCodeAttempts < 1 {
		return fmt.Errorf("%w: MAX_CODE_ATTEMPTS must be positive, got %d", ErrInvalidConfig, c.MaxCodeAttempts)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("%w: SEND_BUFFER must be positive, got %d", ErrInvalidConfig, c.SendBuffer)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
