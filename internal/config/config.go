package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends selected by the scheme of the store URL.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Delete policies.
const (
	DeletePolicyAny   = "any"
	DeletePolicyOwner = "owner"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int           `env:"PORT" envDefault:"8080"`
	StoreURL     string        `env:"MONGO_URL" envDefault:"mongodb://127.0.0.1/final-project"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"10"`
	DeletePolicy string        `env:"DELETE_POLICY" envDefault:"any"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom loads configuration from the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid PORT %d", c.ServerPort)
	}
	switch c.DeletePolicy {
	case DeletePolicyAny, DeletePolicyOwner:
	default:
		return fmt.Errorf("invalid DELETE_POLICY %q", c.DeletePolicy)
	}
	if _, err := c.StoreDriver(); err != nil {
		return err
	}
	return nil
}

// StoreDriver reports which backend the store URL points at.
func (c *Config) StoreDriver() (string, error) {
	switch {
	case strings.HasPrefix(c.StoreURL, "mongodb://"), strings.HasPrefix(c.StoreURL, "mongodb+srv://"):
		return DriverMongo, nil
	case strings.HasPrefix(c.StoreURL, "sqlite:"):
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported store url %q", c.StoreURL)
	}
}

// SQLitePath returns the database path of a sqlite:// store URL.
func (c *Config) SQLitePath() string {
	p := strings.TrimPrefix(c.StoreURL, "sqlite:")
	return strings.TrimPrefix(p, "//")
}
