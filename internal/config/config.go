// ABOUTME: Configuration loading and parsing for the inventory service
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied by Load and Default
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultDriver          = "sqlite"
	DefaultDatabaseFile    = "inventory.db"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultTokenTTL        = 24 * time.Hour
	DefaultIdempotencyTTL  = 10 * time.Minute
	DefaultIdempotencySize = 1000
)

// Config represents the complete inventory configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	API      APIConfig      `yaml:"api" toml:"api"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo)
	Driver string `yaml:"driver" toml:"driver"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// AuthConfig holds bearer token configuration. An empty secret disables auth.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" toml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TokenTTLRaw string `yaml:"token_ttl" toml:"token_ttl"`
}

// APIConfig holds HTTP API behavior
type APIConfig struct {
	IdempotencyTTL  time.Duration `yaml:"-" toml:"-"`
	IdempotencySize int           `yaml:"idempotency_size" toml:"idempotency_size"`

	// Raw string value for unmarshaling
	IdempotencyTTLRaw string `yaml:"idempotency_ttl" toml:"idempotency_ttl"`
}

// Default returns a configuration with every default applied and the
// database stored under dataDir.
func Default(dataDir string) *Config {
	cfg := &Config{}
	cfg.Database.Path = filepath.Join(dataDir, DefaultDatabaseFile)
	applyDefaults(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDriver
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}
	if cfg.API.IdempotencyTTL == 0 {
		cfg.API.IdempotencyTTL = DefaultIdempotencyTTL
	}
	if cfg.API.IdempotencySize == 0 {
		cfg.API.IdempotencySize = DefaultIdempotencySize
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be sqlite or sqlite3, got %q", c.Database.Driver)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must not be negative")
	}

	if c.API.IdempotencyTTL < 0 {
		return fmt.Errorf("api.idempotency_ttl must not be negative")
	}
	if c.API.IdempotencySize < 0 {
		return fmt.Errorf("api.idempotency_size must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	if cfg.API.IdempotencyTTLRaw != "" {
		cfg.API.IdempotencyTTL, err = time.ParseDuration(cfg.API.IdempotencyTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing idempotency_ttl %q: %w", cfg.API.IdempotencyTTLRaw, err)
		}
	}

	return nil
}
