// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
//
// The resulting Config is built once at startup and handed to every component by
// pointer. Nothing mutates it after ResolveHostname has run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all agent configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Collection CollectionConfig `yaml:"collection"`
	Commands   CommandsConfig   `yaml:"commands"`
	Retry      RetryConfig      `yaml:"retry"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`

	// Debug forces debug-level logging regardless of Logging.Level.
	Debug bool `yaml:"debug"`

	// Hostname identifies this host to the collector. Empty means os.Hostname().
	Hostname string `yaml:"hostname,omitempty"`
}

// ServerConfig holds collector connection settings.
type ServerConfig struct {
	URL            string   `yaml:"url" validate:"required,url"`
	APIKey         string   `yaml:"api_key" validate:"required"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// CollectionConfig holds metric sampling settings.
type CollectionConfig struct {
	Interval Duration `yaml:"interval"`
}

// CommandsConfig holds remote command execution settings.
type CommandsConfig struct {
	Timeout Duration `yaml:"timeout"`
	Shell   string   `yaml:"shell" validate:"required"`

	// MaxConcurrent bounds how many commands run at once. 0 means unbounded.
	MaxConcurrent int `yaml:"max_concurrent" validate:"gte=0"`

	// MaxOutputBytes caps captured stdout and stderr per stream. 0 means unbounded.
	MaxOutputBytes int `yaml:"max_output_bytes" validate:"gte=0"`
}

// RetryConfig holds the retry policy shared by every collector call.
type RetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts" validate:"min=1,max=100"`
	Delay       Duration `yaml:"delay"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// MetricsConfig holds settings for the agent's own Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address for /metrics and /health. Empty disables the listener.
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// DefaultConfig returns the default configuration. The defaults make the agent
// runnable with zero configuration against a collector on localhost.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://localhost:8000",
			APIKey:         "agent-key-1",
			RequestTimeout: Duration{30 * time.Second},
		},
		Collection: CollectionConfig{
			Interval: Duration{60 * time.Second},
		},
		Commands: CommandsConfig{
			Timeout: Duration{300 * time.Second},
			Shell:   defaultShell(),
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Delay:       Duration{5 * time.Second},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// CLIOverrides holds values from command-line flags.
// Empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	URL    string
	APIKey string
	Debug  bool
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0]
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cli.URL != "" {
		cfg.Server.URL = cli.URL
	}
	if cli.APIKey != "" {
		cfg.Server.APIKey = cli.APIKey
	}
	if cli.Debug {
		cfg.Debug = true
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies LXMON_* environment variables. Numeric values are
// seconds; values that do not parse are ignored and the previous layer wins.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LXMON_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("LXMON_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if d, ok := envSeconds("LXMON_INTERVAL"); ok {
		cfg.Collection.Interval = Duration{d}
	}
	if d, ok := envSeconds("LXMON_MAX_TIMEOUT"); ok {
		cfg.Commands.Timeout = Duration{d}
	}
	if d, ok := envSeconds("LXMON_RETRY_DELAY"); ok {
		cfg.Retry.Delay = Duration{d}
	}
	if v := os.Getenv("LXMON_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("LXMON_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("LXMON_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LXMON_HOSTNAME"); v != "" {
		cfg.Hostname = v
	}
}

func envSeconds(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// ResolveHostname fills in Hostname from the operating system when it was not
// configured explicitly. Failure is fatal for the agent: without a host
// identifier the collector cannot attribute anything it receives.
func (c *Config) ResolveHostname() error {
	if c.Hostname != "" {
		return nil
	}
	h, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("resolving hostname: %w", err)
	}
	if h == "" {
		return fmt.Errorf("resolving hostname: empty hostname")
	}
	c.Hostname = h
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Collection.Interval.Duration <= 0 {
		return fmt.Errorf("collection.interval must be positive (got %s)", c.Collection.Interval.Duration)
	}
	if c.Commands.Timeout.Duration <= 0 {
		return fmt.Errorf("commands.timeout must be positive (got %s)", c.Commands.Timeout.Duration)
	}
	if c.Server.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("server.request_timeout must be positive (got %s)", c.Server.RequestTimeout.Duration)
	}
	if c.Retry.Delay.Duration < 0 {
		return fmt.Errorf("retry.delay must not be negative (got %s)", c.Retry.Delay.Duration)
	}
	return nil
}
