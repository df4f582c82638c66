// Package config loads posts-sync configuration from defaults, an optional
// YAML file and POSTS_SYNC_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/posts-sync/pkg/batch"
	"github.com/Sternrassler/posts-sync/pkg/client"
	"github.com/Sternrassler/posts-sync/pkg/logging"
	"github.com/Sternrassler/posts-sync/pkg/sink"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. POSTS_SYNC_API_BASE_URL.
const EnvPrefix = "POSTS_SYNC"

// Config holds all application configuration.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Sink       SinkConfig       `mapstructure:"sink"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// APIConfig configures the remote API client.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// BatchConfig configures chunked invocations.
type BatchConfig struct {
	ItemsPerStep int `mapstructure:"items_per_step"`
}

// CheckpointConfig selects where job progress is kept.
type CheckpointConfig struct {
	Backend string        `mapstructure:"backend"` // "memory", "redis" or "sqlite"
	DSN     string        `mapstructure:"dsn"`
	TTL     time.Duration `mapstructure:"ttl"` // redis only
}

// SinkConfig selects where nodes are written.
type SinkConfig struct {
	Driver string `mapstructure:"driver"` // "memory", "sqlite", "postgres", "mongo" or "bolt"
	DSN    string `mapstructure:"dsn"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	clientDefaults := client.DefaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:   clientDefaults.BaseURL,
			UserAgent: clientDefaults.UserAgent,
			Timeout:   clientDefaults.Timeout,
		},
		Batch: BatchConfig{
			ItemsPerStep: batch.DefaultItemsPerStep,
		},
		Checkpoint: CheckpointConfig{
			Backend: "sqlite",
			DSN:     "posts-sync.db",
			TTL:     24 * time.Hour,
		},
		Sink: SinkConfig{
			Driver: "sqlite",
			DSN:    "posts-sync.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  string(logging.LevelInfo),
			Pretty: false,
		},
	}
}

// defaultConfigPath returns the per-user config directory.
func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "posts-sync")
}

// Load reads the configuration. With an empty configFile, posts-sync.yaml is
// looked up in the working directory and the user config directory; a
// missing file is fine. An explicit configFile must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("posts-sync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultConfigPath())
	}

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.user_agent", d.API.UserAgent)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("batch.items_per_step", d.Batch.ItemsPerStep)
	v.SetDefault("checkpoint.backend", d.Checkpoint.Backend)
	v.SetDefault("checkpoint.dsn", d.Checkpoint.DSN)
	v.SetDefault("checkpoint.ttl", d.Checkpoint.TTL)
	v.SetDefault("sink.driver", d.Sink.Driver)
	v.SetDefault("sink.dsn", d.Sink.DSN)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.UserAgent == "" {
		return fmt.Errorf("api.user_agent is required")
	}
	if c.Batch.ItemsPerStep < 1 {
		return fmt.Errorf("batch.items_per_step must be at least 1 (got %d)", c.Batch.ItemsPerStep)
	}
	if sink.Canonical(c.Sink.Driver) == "" {
		return fmt.Errorf("sink.driver %q is not supported (available: %v)", c.Sink.Driver, sink.Drivers())
	}
	switch strings.ToLower(c.Checkpoint.Backend) {
	case "memory", "redis", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("checkpoint.backend %q is not supported (available: memory, redis, sqlite)", c.Checkpoint.Backend)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}

// ClientConfig converts the API section to a client.Config.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		BaseURL:   c.API.BaseURL,
		UserAgent: c.API.UserAgent,
		Timeout:   c.API.Timeout,
	}
}

// LoggerConfig converts the logging section to a logging.Config.
func (c *Config) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(strings.ToLower(c.Logging.Level))
	cfg.Pretty = c.Logging.Pretty
	return cfg
}
