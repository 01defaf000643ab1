// Package config loads the plotstyle configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dlblack/sad-sandbox-sub000/store"
	"github.com/dlblack/sad-sandbox-sub000/store/feed"
	"github.com/dlblack/sad-sandbox-sub000/store/file"
	"github.com/dlblack/sad-sandbox-sub000/store/mysql"
	"github.com/dlblack/sad-sandbox-sub000/store/postgres"
	"github.com/dlblack/sad-sandbox-sub000/store/redis"
	"github.com/dlblack/sad-sandbox-sub000/store/s3"
)

// Storage backend names
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMySQL    = "mysql"
	StorageS3       = "s3"
)

// Config is the whole configuration file
type Config struct {
	Log      LogConfig      `json:"log" yaml:"log"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Defaults DefaultsConfig `json:"defaults" yaml:"defaults"`
}

// LogConfig selects the log level and handler
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// StorageConfig selects where user overrides are persisted
type StorageConfig struct {
	Type     string          `json:"type" yaml:"type"`
	Key      string          `json:"key" yaml:"key"`
	File     file.Config     `json:"file" yaml:"file"`
	Redis    redis.Config    `json:"redis" yaml:"redis"`
	Postgres postgres.Config `json:"postgres" yaml:"postgres"`
	MySQL    mysql.Config    `json:"mysql" yaml:"mysql"`
	S3       s3.Config       `json:"s3" yaml:"s3"`
	// Feed broadcasts changes on a message bus instead of the backend's own
	// notifications
	Feed feed.Config `json:"feed" yaml:"feed"`
}

// DefaultsConfig shapes the base rule set
type DefaultsConfig struct {
	// File replaces the built-in base rules with a YAML or JSON rule set
	File string `json:"file" yaml:"file"`
	// IncludePeakFlowFrequency appends the frequency-curve presets to the base
	IncludePeakFlowFrequency bool `json:"include_peak_flow_frequency" yaml:"include_peak_flow_frequency"`
}

// DefaultDataDir is where the file backend keeps overrides by default
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "plotstyle")
	}
	return ".plotstyle"
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Type: StorageFile,
			Key:  store.DefaultKey,
			File: file.Config{Dir: DefaultDataDir()},
		},
		Defaults: DefaultsConfig{IncludePeakFlowFrequency: true},
	}
}

// Load reads path over the defaults. JSON is used for a .json extension and
// YAML otherwise.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config yaml: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty or absent
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}

	switch c.Storage.Type {
	case StorageMemory:
	case "", StorageFile:
		if c.Storage.File.Dir == "" {
			return fmt.Errorf("storage.file.dir is required")
		}
	case StorageRedis:
	case StoragePostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required")
		}
	case StorageMySQL:
		if c.Storage.MySQL.DSN == "" {
			return fmt.Errorf("storage.mysql.dsn is required")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required")
		}
	default:
		return fmt.Errorf("storage.type: unknown backend %q", c.Storage.Type)
	}

	switch c.Storage.Feed.Type {
	case feed.TypeNone:
	case feed.TypeKafka:
		if len(c.Storage.Feed.Kafka.Brokers) == 0 {
			return fmt.Errorf("storage.feed.kafka.brokers is required")
		}
	case feed.TypeAMQP:
		if c.Storage.Feed.AMQP.URL == "" {
			return fmt.Errorf("storage.feed.amqp.url is required")
		}
	default:
		return fmt.Errorf("storage.feed.type: unknown feed %q", c.Storage.Feed.Type)
	}
	return nil
}
