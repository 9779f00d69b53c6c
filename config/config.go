// Package config loads host-facing configuration for programs embedding
// the troupe runtime. Values come from defaults, then an optional YAML
// file, then TROUPE_-prefixed environment variables, in that order.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/roasbeef/troupe"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// TROUPE_POOL_SIZE.
const envPrefix = "TROUPE_"

// LogConfig holds the logging knobs a binary needs to wire the runtime's
// logger.
type LogConfig struct {
	// Level is the log level name understood by btclog (trace, debug,
	// info, warn, error, critical, off).
	Level string `yaml:"level"`

	// Dir is the directory for rotating log files. Empty disables file
	// logging.
	Dir string `yaml:"dir"`

	// MaxFiles is the number of rotated log files kept on disk.
	MaxFiles int `yaml:"max_files"`

	// MaxFileSize is the size in MB at which a log file rotates.
	MaxFileSize int `yaml:"max_file_size"`
}

// Config is the full configuration surface for a troupe host program.
type Config struct {
	// PoolSize is the worker count of the actor system.
	PoolSize int `yaml:"pool_size"`

	// ActorQueueLimit caps undelivered messages per mailbox.
	ActorQueueLimit int `yaml:"actor_queue_limit"`

	// CastLimit caps the number of actors created per run.
	CastLimit int `yaml:"cast_limit"`

	// Log configures log output.
	Log LogConfig `yaml:"log"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		PoolSize:        troupe.DefaultPoolSize,
		ActorQueueLimit: troupe.DefaultActorQueueLimit,
		CastLimit:       troupe.DefaultCastLimit,
		Log: LogConfig{
			Level:       "info",
			MaxFiles:    10,
			MaxFileSize: 20,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w",
				path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w",
				path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadReader parses YAML configuration from the given reader, applying
// the same override and validation pipeline as Load.
func LoadReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays TROUPE_-prefixed environment variables onto the
// config. Only a small, flat set of keys is supported; unknown variables
// are ignored.
func (c *Config) applyEnv() error {
	intVars := map[string]*int{
		"POOL_SIZE":         &c.PoolSize,
		"ACTOR_QUEUE_LIMIT": &c.ActorQueueLimit,
		"CAST_LIMIT":        &c.CastLimit,
	}

	for key, dst := range intVars {
		raw, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}

		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("env %s%s: %w", envPrefix, key, err)
		}
		*dst = v
	}

	if raw, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = raw
	}
	if raw, ok := os.LookupEnv(envPrefix + "LOG_DIR"); ok {
		c.Log.Dir = raw
	}

	return nil
}

// Validate rejects configurations the runtime would refuse or silently
// clamp.
func (c *Config) Validate() error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive, got %d",
			c.PoolSize)
	}
	if c.ActorQueueLimit <= 0 {
		return fmt.Errorf("actor_queue_limit must be positive, "+
			"got %d", c.ActorQueueLimit)
	}
	if c.CastLimit < 1 {
		return fmt.Errorf("cast_limit must allow at least the root "+
			"actor, got %d", c.CastLimit)
	}

	return nil
}

// Runtime converts the host configuration into the runtime's Config.
func (c *Config) Runtime() troupe.Config {
	return troupe.Config{
		PoolSize:        c.PoolSize,
		ActorQueueLimit: c.ActorQueueLimit,
		CastLimit:       c.CastLimit,
	}
}
