// Package config provides configuration loading for HomeVault Core.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full core configuration.
type Config struct {
	DataDir  string       `yaml:"data_dir"`
	LogLevel string       `yaml:"log_level"`
	Remote   RemoteConfig `yaml:"remote"`
	Sync     SyncConfig   `yaml:"sync"`
}

// RemoteConfig configures the remote sync endpoint.
type RemoteConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SyncConfig configures queue and scheduler behavior.
type SyncConfig struct {
	Interval      time.Duration `yaml:"interval"`       // full sync cadence when online
	QueueInterval time.Duration `yaml:"queue_interval"` // drain retry cadence
	BatchSize     int           `yaml:"batch_size"`
	BatchPause    time.Duration `yaml:"batch_pause"`
	MaxRetries    int           `yaml:"max_retries"`
	MaxAge        time.Duration `yaml:"max_age"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir:  "./data",
		LogLevel: "info",
		Remote: RemoteConfig{
			Timeout: 30 * time.Second,
		},
		Sync: SyncConfig{
			Interval:      15 * time.Minute,
			QueueInterval: 1 * time.Minute,
			BatchSize:     10,
			BatchPause:    200 * time.Millisecond,
			MaxRetries:    5,
			MaxAge:        7 * 24 * time.Hour,
		},
	}
}

// Load reads a YAML config file, applying defaults for absent fields.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Sync.MaxRetries <= 0 {
		return fmt.Errorf("sync.max_retries must be positive, got %d", c.Sync.MaxRetries)
	}
	if c.Sync.MaxAge <= 0 {
		return fmt.Errorf("sync.max_age must be positive, got %v", c.Sync.MaxAge)
	}
	return nil
}
