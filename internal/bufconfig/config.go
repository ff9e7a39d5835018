// Package bufconfig loads the buffer pool's startup configuration: which
// page file to open, how many frames to allocate, and which replacement
// policy to run.
package bufconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config is the buffer pool's startup configuration.
type Config struct {
	Pool struct {
		PageFile string `mapstructure:"page_file"`
		Capacity int    `mapstructure:"capacity"`
		Policy   string `mapstructure:"policy"`
	} `mapstructure:"pool"`
}

// Load reads a YAML config file at path and applies BUFPOOL_* environment
// overrides on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("pool.capacity", 16)
	v.SetDefault("pool.policy", "lru")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("bufconfig: read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("bufconfig: unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if cfg.Pool.PageFile == "" {
		return nil, fmt.Errorf("bufconfig: pool.page_file is required")
	}
	if cfg.Pool.Capacity <= 0 {
		return nil, fmt.Errorf("bufconfig: pool.capacity must be positive, got %d", cfg.Pool.Capacity)
	}

	return &cfg, nil
}

// applyEnvOverrides lets BUFPOOL_PAGE_FILE, BUFPOOL_CAPACITY, and
// BUFPOOL_POLICY win over whatever the YAML file set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BUFPOOL_PAGE_FILE"); v != "" {
		cfg.Pool.PageFile = v
	}
	if v := os.Getenv("BUFPOOL_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pool.Capacity = n
		}
	}
	if v := os.Getenv("BUFPOOL_POLICY"); v != "" {
		cfg.Pool.Policy = strings.ToLower(v)
	}
}
