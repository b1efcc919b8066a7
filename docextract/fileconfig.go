package docextract

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration of the docextract service.
type FileConfig struct {
	Listen         string           `yaml:"listen"`
	MaxInputMB     int              `yaml:"max_input_mb"`
	MaxEntryMB     int              `yaml:"max_entry_mb"`
	TimeoutSeconds int              `yaml:"timeout_seconds"`
	LogLevel       string           `yaml:"log_level"`
	ProbeCache     ProbeCacheConfig `yaml:"probe_cache"`
}

// ProbeCacheConfig configures the persistent probe cache.
type ProbeCacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DBPath     string `yaml:"db_path"`
	MaxEntries int    `yaml:"max_entries"`
}

// DefaultFileConfig returns sane defaults.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Listen:         ":8087",
		MaxInputMB:     50,
		MaxEntryMB:     64,
		TimeoutSeconds: 30,
		LogLevel:       "info",
		ProbeCache: ProbeCacheConfig{
			Enabled:    false,
			DBPath:     "db/probecache.db",
			MaxEntries: 10000,
		},
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultFileConfig
// merged with the file.
func LoadConfig(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *FileConfig) Validate() error {
	if c.MaxInputMB <= 0 {
		return fmt.Errorf("max_input_mb must be > 0")
	}
	if c.MaxEntryMB <= 0 {
		return fmt.Errorf("max_entry_mb must be > 0")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be > 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("unsupported log_level %q (use debug, info, warn or error)", c.LogLevel)
	}
	if c.ProbeCache.Enabled {
		if c.ProbeCache.DBPath == "" {
			return fmt.Errorf("probe_cache.db_path is required when the cache is enabled")
		}
		if c.ProbeCache.MaxEntries <= 0 {
			return fmt.Errorf("probe_cache.max_entries must be > 0")
		}
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *FileConfig) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Pipeline converts the file configuration into an extractor Config.
func (c *FileConfig) Pipeline(logger *slog.Logger) Config {
	return Config{
		MaxInputSize: int64(c.MaxInputMB) * 1024 * 1024,
		MaxEntrySize: int64(c.MaxEntryMB) * 1024 * 1024,
		Timeout:      time.Duration(c.TimeoutSeconds) * time.Second,
		Logger:       logger,
	}
}
