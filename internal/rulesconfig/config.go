// Package rulesconfig loads the configuration for the valet CLI and its
// long-running server mode: cache backend selection, the built-in lexicon
// data directory, and log level. It is read once at process startup and
// passed down explicitly rather than consulted as a global.
package rulesconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// CacheBackend names a matchcache.Cache implementation. Load validates the
// value; no command builds a cache from it.
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

// Config is the unmarshaled shape of valet.yml (or valet.yaml), overridable
// by VALET_* environment variables via viper's AutomaticEnv.
type Config struct {
	CacheBackend   CacheBackend `mapstructure:"cache_backend"`
	CacheSize      int          `mapstructure:"cache_size"`
	RedisAddr      string       `mapstructure:"redis_addr"`
	BuiltinDataDir string       `mapstructure:"builtin_data_dir"`
	HistoryDB      string       `mapstructure:"history_db"`
	LogLevel       string       `mapstructure:"log_level"`
	ServerAddr     string       `mapstructure:"server_addr"`
}

// Load reads valet.yml from the current directory, falling back to
// defaults when it doesn't exist.
func Load() (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("cache_backend", string(CacheBackendMemory))
	v.SetDefault("cache_size", 4096)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("builtin_data_dir", filepath.Join(home, ".valet", "data"))
	v.SetDefault("history_db", filepath.Join(home, ".valet", "history.db"))
	v.SetDefault("log_level", "info")
	v.SetDefault("server_addr", ":8420")

	v.SetConfigName("valet")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VALET")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("rulesconfig: reading valet.yml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("rulesconfig: unmarshaling: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("rulesconfig: unknown cache_backend %q", cfg.CacheBackend)
	}
	if cfg.CacheSize <= 0 {
		return fmt.Errorf("rulesconfig: cache_size must be positive, got %d", cfg.CacheSize)
	}
	return nil
}

// EnsureHistoryDir creates the parent directory of cfg.HistoryDB if it does
// not already exist, so the ledger store can open its SQLite file on first
// run without a separate setup step.
func EnsureHistoryDir(cfg *Config) error {
	dir := filepath.Dir(cfg.HistoryDB)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
