package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the collector configuration loaded from files and environment
// variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	AgentURL       string        `mapstructure:"agent_url"`
	CallerID       string        `mapstructure:"caller_id"`
	TimeoutSeconds int64         `mapstructure:"timeout_seconds"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayMs   int64         `mapstructure:"retry_delay_ms"`
	Timeout        time.Duration `mapstructure:"-"`
	RetryBaseDelay time.Duration `mapstructure:"-"`

	DatasetsFile        string        `mapstructure:"datasets_file"`
	ExportersFile       string        `mapstructure:"exporters_file"`
	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "orb-collector")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("agent_url", "http://localhost:7080")
	v.SetDefault("caller_id", "orb-collector")
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay_ms", 1000)
	v.SetDefault("datasets_file", "./configs/datasets.yaml")
	v.SetDefault("exporters_file", "./configs/exporters.yaml")
	v.SetDefault("poll_interval", 60) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/cache.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid timeout_seconds (must be positive seconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	if cfg.MaxRetries <= 0 {
		return nil, fmt.Errorf("invalid max_retries (must be positive)")
	}
	if cfg.RetryDelayMs <= 0 {
		return nil, fmt.Errorf("invalid retry_delay_ms (must be positive milliseconds)")
	}
	cfg.RetryBaseDelay = time.Duration(cfg.RetryDelayMs) * time.Millisecond

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
