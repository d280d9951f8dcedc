package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config represents the entire application configuration
type Config struct {
	Fetch     FetchConfig     `mapstructure:"fetch"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Retention RetentionConfig `mapstructure:"retention"`

	mu sync.RWMutex
}

// FetchConfig contains streaming fetch limits and tuning
type FetchConfig struct {
	ByteLimit           int64  `mapstructure:"byte_limit"`
	LineLengthLimit     int    `mapstructure:"line_length_limit"`
	ChunkSizeKB         int    `mapstructure:"chunk_size_kb"`
	SkipTLSVerify       bool   `mapstructure:"skip_tls_verify"`
	UserAgent           string `mapstructure:"user_agent"`
	ProgressLogInterval string `mapstructure:"progress_log_interval"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	BindAddr      string `mapstructure:"bind_addr"`
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	ReadTimeout   string `mapstructure:"read_timeout"`
	WriteTimeout  string `mapstructure:"write_timeout"`
	IdleTimeout   string `mapstructure:"idle_timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RetentionConfig controls pruning of attempt history
type RetentionConfig struct {
	MaxAge        string `mapstructure:"max_age"`
	PruneInterval string `mapstructure:"prune_interval"`
}

// Limits is a snapshot of the fetch ceilings in effect for one attempt.
// A request captures its limits once; a live config reload only affects
// attempts started afterwards.
type Limits struct {
	ByteLimit       int64
	LineLengthLimit int
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	viper.SetDefault("fetch.byte_limit", 10*1024*1024)
	viper.SetDefault("fetch.line_length_limit", 4096)
	viper.SetDefault("fetch.chunk_size_kb", 32)
	viper.SetDefault("fetch.skip_tls_verify", false)
	viper.SetDefault("fetch.user_agent", "buildpeek")
	viper.SetDefault("fetch.progress_log_interval", "2s")
	viper.SetDefault("http.bind_addr", "0.0.0.0:8080")
	viper.SetDefault("http.admin_username", "admin")
	viper.SetDefault("http.admin_password", "")
	viper.SetDefault("http.read_timeout", "30s")
	viper.SetDefault("http.write_timeout", "120s")
	viper.SetDefault("http.idle_timeout", "60s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("database.path", "buildpeek.db")
	viper.SetDefault("retention.max_age", "168h")
	viper.SetDefault("retention.prune_interval", "1h")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Fetch.ByteLimit <= 0 {
		return fmt.Errorf("fetch.byte_limit must be positive")
	}
	if c.Fetch.LineLengthLimit <= 0 {
		return fmt.Errorf("fetch.line_length_limit must be positive")
	}
	if c.Fetch.ChunkSizeKB <= 0 {
		return fmt.Errorf("fetch.chunk_size_kb must be positive")
	}
	if _, err := time.ParseDuration(c.Fetch.ProgressLogInterval); err != nil {
		return fmt.Errorf("invalid fetch.progress_log_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.Retention.MaxAge); err != nil {
		return fmt.Errorf("invalid retention.max_age: %w", err)
	}
	if _, err := time.ParseDuration(c.Retention.PruneInterval); err != nil {
		return fmt.Errorf("invalid retention.prune_interval: %w", err)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// Watch re-reads the fetch limits whenever the config file changes on disk.
// Only the fetch section is live-reloadable; server, logging, and database
// settings require a restart.
func (c *Config) Watch(logger *zap.Logger) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		var next Config
		if err := viper.Unmarshal(&next); err != nil {
			logger.Warn("ignoring config change, unmarshal failed",
				zap.String("file", e.Name), zap.Error(err))
			return
		}
		if err := next.Validate(); err != nil {
			logger.Warn("ignoring config change, validation failed",
				zap.String("file", e.Name), zap.Error(err))
			return
		}

		c.mu.Lock()
		c.Fetch.ByteLimit = next.Fetch.ByteLimit
		c.Fetch.LineLengthLimit = next.Fetch.LineLengthLimit
		c.mu.Unlock()

		logger.Info("fetch limits reloaded",
			zap.Int64("byte_limit", next.Fetch.ByteLimit),
			zap.Int("line_length_limit", next.Fetch.LineLengthLimit))
	})
	viper.WatchConfig()
}

// CurrentLimits returns the fetch ceilings currently in effect
func (c *Config) CurrentLimits() Limits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Limits{
		ByteLimit:       c.Fetch.ByteLimit,
		LineLengthLimit: c.Fetch.LineLengthLimit,
	}
}

// GetChunkSize returns the read chunk size in bytes
func (c *FetchConfig) GetChunkSize() int {
	if c.ChunkSizeKB <= 0 {
		return 32 * 1024
	}
	return c.ChunkSizeKB * 1024
}

// GetProgressLogInterval returns the progress log interval as time.Duration
func (c *FetchConfig) GetProgressLogInterval() time.Duration {
	d, _ := time.ParseDuration(c.ProgressLogInterval)
	if d == 0 {
		return 2 * time.Second
	}
	return d
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as time.Duration
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	if d == 0 {
		return 120 * time.Second
	}
	return d
}

// GetIdleTimeout returns the idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}

// GetMaxAge returns the attempt retention window as time.Duration
func (c *RetentionConfig) GetMaxAge() time.Duration {
	d, _ := time.ParseDuration(c.MaxAge)
	if d == 0 {
		return 168 * time.Hour
	}
	return d
}

// GetPruneInterval returns the prune interval as time.Duration
func (c *RetentionConfig) GetPruneInterval() time.Duration {
	d, _ := time.ParseDuration(c.PruneInterval)
	if d == 0 {
		return time.Hour
	}
	return d
}
