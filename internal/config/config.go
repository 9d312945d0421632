package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Stats provider API
	StatsBaseURL string        `envconfig:"STATS_BASE_URL" default:"https://stats.nba.com/stats"`
	StatsTimeout time.Duration `envconfig:"STATS_TIMEOUT" default:"60s"`

	// Tracked players
	SchoolSubstring  string `envconfig:"SCHOOL_SUBSTRING" default:"duke"`
	SchoolLabel      string `envconfig:"SCHOOL_LABEL" default:"Duke"`
	TrackedPlayerIDs []int  `envconfig:"TRACKED_PLAYER_IDS"`
	CacheDir         string `envconfig:"CACHE_DIR" default:"."`
	CacheMaxAgeDays  int    `envconfig:"CACHE_MAX_AGE_DAYS" default:"30"`

	// Politeness delay between upstream requests
	PolitenessMinDelay time.Duration `envconfig:"POLITENESS_MIN_DELAY" default:"300ms"`
	PolitenessMaxDelay time.Duration `envconfig:"POLITENESS_MAX_DELAY" default:"800ms"`

	// Mail transport; leaving host/from/to empty routes the digest to
	// console output instead
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	EmailFrom    string `envconfig:"EMAIL_FROM"`
	EmailTo      string `envconfig:"EMAIL_TO"`

	// Redis (optional school-lookup mirror)
	RedisHost     string `envconfig:"REDIS_HOST"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Database (optional stat-line archive)
	DatabaseHost     string `envconfig:"DATABASE_HOST"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"alumni_digest"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"digest_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Worker
	DigestCron    string `envconfig:"DIGEST_CRON" default:"0 8 * * *"`
	EnableMetrics bool   `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int    `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SchoolSubstring == "" && len(c.TrackedPlayerIDs) == 0 {
		return fmt.Errorf("SCHOOL_SUBSTRING or TRACKED_PLAYER_IDS is required")
	}

	if c.CacheMaxAgeDays <= 0 {
		return fmt.Errorf("CACHE_MAX_AGE_DAYS must be positive")
	}

	if c.PolitenessMaxDelay < c.PolitenessMinDelay {
		return fmt.Errorf("POLITENESS_MAX_DELAY must not be less than POLITENESS_MIN_DELAY")
	}

	return nil
}

// RedisEnabled reports whether the optional school-lookup mirror is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// ArchiveEnabled reports whether the optional stat-line archive is configured
func (c *Config) ArchiveEnabled() bool {
	return c.DatabaseHost != ""
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
