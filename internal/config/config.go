package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Geocode   GeocodeConfig   `yaml:"geocode"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                   string   `yaml:"port"`
	AllowedOrigins         []string `yaml:"allowed_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"` // mysql, postgres, sqlite or memory
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// SQLiteConfig contains SQLite settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// RedisConfig contains the address cache connection. Empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RabbitMQConfig contains change notification settings. Empty URL keeps
// notifications in process.
type RabbitMQConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// GeocodeConfig contains geocoding API settings
type GeocodeConfig struct {
	APIKey              string  `yaml:"api_key"`
	BaseURL             string  `yaml:"base_url"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
	RequestsPerSecond   float64 `yaml:"requests_per_second"`
	FailureThreshold    int     `yaml:"failure_threshold"`
	ResetTimeoutSeconds int     `yaml:"reset_timeout_seconds"`
	CacheTTLHours       int     `yaml:"cache_ttl_hours"`
	PlaceResultLimit    int     `yaml:"place_result_limit"`
}

// RateLimitConfig contains write rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// SchedulerConfig contains background job settings
type SchedulerConfig struct {
	Enabled             bool   `yaml:"enabled"`
	ResyncSpec          string `yaml:"resync_spec"`
	DailyBackfillTime   string `yaml:"daily_backfill_time"`
	BackfillConcurrency int    `yaml:"backfill_concurrency"`
	CleanupSpec         string `yaml:"cleanup_spec"`
}

// SessionsConfig contains browsing session settings
type SessionsConfig struct {
	IdleTimeoutMinutes int `yaml:"idle_timeout_minutes"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   "8084",
			AllowedOrigins:         []string{"http://localhost:3000"},
			ShutdownTimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     3306,
				User:     "root",
				Database: "listings",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Database: "listings",
			},
			SQLite: SQLiteConfig{Path: "listings.db"},
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{Index: "listing_places"},
		},
		RabbitMQ: RabbitMQConfig{Prefix: "listings"},
		Geocode: GeocodeConfig{
			TimeoutSeconds:      5,
			RequestsPerSecond:   10,
			FailureThreshold:    5,
			ResetTimeoutSeconds: 60,
			CacheTTLHours:       24 * 30,
			PlaceResultLimit:    5,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			Burst:             5,
		},
		Scheduler: SchedulerConfig{
			Enabled:             true,
			ResyncSpec:          "*/15 * * * *",
			DailyBackfillTime:   "02:00",
			BackfillConcurrency: 4,
			CleanupSpec:         "*/5 * * * *",
		},
		Sessions: SessionsConfig{IdleTimeoutMinutes: 30},
		Logging: LoggingConfig{
			Level:       "info",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetTimeout returns the geocoding request timeout
func (c *GeocodeConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetResetTimeout returns how long the circuit breaker stays open
func (c *GeocodeConfig) GetResetTimeout() time.Duration {
	return time.Duration(c.ResetTimeoutSeconds) * time.Second
}

// GetCacheTTL returns how long resolved addresses are cached
func (c *GeocodeConfig) GetCacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// GetIdleTimeout returns how long an unused session is kept
func (c *SessionsConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

// GetShutdownTimeout returns the graceful shutdown deadline
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// ApplyEnv fills unset connection settings from the environment
func (cfg *Config) ApplyEnv() {
	db := &cfg.Database
	db.Type = getEnvOrConfig(db.Type, "DB_TYPE", "sqlite")
	switch db.Type {
	case "mysql":
		m := &db.MySQL
		m.Host = getEnvOrConfig(m.Host, "DB_HOST", "mysql")
		m.Port = getEnvPort(m.Port, "DB_PORT", 3306)
		m.User = getEnvOrConfig(m.User, "DB_USER", "listings_user")
		m.Password = getEnvOrConfig(m.Password, "DB_PASSWORD", "listings_pass")
		m.Database = getEnvOrConfig(m.Database, "DB_NAME", "listings_db")
	case "postgres":
		p := &db.Postgres
		p.Host = getEnvOrConfig(p.Host, "DB_HOST", "db")
		p.Port = getEnvPort(p.Port, "DB_PORT", 5432)
		p.User = getEnvOrConfig(p.User, "DB_USER", "listings_user")
		p.Password = getEnvOrConfig(p.Password, "DB_PASSWORD", "listings_pass")
		p.Database = getEnvOrConfig(p.Database, "DB_NAME", "listings_db")
	case "sqlite":
		db.SQLite.Path = getEnvOrConfig(db.SQLite.Path, "SQLITE_PATH", "listings.db")
	}

	cfg.RabbitMQ.URL = getEnvOrConfig(cfg.RabbitMQ.URL, "RABBIT_URL", "")
	cfg.Redis.Addr = getEnvOrConfig(cfg.Redis.Addr, "REDIS_ADDR", "")
	cfg.Geocode.APIKey = getEnvOrConfig(cfg.Geocode.APIKey, "GEOCODE_API_KEY", "")
	cfg.Search.Meilisearch.Host = getEnvOrConfig(cfg.Search.Meilisearch.Host, "MEILISEARCH_HOST", "")
	cfg.Search.Meilisearch.APIKey = getEnvOrConfig(cfg.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
}

// getEnvPort returns the configured port, then the environment, then the default
func getEnvPort(configValue int, envKey string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}
	if n, err := strconv.Atoi(os.Getenv(envKey)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
