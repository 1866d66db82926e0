// Package config provides configuration management for the dashboard backend.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	MarketData MarketDataConfig
	Snapshot   SnapshotConfig
	Session    SessionConfig
	Polling    PollingConfig
	Settings   SettingsConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds backend configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration.
// An empty URL means the dashboard runs without a backend.
type PostgresConfig struct {
	URL            string
	MaxConnections int
	MigrationsPath string
}

// Enabled reports whether a backend connection was configured
func (c PostgresConfig) Enabled() bool {
	return c.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// MarketDataConfig holds market-data provider and proxy configuration
type MarketDataConfig struct {
	APIKey         string // empty: serve the fallback dataset
	BaseURL        string
	ProxyURL       string // where Client reaches the proxy endpoint
	RequestTimeout time.Duration
	CreditBudget   int // provider credits per CreditWindow; 0 disables the budget
	CreditWindow   time.Duration
	CreditReserved *int // credits kept for interactive requests; nil uses the default share
}

// SnapshotConfig selects where the settings backup blob lives
type SnapshotConfig struct {
	Store      string // "redis" or "sqlite"
	SQLitePath string
	KeyPrefix  string
}

// SessionConfig holds session token configuration
type SessionConfig struct {
	Secret        string
	TTL           time.Duration
	DemoEmail     string
	SecureCookies bool
}

// PollingConfig holds the refresh interval of each polled widget
type PollingConfig struct {
	Enabled        bool
	Watchlist      time.Duration
	ExploreMarket  time.Duration
	PortfolioStats time.Duration
	MarketTrades   time.Duration
}

// SettingsConfig holds settings page behaviour
type SettingsConfig struct {
	StatusResetDelay time.Duration
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				URL:            getEnv("DATABASE_URL", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
				MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations/postgres"),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		MarketData: MarketDataConfig{
			APIKey:         getEnv("COINMARKETCAP_API_KEY", ""),
			BaseURL:        getEnv("COINMARKETCAP_BASE_URL", "https://pro-api.coinmarketcap.com/v1"),
			ProxyURL:       getEnv("MARKET_PROXY_URL", "http://localhost:8080"),
			RequestTimeout: getEnvAsDuration("MARKET_REQUEST_TIMEOUT", 10*time.Second),
			CreditBudget:   getEnvAsInt("MARKET_CREDIT_BUDGET", 0),
			CreditWindow:   getEnvAsDuration("MARKET_CREDIT_WINDOW", 24*time.Hour),
			CreditReserved: getEnvAsOptionalInt("MARKET_CREDIT_RESERVED"),
		},
		Snapshot: SnapshotConfig{
			Store:      strings.ToLower(getEnv("SNAPSHOT_STORE", "redis")),
			SQLitePath: getEnv("SNAPSHOT_SQLITE_PATH", "dashboard-snapshots.db"),
			KeyPrefix:  getEnv("SNAPSHOT_KEY_PREFIX", "userSettings"),
		},
		Session: SessionConfig{
			Secret:        getEnv("SESSION_SECRET", "dev-session-secret"),
			TTL:           getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			DemoEmail:     getEnv("DEMO_USER_EMAIL", "demo@example.com"),
			SecureCookies: getEnvAsBool("SESSION_SECURE_COOKIES", false),
		},
		Polling: PollingConfig{
			Enabled:        getEnvAsBool("POLLING_ENABLED", true),
			Watchlist:      getEnvAsDuration("POLL_WATCHLIST_INTERVAL", 5*time.Minute),
			ExploreMarket:  getEnvAsDuration("POLL_EXPLORE_MARKET_INTERVAL", 5*time.Minute),
			PortfolioStats: getEnvAsDuration("POLL_PORTFOLIO_STATS_INTERVAL", 5*time.Minute),
			MarketTrades:   getEnvAsDuration("POLL_MARKET_TRADES_INTERVAL", time.Minute),
		},
		Settings: SettingsConfig{
			StatusResetDelay: getEnvAsDuration("SETTINGS_STATUS_RESET_DELAY", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate rejects combinations the server cannot start with
func (c *Config) validate() error {
	switch c.Snapshot.Store {
	case "redis", "sqlite":
	default:
		return fmt.Errorf("invalid SNAPSHOT_STORE %q (must be 'redis' or 'sqlite')", c.Snapshot.Store)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET must not be empty")
	}
	if c.MarketData.CreditBudget < 0 {
		return fmt.Errorf("MARKET_CREDIT_BUDGET cannot be negative, got %d", c.MarketData.CreditBudget)
	}
	if c.MarketData.CreditBudget > 0 && c.MarketData.CreditWindow <= 0 {
		return fmt.Errorf("MARKET_CREDIT_WINDOW must be positive when a credit budget is set")
	}
	if r := c.MarketData.CreditReserved; r != nil && (*r < 0 || *r > c.MarketData.CreditBudget) {
		return fmt.Errorf("MARKET_CREDIT_RESERVED must be between 0 and MARKET_CREDIT_BUDGET, got %d", *r)
	}
	if c.Database.Postgres.MaxConnections <= 0 {
		return fmt.Errorf("POSTGRES_MAX_CONNECTIONS must be positive, got %d", c.Database.Postgres.MaxConnections)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsOptionalInt returns nil when the variable is unset or not an integer
func getEnvAsOptionalInt(key string) *int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return nil
	}
	return &value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
