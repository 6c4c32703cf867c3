package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	Strategy StrategyConfig
	Data     DataConfig
	Database DatabaseConfig
	Redis    RedisConfig
	API      APIConfig
}

// StrategyConfig holds the strategy engine parameters
type StrategyConfig struct {
	// SquareOffTime is the intraday cutoff in HH:MM form, e.g. "15:10"
	SquareOffTime string
	ATRPeriod     int
}

// DataConfig holds session data and report locations
type DataConfig struct {
	Symbols   []string
	DataDir   string
	ReportDir string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	StreamName   string
}

// APIConfig holds REST API configuration
type APIConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory or parent directories
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Strategy: StrategyConfig{
			SquareOffTime: getEnv("STRATEGY_SQUARE_OFF_TIME", "15:10"),
			ATRPeriod:     getEnvAsInt("STRATEGY_ATR_PERIOD", 14),
		},
		Data: DataConfig{
			Symbols:   getEnvAsStringSlice("DATA_SYMBOLS", []string{}),
			DataDir:   getEnv("DATA_DIR", "data"),
			ReportDir: getEnv("REPORT_DIR", "reports"),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "bandscan"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			StreamName:   getEnv("REDIS_STREAM_NAME", "band.runs"),
		},
		API: APIConfig{
			Port:         getEnvAsInt("API_PORT", 8090),
			ReadTimeout:  getEnvAsDuration("API_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvAsDuration("API_WRITE_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := c.Strategy.SquareOffMinutes(); err != nil {
		return err
	}
	if c.Strategy.ATRPeriod <= 0 {
		return fmt.Errorf("STRATEGY_ATR_PERIOD must be positive")
	}
	if c.Data.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required when DB_ENABLED is set")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	return nil
}

// SquareOffMinutes parses the cutoff into minutes since midnight
func (s *StrategyConfig) SquareOffMinutes() (int, error) {
	parts := strings.Split(s.SquareOffTime, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("STRATEGY_SQUARE_OFF_TIME must be HH:MM, got %q", s.SquareOffTime)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("STRATEGY_SQUARE_OFF_TIME has invalid hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("STRATEGY_SQUARE_OFF_TIME has invalid minute %q", parts[1])
	}
	return hour*60 + minute, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
