package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External services
	Analysis AnalysisConfig
	ML       MLConfig

	// Scan pipeline
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// AnalysisConfig holds the market analysis service configuration
type AnalysisConfig struct {
	BaseURL string
	Timeout time.Duration
}

// MLConfig holds the ML prediction service configuration
type MLConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec int
}

// ScanConfig holds pipeline tuning knobs.
// Batch size and concurrency are independent knobs: batch size controls how
// many tickers go into one downstream call, concurrency controls how many
// calls are in flight at once.
type ScanConfig struct {
	PriceBatchSize         int
	PriceConcurrency       int
	FundamentalBatchSize   int
	FundamentalConcurrency int
	TechnicalBatchSize     int
	TechnicalConcurrency   int
	SentimentBatchSize     int
	SentimentConcurrency   int

	// Full look-back window requested for tickers with stale or no history
	FullLookbackPeriod string
}

// Load reads configuration from environment variables
// ⭐ SSOT: this is the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "market_analysis"),
			User:            getEnv("DB_USER", "market_analysis"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External services
		Analysis: AnalysisConfig{
			BaseURL: getEnv("ANALYSIS_SERVICE_URL", "http://localhost:8001"),
			Timeout: getEnvAsDuration("ANALYSIS_SERVICE_TIMEOUT", "120s"),
		},
		ML: MLConfig{
			BaseURL:        getEnv("ML_SERVICE_URL", "http://localhost:8002"),
			Timeout:        getEnvAsDuration("ML_SERVICE_TIMEOUT", "60s"),
			RequestsPerSec: getEnvAsInt("ML_SERVICE_RPS", 5),
		},

		// Scan pipeline
		Scan: ScanConfig{
			PriceBatchSize:         getEnvAsInt("SCAN_PRICE_BATCH_SIZE", 50),
			PriceConcurrency:       getEnvAsInt("SCAN_PRICE_CONCURRENCY", 3),
			FundamentalBatchSize:   getEnvAsInt("SCAN_FUNDAMENTAL_BATCH_SIZE", 50),
			FundamentalConcurrency: getEnvAsInt("SCAN_FUNDAMENTAL_CONCURRENCY", 3),
			TechnicalBatchSize:     getEnvAsInt("SCAN_TECHNICAL_BATCH_SIZE", 50),
			TechnicalConcurrency:   getEnvAsInt("SCAN_TECHNICAL_CONCURRENCY", 10),
			SentimentBatchSize:     getEnvAsInt("SCAN_SENTIMENT_BATCH_SIZE", 10),
			SentimentConcurrency:   getEnvAsInt("SCAN_SENTIMENT_CONCURRENCY", 3),
			FullLookbackPeriod:     getEnv("SCAN_FULL_LOOKBACK_PERIOD", "6mo"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.BaseURL == "" {
		return fmt.Errorf("ANALYSIS_SERVICE_URL is required")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
