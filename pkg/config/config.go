package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ingestion sources
const (
	SourcePostgres = "postgres"
	SourceEODHD    = "eodhd"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External sources
	EODHD   EODHDConfig
	Profile ProfileConfig

	// Pipeline defaults
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration // 수집 결과 캐시 TTL
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

// EODHDConfig holds the end-of-day price/fundamental API configuration
type EODHDConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	Exchange          string // 거래소 접미사가 없는 심볼에 붙임 (예: US)
}

// ProfileConfig holds the sector profile page scraper configuration
type ProfileConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PipelineConfig holds defaults of a panel build
type PipelineConfig struct {
	Source          string // postgres, eodhd
	Workers         int    // 심볼별 수집 동시성
	FetchPolicy     string // abort, subset
	NullLabelPolicy string // zero, drop, error
	FactorsFile     string // factor 파라미터 YAML (비어있으면 기본값)
	Timeout         time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "factorpanel"),
			User:            getEnv("DB_USER", "factorpanel"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "6h"),
		},

		EODHD: EODHDConfig{
			APIKey:            getEnv("EODHD_API_KEY", ""),
			BaseURL:           getEnv("EODHD_BASE_URL", "https://eodhd.com/api"),
			RequestsPerSecond: getEnvAsFloat("EODHD_RPS", 5),
			Timeout:           getEnvAsDuration("EODHD_TIMEOUT", "30s"),
			Exchange:          strings.ToUpper(getEnv("EODHD_EXCHANGE", "US")),
		},

		Profile: ProfileConfig{
			BaseURL: getEnv("PROFILE_BASE_URL", "https://finance.yahoo.com/quote"),
			Timeout: getEnvAsDuration("PROFILE_TIMEOUT", "15s"),
		},

		Pipeline: PipelineConfig{
			Source:          strings.ToLower(getEnv("PANEL_SOURCE", SourcePostgres)),
			Workers:         getEnvAsInt("PANEL_WORKERS", 8),
			FetchPolicy:     strings.ToLower(getEnv("PANEL_FETCH_POLICY", "abort")),
			NullLabelPolicy: strings.ToLower(getEnv("PANEL_NULL_LABEL_POLICY", "zero")),
			FactorsFile:     getEnv("PANEL_FACTORS_FILE", ""),
			Timeout:         getEnvAsDuration("PANEL_TIMEOUT", "5m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Pipeline.Source {
	case SourcePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for source %s", SourcePostgres)
		}
	case SourceEODHD:
		if c.EODHD.APIKey == "" {
			return fmt.Errorf("EODHD_API_KEY is required for source %s", SourceEODHD)
		}
	default:
		return fmt.Errorf("PANEL_SOURCE must be one of: %s, %s", SourcePostgres, SourceEODHD)
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PANEL_WORKERS must be positive")
	}
	if c.Pipeline.FetchPolicy != "abort" && c.Pipeline.FetchPolicy != "subset" {
		return fmt.Errorf("PANEL_FETCH_POLICY must be one of: abort, subset")
	}
	switch c.Pipeline.NullLabelPolicy {
	case "zero", "drop", "error":
	default:
		return fmt.Errorf("PANEL_NULL_LABEL_POLICY must be one of: zero, drop, error")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
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
