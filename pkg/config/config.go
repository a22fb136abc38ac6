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
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port       string
	Env        string // development, staging, production
	TrustProxy bool   // API sits behind a proxy that sets X-Forwarded-For

	// Analysis defaults
	Analysis AnalysisConfig

	// Upload limits (API)
	Upload UploadConfig

	// Session store
	Session SessionConfig

	// Redis
	Redis RedisConfig

	// Remote sources
	Fetch FetchConfig

	// Inbox scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// AnalysisConfig holds the defaults applied when a caller does not override them
type AnalysisConfig struct {
	Threshold float64 // DIP / Momentum threshold in percent
	Workers   int     // parallel file parsers, 1 = sequential
	AliasFile string  // optional YAML alias extensions
}

// UploadConfig holds multipart upload limits
type UploadConfig struct {
	MaxBytes      int64
	RatePerMinute int
}

// SessionConfig holds analysis session lifetime
type SessionConfig struct {
	TTL time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// FetchConfig holds HTTP settings for URL inputs
type FetchConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// SchedulerConfig holds the inbox report job settings
type SchedulerConfig struct {
	Cron      string
	InboxDir  string
	OutputDir string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile("")
	return build()
}

// LoadFrom reads configuration after loading an explicit .env file.
// An empty path falls back to the default search.
func LoadFrom(envFile string) (*Config, error) {
	loadEnvFile(envFile)
	return build()
}

func build() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		TrustProxy: getEnvAsBool("TRUST_PROXY", false),

		Analysis: AnalysisConfig{
			Threshold: getEnvAsFloat("ANALYSIS_THRESHOLD", 10.0),
			Workers:   getEnvAsInt("ANALYSIS_WORKERS", 1),
			AliasFile: getEnv("ALIAS_FILE", ""),
		},

		Upload: UploadConfig{
			MaxBytes:      int64(getEnvAsInt("UPLOAD_MAX_MB", 32)) << 20,
			RatePerMinute: getEnvAsInt("UPLOAD_RATE_PER_MIN", 30),
		},

		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", "2h"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Fetch: FetchConfig{
			Timeout:    getEnvAsDuration("FETCH_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("FETCH_MAX_RETRIES", 3),
			RatePerSec: getEnvAsFloat("FETCH_RATE_PER_SEC", 2),
		},

		Scheduler: SchedulerConfig{
			Cron:      getEnv("SCHEDULER_CRON", "0 0 18 * * 1-5"),
			InboxDir:  getEnv("SCHEDULER_INBOX", "inbox"),
			OutputDir: getEnv("SCHEDULER_OUTPUT", "reports"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.Threshold <= 0 {
		return fmt.Errorf("ANALYSIS_THRESHOLD must be > 0")
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be >= 1")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_MB must be > 0")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be a positive duration")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile loads an explicit .env file or tries the usual locations
func loadEnvFile(explicit string) {
	if explicit != "" {
		_ = godotenv.Load(explicit)
		return
	}

	paths := []string{".env"}

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
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
