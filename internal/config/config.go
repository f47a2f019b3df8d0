package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Provider  ProviderConfig
	RateLimit RateLimitConfig
	Pricing   PricingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// ProviderConfig holds upstream quote provider configuration.
// APIKey may be empty here; in that case the encrypted key stored in
// system_setting is used (see secrets package).
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	Currency  string
	SecretKey string // base64 fernet key protecting the stored API key
}

// RateLimitConfig holds the client-side ceilings for provider calls.
// Defaults match the provider's free tier and must stay independently
// configurable.
type RateLimitConfig struct {
	PerMinute int
	PerDay    int
}

// PricingConfig holds tunables of the price cache read path.
type PricingConfig struct {
	// CompletenessThreshold is the minimum fraction of expected trading
	// days a cached range must cover to be served without a provider call.
	CompletenessThreshold float64
	// CacheTTL bounds how long the in-memory tier serves a cached lookup.
	CacheTTL time.Duration
	// RefreshSchedule is the cron expression for the background price
	// refresh job (default: shortly after US market close, Mon-Fri).
	RefreshSchedule string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	perMinute, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 5)
	if err != nil {
		return nil, err
	}
	perDay, err := getEnvInt("RATE_LIMIT_PER_DAY", 500)
	if err != nil {
		return nil, err
	}
	threshold, err := getEnvFloat("PRICE_COMPLETENESS_THRESHOLD", 0.7)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("PRICE_COMPLETENESS_THRESHOLD must be in (0, 1], got %v", threshold)
	}
	cacheTTL, err := getEnvDuration("PRICE_CACHE_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/virtual_trading.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Provider: ProviderConfig{
			APIKey:    getEnv("ALPHAVANTAGE_API_KEY", ""),
			BaseURL:   getEnv("ALPHAVANTAGE_BASE_URL", ""),
			Currency:  getEnv("QUOTE_CURRENCY", "USD"),
			SecretKey: getEnv("SETTINGS_SECRET_KEY", ""),
		},
		RateLimit: RateLimitConfig{
			PerMinute: perMinute,
			PerDay:    perDay,
		},
		Pricing: PricingConfig{
			CompletenessThreshold: threshold,
			CacheTTL:              cacheTTL,
			RefreshSchedule:       getEnv("PRICE_REFRESH_SCHEDULE", "30 21 * * 1-5"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}
