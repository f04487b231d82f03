package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Relay    RelayConfig
	Geocoder GeocoderConfig
	Pricing  PricingConfig
	NewRelic NewRelicConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RelayConfig holds push relay connection configuration. The relay offers
// no delivery guarantees, so reconnect parameters only bound how hard the
// client tries to get back on the wire.
type RelayConfig struct {
	URL                  string
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	ReconnectMaxAttempts int
	WriteTimeout         time.Duration
}

// GeocoderConfig holds geocoding lookup configuration.
type GeocoderConfig struct {
	BaseURL       string
	Timeout       time.Duration
	DebounceDelay time.Duration
	CountryCodes  string
	UserAgent     string
}

// PricingConfig holds the fixed estimate formula parameters.
type PricingConfig struct {
	BaseFare     float64
	PerKmRate    float64
	MinutesPerKm float64
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "hailo"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Relay: RelayConfig{
			URL:                  getEnv("RELAY_URL", "ws://localhost:9000/socket"),
			ReconnectBaseDelay:   getDurationEnv("RELAY_RECONNECT_BASE_DELAY", 500*time.Millisecond),
			ReconnectMaxDelay:    getDurationEnv("RELAY_RECONNECT_MAX_DELAY", 30*time.Second),
			ReconnectMaxAttempts: getIntEnv("RELAY_RECONNECT_MAX_ATTEMPTS", 10),
			WriteTimeout:         getDurationEnv("RELAY_WRITE_TIMEOUT", 5*time.Second),
		},
		Geocoder: GeocoderConfig{
			BaseURL:       getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			Timeout:       getDurationEnv("GEOCODER_TIMEOUT", 10*time.Second),
			DebounceDelay: getDurationEnv("GEOCODER_DEBOUNCE_DELAY", 300*time.Millisecond),
			CountryCodes:  getEnv("GEOCODER_COUNTRY_CODES", "in"),
			UserAgent:     getEnv("GEOCODER_USER_AGENT", "Hailo Ride App"),
		},
		Pricing: PricingConfig{
			BaseFare:     getFloatEnv("PRICING_BASE_FARE", 2.0),
			PerKmRate:    getFloatEnv("PRICING_PER_KM_RATE", 1.5),
			MinutesPerKm: getFloatEnv("PRICING_MINUTES_PER_KM", 3.0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "hailo-ride-client"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
