package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	URI      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// SessionConfig holds session lifecycle settings. Sessions are renewed when
// less than half the lifetime remains, so the renewal window is derived and
// not configured separately.
type SessionConfig struct {
	Lifetime      time.Duration
	SweepInterval time.Duration // zero disables the background sweeper
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Database       *DatabaseConfig
	Session        *SessionConfig
	AllowedOrigins []string
	Environment    string // "production" or "development"
	BaseURL        string
	Debug          bool
}

// IsProduction reports whether the app runs with production hardening
// (Secure session cookies, among other things).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DefaultServerConfig provides default server settings
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8080,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
	}
}

// DefaultDatabaseConfig provides default database settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Port:    5432,
		SSLMode: "require",
	}
}

// DefaultSessionConfig provides default session settings: 30-day sessions,
// hourly sweep of expired rows.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		Lifetime:      30 * 24 * time.Hour,
		SweepInterval: time.Hour,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env from the working directory and from the project root
	// when running from cmd/server. Missing files are fine.
	for _, location := range []string{".env", "../../.env"} {
		if err := godotenv.Load(location); err == nil {
			break
		}
	}

	serverConfig := DefaultServerConfig()

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			serverConfig.Port = port
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}

	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	dbConfig := DefaultDatabaseConfig()

	// Prioritize DATABASE_URL; fall back to individual DB_* variables.
	if uri := os.Getenv("DATABASE_URL"); uri != "" {
		dbConfig.URI = uri
		dbConfig.SSLMode = getSSLModeFromURI(uri)
	} else {
		dbConfig.Host = getEnvOrDefault("DB_HOST", "localhost")

		if portStr := os.Getenv("DB_PORT"); portStr != "" {
			if port, err := strconv.Atoi(portStr); err == nil {
				dbConfig.Port = port
			}
		}

		dbConfig.User = os.Getenv("DB_USER")
		if dbConfig.User == "" {
			return nil, fmt.Errorf("DB_USER environment variable is required when DATABASE_URL is not set")
		}

		dbConfig.Password = os.Getenv("DB_PASSWORD")
		if dbConfig.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD environment variable is required when DATABASE_URL is not set")
		}

		dbConfig.Name = getEnvOrDefault("DB_NAME", "postgres")
		dbConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", "require")

		dbConfig.URI = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			dbConfig.User,
			dbConfig.Password,
			dbConfig.Host,
			dbConfig.Port,
			dbConfig.Name,
			dbConfig.SSLMode,
		)
	}

	sessionConfig := DefaultSessionConfig()

	if lifetimeStr := os.Getenv("SESSION_LIFETIME"); lifetimeStr != "" {
		lifetime, err := time.ParseDuration(lifetimeStr)
		if err != nil || lifetime <= 0 {
			return nil, fmt.Errorf("invalid SESSION_LIFETIME %q", lifetimeStr)
		}
		sessionConfig.Lifetime = lifetime
	}

	if sweepStr := os.Getenv("SESSION_SWEEP_INTERVAL"); sweepStr != "" {
		sweep, err := time.ParseDuration(sweepStr)
		if err != nil || sweep < 0 {
			return nil, fmt.Errorf("invalid SESSION_SWEEP_INTERVAL %q", sweepStr)
		}
		sessionConfig.SweepInterval = sweep
	}

	config := &Config{
		Server:         serverConfig,
		Database:       dbConfig,
		Session:        sessionConfig,
		AllowedOrigins: []string{"*"},
		Environment:    getEnvOrDefault("ENVIRONMENT", "development"),
		BaseURL:        getEnvOrDefault("BASE_URL", "http://localhost:8080"),
		Debug:          false,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
	}

	return config, nil
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to extract sslmode from a DSN, defaults to "require"
func getSSLModeFromURI(uri string) string {
	parts := strings.Split(uri, "?")
	if len(parts) > 1 {
		for _, param := range strings.Split(parts[1], "&") {
			kv := strings.SplitN(param, "=", 2)
			if len(kv) == 2 && kv[0] == "sslmode" {
				return kv[1]
			}
		}
	}
	return "require"
}
