package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Dispatch      DispatchConfig
	RateLimit     RateLimitConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DispatchConfig holds fallback-dispatcher configuration
type DispatchConfig struct {
	// ProviderTimeout bounds each single outbound provider call. A timeout
	// counts as a provider failure and advances the fallback chain.
	ProviderTimeout time.Duration
}

// RateLimitConfig bounds inbound chat traffic per client IP. Chat requests
// fan out to paid provider APIs, so the limit is deliberately tight.
type RateLimitConfig struct {
	ChatRequests int
	ChatWindow   time.Duration
}

// AuthConfig holds the optional static API key guard. When APIKey is empty
// the gateway is open; when set, requests must carry it in X-B0B-API-Key.
type AuthConfig struct {
	APIKey string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env if present (no-op when missing)
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 2*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Dispatch: DispatchConfig{
			ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			ChatRequests: getEnvAsInt("CHAT_RATE_LIMIT", 10),
			ChatWindow:   getEnvAsDuration("CHAT_RATE_WINDOW", time.Minute),
		},
		Auth: AuthConfig{
			APIKey: getEnv("B0B_API_KEY", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Dispatch.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}
	if c.RateLimit.ChatRequests <= 0 {
		return fmt.Errorf("chat rate limit must be positive")
	}
	if c.RateLimit.ChatWindow <= 0 {
		return fmt.Errorf("chat rate window must be positive")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
