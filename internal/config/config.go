// Package config provides configuration management for the application
package config

import (
	"os"
	"strconv"
	"time"
)

// RedisConfig holds Redis/Valkey configuration for the room store
type RedisConfig struct {
	Enabled bool
	// URI is prioritized if provided, otherwise individual connection parameters are used
	URI       string
	Host      string
	Port      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	// TTL for rooms (0 means no expiration); refreshed on every write so it
	// acts as an inactivity cutoff
	RoomTTL time.Duration
}

// LLMConfig holds the text-completion service configuration used by the slot extractor
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ServiceConfig holds room service behavior switches and message rate limits
type ServiceConfig struct {
	// FilterToPeriod gates whether extracted dates outside the room's
	// committed period are applied or skipped
	FilterToPeriod bool

	// Message rate limiting, keyed per sender session
	MinMessageInterval time.Duration
	BurstLimit         int
	BurstWindow        time.Duration
	LockoutDuration    time.Duration
}

// GetRedisConfig loads Redis/Valkey configuration from environment variables
func GetRedisConfig() RedisConfig {
	// Parse TTL from environment variable (in hours)
	ttlHours := getEnvInt("REDIS_ROOM_TTL_HOURS", 720) // Default 30 days

	return RedisConfig{
		Enabled:   getEnvBool("REDIS_ENABLED", false),
		URI:       getEnv("REDIS_URI", ""),
		Host:      getEnv("REDIS_HOST", "localhost"),
		Port:      getEnv("REDIS_PORT", "6379"),
		Username:  getEnv("REDIS_USERNAME", ""),
		Password:  getEnv("REDIS_PASSWORD", ""),
		DB:        getEnvInt("REDIS_DB", 0),
		KeyPrefix: getEnv("REDIS_KEY_PREFIX", "mannaza:"),
		RoomTTL:   time.Duration(ttlHours) * time.Hour,
	}
}

// GetLLMConfig loads the text-completion service configuration from environment variables
func GetLLMConfig() LLMConfig {
	timeoutSeconds := getEnvInt("LLM_TIMEOUT_SECONDS", 20)

	return LLMConfig{
		APIKey:  getEnv("LLM_API_KEY", ""),
		BaseURL: getEnv("LLM_BASE_URL", "https://api.deepseek.com/v1"),
		Model:   getEnv("LLM_MODEL", "deepseek-chat"),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}
}

// GetServiceConfig loads room service configuration from environment variables
func GetServiceConfig() ServiceConfig {
	return ServiceConfig{
		FilterToPeriod:     getEnvBool("PERIOD_FILTER_ENABLED", true),
		MinMessageInterval: time.Duration(getEnvInt("MESSAGE_MIN_INTERVAL_MS", 1000)) * time.Millisecond,
		BurstLimit:         getEnvInt("MESSAGE_BURST_LIMIT", 3),
		BurstWindow:        time.Duration(getEnvInt("MESSAGE_BURST_WINDOW_MS", 5000)) * time.Millisecond,
		LockoutDuration:    time.Duration(getEnvInt("MESSAGE_LOCKOUT_MS", 30000)) * time.Millisecond,
	}
}

// IsLLMConfigValid checks if the minimum extractor configuration is present
func (c LLMConfig) IsLLMConfigValid() bool {
	return c.APIKey != "" && c.BaseURL != "" && c.Model != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool retrieves a boolean environment variable
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvInt retrieves an integer environment variable
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
