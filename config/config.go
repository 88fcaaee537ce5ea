package config

import (
	"os"
	"strconv"
	"time"

	"civicfix-backend/ratelimit"
)

// Config holds all configuration for the civicfix backend service
type Config struct {
	// Server configuration
	Port           string
	AllowedOrigins []string

	// LLM configuration
	LLMProvider  string // "gemini", "openai" or "stub"
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	LLMTimeout   time.Duration

	// MongoDB configuration
	MongoURI      string
	MongoDatabase string

	// Intake configuration
	DailyReportLimit   int
	RateLimitPerMinute int

	// RabbitMQ configuration (optional; intake works without a broker)
	AMQPUrl        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Development
	SeedEnabled bool

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server defaults
		Port:           getEnv("PORT", "9090"),
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGINS", "*")},

		// LLM defaults
		LLMProvider:  getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),
		LLMTimeout:   getDurationEnv("LLM_TIMEOUT", 30*time.Second),

		// MongoDB defaults
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "civicfix"),

		// Intake defaults
		DailyReportLimit:   getIntEnv("DAILY_REPORT_LIMIT", ratelimit.DefaultDailyLimit),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 30),

		// RabbitMQ defaults (disabled unless AMQP_URL is set)
		AMQPUrl:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "civicfix"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "report.created"),

		// Development defaults
		SeedEnabled: getBoolEnv("SEED_ENABLED", false),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// AIConfigured reports whether the selected provider has what it needs.
func (c *Config) AIConfigured() bool {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey != ""
	case "stub":
		return true
	default:
		return c.GeminiAPIKey != ""
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
