package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port                     string
	DatabaseURL              string // MySQL or PostgreSQL URL for the email store
	Version                  string
	LogLevel                 string
	OpenAIKey                string
	AzureOpenAIEndpoint      string // Azure OpenAI endpoint (primary provider when set)
	AzureOpenAIKey           string
	AzureOpenAIGPTDeployment string // Azure deployment name for chat completions
	OpenAITimeout            int    // OpenAI API timeout in seconds
	SendGridAPIKey           string // SendGrid API key for delivering finalized responses
	SupportEmail             string // Address finalized responses are sent from
	AdminUsername            string // Admin credentials for the dashboard admin endpoints
	AdminPassword            string
	StatsCacheTTL            int // Dashboard stats cache TTL in minutes
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:                     getEnv("PORT", "8080"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		Version:                  getEnv("VERSION", "1.0.0"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		AzureOpenAIEndpoint:      os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIKey:           os.Getenv("AZURE_OPENAI_KEY"),
		AzureOpenAIGPTDeployment: getEnv("AZURE_OPENAI_GPT_DEPLOYMENT", "gpt-4o-mini"),
		OpenAITimeout:            getEnvInt("OPENAI_TIMEOUT", 30),
		SendGridAPIKey:           os.Getenv("SENDGRID_API_KEY"),
		SupportEmail:             getEnv("SUPPORT_EMAIL", "support@maildesk.app"),
		AdminUsername:            getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:            os.Getenv("ADMIN_PASSWORD"),
		StatsCacheTTL:            getEnvInt("STATS_CACHE_TTL_MINUTES", 1),
	}

	return config
}

// UseAzureOpenAI returns true when Azure OpenAI is fully configured
func (c *Config) UseAzureOpenAI() bool {
	return c.AzureOpenAIEndpoint != "" && c.AzureOpenAIKey != ""
}

// HasOpenAIFallback returns true when a platform OpenAI key is available
func (c *Config) HasOpenAIFallback() bool {
	return c.OpenAIKey != ""
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	// Configure zerolog to output JSON without newlines
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Create logger with JSON output to stdout
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "maildesk").
		Str("version", c.Version).
		Logger()

	// Set log level based on configuration
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
