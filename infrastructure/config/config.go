package config

import (
	"fmt"
	"os"
	"strconv"
)

// Persistence driver names accepted by PERSISTENCE_DRIVER
const (
	DriverMemory   = "memory"
	DriverDynamoDB = "dynamodb"
)

// EditingConfig holds configuration for the undo/redo engine
type EditingConfig struct {
	// MaxHistory is the per-deck command history capacity
	MaxHistory int
	// PersistHistory enables history snapshots in the history store
	PersistHistory bool
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion    string
	SlidesTable  string
	HistoryTable string

	// Persistence driver: memory or dynamodb
	PersistenceDriver string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics   bool
	EnableTracing   bool
	TracingEndpoint string

	// Runtime overrides file (optional, hot reloaded)
	OverridesPath string

	// Editing configuration
	Editing EditingConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		SlidesTable:   getEnv("SLIDES_TABLE", "deckgen-slides"),
		HistoryTable:  getEnv("HISTORY_TABLE", "deckgen-history"),

		PersistenceDriver: getEnv("PERSISTENCE_DRIVER", DriverMemory),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		EnableMetrics:   getEnvBool("ENABLE_METRICS", true),
		EnableTracing:   getEnvBool("ENABLE_TRACING", false),
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),

		OverridesPath: getEnv("OVERRIDES_PATH", ""),

		Editing: EditingConfig{
			MaxHistory:     getEnvInt("MAX_HISTORY", 50),
			PersistHistory: getEnvBool("PERSIST_HISTORY", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.PersistenceDriver {
	case DriverMemory, DriverDynamoDB:
	default:
		return fmt.Errorf("unknown persistence driver %q", c.PersistenceDriver)
	}

	if c.PersistenceDriver == DriverDynamoDB {
		if c.SlidesTable == "" {
			return fmt.Errorf("SLIDES_TABLE is required with the dynamodb driver")
		}
		if c.Editing.PersistHistory && c.HistoryTable == "" {
			return fmt.Errorf("HISTORY_TABLE is required when history persistence is enabled")
		}
	}

	if c.Editing.MaxHistory <= 0 {
		return fmt.Errorf("MAX_HISTORY must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
