package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// OpenAIConfig holds the coach generation model settings
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI-compatible endpoint
	APIKey string
	// BaseURL overrides the API endpoint (Azure OpenAI or a proxy)
	BaseURL string
	// Model is the chat completion deployment used for coaching
	Model string
	// MaxTokens bounds the completion length per move
	MaxTokens int64
	// Temperature controls generation variance
	Temperature float64
	// MaxAttempts bounds internal retries per move
	MaxAttempts int
	// RetryBaseDelay is the initial backoff delay between attempts
	RetryBaseDelay time.Duration
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion          string
	OperationTable     string
	AnalysisBatchTable string
	GameIndexTable     string

	// chess.com upstream
	ChessComBaseURL string

	// OpenAI generation
	OpenAI OpenAIConfig

	// Per-move generation deadlines by analysis mode
	QuickTimeoutBudget time.Duration
	DeepTimeoutBudget  time.Duration

	// Retention
	RetentionWindow time.Duration

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		AWSRegion:          getEnv("AWS_REGION", "us-west-2"),
		OperationTable:     getEnv("OPERATION_STATE_TABLE", "chessmate-operation-state"),
		AnalysisBatchTable: getEnv("ANALYSIS_BATCH_TABLE", "chessmate-analysis-batch"),
		GameIndexTable:     getEnv("GAME_INDEX_TABLE", "chessmate-game-index"),

		ChessComBaseURL: getEnv("CHESSCOM_BASE_URL", "https://api.chess.com/pub/"),

		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:      int64(getEnvInt("OPENAI_MAX_TOKENS", 220)),
			Temperature:    getEnvFloat("OPENAI_TEMPERATURE", 0.4),
			MaxAttempts:    getEnvInt("OPENAI_MAX_ATTEMPTS", 3),
			RetryBaseDelay: getEnvDuration("OPENAI_RETRY_BASE_DELAY", 300*time.Millisecond),
		},

		QuickTimeoutBudget: getEnvDuration("QUICK_TIMEOUT_BUDGET", 60*time.Second),
		DeepTimeoutBudget:  getEnvDuration("DEEP_TIMEOUT_BUDGET", 60*time.Second),

		RetentionWindow: getEnvDuration("RETENTION_WINDOW", 30*24*time.Hour),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required in production")
		}
		if c.OperationTable == "" {
			return fmt.Errorf("OPERATION_STATE_TABLE is required")
		}
	}
	if c.OpenAI.MaxAttempts < 1 {
		return fmt.Errorf("OPENAI_MAX_ATTEMPTS must be at least 1")
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

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
