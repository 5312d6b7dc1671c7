package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     int
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// SnapshotChannel is the upstream pub/sub channel carrying enriched
	// snapshot ticks.
	SnapshotChannel string

	APIPort int

	// Engine configuration
	Engine EngineConfig

	// Writer configuration
	Writer WriterConfig

	// Trigger configuration
	Triggers TriggerConfig

	// Orchestrator configuration
	Orchestrator OrchestratorConfig
}

// EngineConfig sizes the detection core and its arenas
type EngineConfig struct {
	MaxSymbols        int
	WindowSizeSeconds int
	Workers           int
	QueueSize         int
	CacheMaxAgeMin    int

	// DefaultCooldownSeconds floors every rule cooldown except the
	// cooldown-exempt halt machine.
	DefaultCooldownSeconds int
}

// WriterConfig tunes event persistence batching and data lifecycle
type WriterConfig struct {
	FlushIntervalSeconds int
	MaxBuffer            int
	MaxBatch             int
	RetentionDays        int
	CompressionAfterDays int
}

// TriggerConfig holds trigger engine settings
type TriggerConfig struct {
	Enabled bool
}

// OrchestratorConfig holds workflow orchestrator client settings
type OrchestratorConfig struct {
	Enabled       bool
	Endpoint      string
	APIKey        string
	RatePerSecond float64
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvInt("DB_PORT", 5432),
		DatabaseName:     getEnvOrDefault("DB_NAME", "market_events"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "market"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "market123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		SnapshotChannel: getEnvOrDefault("SNAPSHOT_CHANNEL", "snapshots:enriched"),

		APIPort: getEnvInt("API_PORT", 8090),

		Engine: EngineConfig{
			MaxSymbols:             getEnvInt("MAX_SYMBOLS", 10000),
			WindowSizeSeconds:      getEnvInt("WINDOW_SIZE_SECONDS", 1801),
			Workers:                getEnvInt("ENGINE_WORKERS", 8),
			QueueSize:              getEnvInt("ENGINE_QUEUE_SIZE", 1024),
			CacheMaxAgeMin:         getEnvInt("CACHE_MAX_AGE_MIN", 5),
			DefaultCooldownSeconds: getEnvInt("DEFAULT_COOLDOWN_S", 60),
		},

		Writer: WriterConfig{
			FlushIntervalSeconds: getEnvInt("WRITER_FLUSH_INTERVAL_S", 5),
			MaxBuffer:            getEnvInt("WRITER_MAX_BUFFER", 50000),
			MaxBatch:             getEnvInt("WRITER_MAX_BATCH", 10000),
			RetentionDays:        getEnvInt("RETENTION_DAYS", 60),
			CompressionAfterDays: getEnvInt("COMPRESSION_AFTER_DAYS", 2),
		},

		Triggers: TriggerConfig{
			Enabled: getEnvOrDefault("TRIGGERS_ENABLED", "true") == "true",
		},

		Orchestrator: OrchestratorConfig{
			Enabled:       getEnvOrDefault("ORCHESTRATOR_ENABLED", "false") == "true",
			Endpoint:      getEnvOrDefault("ORCHESTRATOR_ENDPOINT", ""),
			APIKey:        getEnvOrDefault("ORCHESTRATOR_API_KEY", ""),
			RatePerSecond: getEnvFloat("ORCHESTRATOR_RATE_PER_S", 5.0),
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
