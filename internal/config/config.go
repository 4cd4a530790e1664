package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	OpenAI     OpenAIConfig
	Google     GoogleConfig
	Pipeline   PipelineConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	StaticDir      string
}

// OpenAIConfig holds the extraction model configuration
type OpenAIConfig struct {
	APIKey              string
	APIBase             string
	Model               string
	Temperature         float64
	MaxTokens           int
	EmbeddingModel      string
	EmbeddingDimensions int
	BatchSize           int
	Timeout             int
	Enabled             bool
}

// GoogleConfig holds Google Maps API configuration
type GoogleConfig struct {
	APIKey       string
	GeocodeBase  string
	PlacesBase   string
	DistanceBase string
	Timeout      int
	Enabled      bool
}

// PipelineConfig holds batch pipeline configuration
type PipelineConfig struct {
	ExtractStaggerMS int    // per-index delay when fanning out extraction requests
	GeoMaxWorkers    int    // concurrency cap for geodata enrichment
	Cron             string // optional cron spec for scheduled full runs
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "homescraper"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 3000),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			StaticDir:      getEnv("STATIC_DIR", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			APIBase:             getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			Model:               getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature:         getEnvAsFloat("OPENAI_TEMPERATURE", 0.2),
			MaxTokens:           getEnvAsInt("OPENAI_MAX_TOKENS", 4096),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
			BatchSize:           getEnvAsInt("OPENAI_BATCH_SIZE", 100),
			Timeout:             getEnvAsInt("OPENAI_TIMEOUT", 120),
			Enabled:             getEnv("OPENAI_API_KEY", "") != "",
		},
		Google: GoogleConfig{
			APIKey:       getEnv("GOOGLE_API_KEY", ""),
			GeocodeBase:  getEnv("GOOGLE_GEOCODE_BASE", "https://maps.googleapis.com/maps/api/geocode/json"),
			PlacesBase:   getEnv("GOOGLE_PLACES_BASE", "https://places.googleapis.com/v1/places:searchNearby"),
			DistanceBase: getEnv("GOOGLE_DISTANCE_BASE", "https://maps.googleapis.com/maps/api/distancematrix/json"),
			Timeout:      getEnvAsInt("GOOGLE_TIMEOUT", 30),
			Enabled:      getEnv("GOOGLE_API_KEY", "") != "",
		},
		Pipeline: PipelineConfig{
			ExtractStaggerMS: getEnvAsInt("PIPELINE_EXTRACT_STAGGER_MS", 500),
			GeoMaxWorkers:    getEnvAsInt("PIPELINE_GEO_MAX_WORKERS", 8),
			Cron:             getEnv("PIPELINE_CRON", ""),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns the PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
