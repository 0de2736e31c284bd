package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration loaded from the environment.
type Config struct {
	DB     DBConfig
	Gemini GeminiConfig
	Search SearchConfig

	// OpTimeout bounds every storage operation; hitting it is reported
	// as a storage error, i.e. retryable.
	OpTimeout time.Duration
}

// DBConfig holds PostgreSQL connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GeminiConfig holds hosted-model settings. An empty APIKey disables the
// assistant and the semantic search tier; everything else keeps working.
type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	// EmbeddingDims must match the width of the embedding column.
	EmbeddingDims int32
}

// SearchConfig holds the tunable minimum-score thresholds.
type SearchConfig struct {
	FuzzyMinScore    float64
	SemanticMinScore float64
}

// DSN renders the pgx connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded, using environment variables: %v", err)
	}

	return &Config{
		DB: DBConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnvInt("PG_PORT", 5432),
			User:     getEnv("PG_USER", "postgres"),
			Password: getEnv("PG_PASSWORD", ""),
			DBName:   getEnv("PG_DB", "postgres"),
			SSLMode:  getEnv("PG_SSLMODE", "disable"),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			EmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001"),
			EmbeddingDims:  int32(getEnvInt("GEMINI_EMBEDDING_DIMS", 1536)),
		},
		Search: SearchConfig{
			FuzzyMinScore:    getEnvFloat("SEARCH_FUZZY_MIN_SCORE", 0.1),
			SemanticMinScore: getEnvFloat("SEARCH_SEMANTIC_MIN_SCORE", 0.3),
		},
		OpTimeout: getEnvDuration("FINTRACK_OP_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid integer for %s: %q, using default %d", key, value, defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Printf("invalid float for %s: %q, using default %g", key, value, defaultVal)
			return defaultVal
		}
		return f
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration for %s: %q, using default %s", key, value, defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
