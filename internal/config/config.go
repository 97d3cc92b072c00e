package config

import (
	"errors"
	"os"
	"time"
)

// Config holds runtime configuration, loaded from environment variables.
type Config struct {
	Port               string
	DatabaseURL        string // postgres DSN; empty selects SQLite
	SQLitePath         string
	RedisAddr          string
	RedisPassword      string
	JWTSecret          string
	QuestionServiceURL string // empty selects the static YAML catalog
	QuestionSeedPath   string
	MatchTTL           time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         getEnvOrDefault("SQLITE_PATH", "peermatch.db"),
		RedisAddr:          getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", "your-secret-key"), // default for development
		QuestionServiceURL: os.Getenv("QUESTION_SERVICE_URL"),
		QuestionSeedPath:   getEnvOrDefault("QUESTION_SEED_PATH", "questions.yaml"),
		MatchTTL:           10 * time.Minute,
	}

	if ttl := os.Getenv("MATCH_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, errors.New("invalid MATCH_TTL: " + ttl)
		}
		config.MatchTTL = parsed
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if config.MatchTTL <= 0 {
		return errors.New("MATCH_TTL must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
