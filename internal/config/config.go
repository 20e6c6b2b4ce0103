package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/feedup/feedup-backend/pkg/database"
)

// Config holds the full service configuration, loaded from environment
// variables with local-development defaults.
type Config struct {
	HTTPPort  string
	JWTSecret string
	LogLevel  string
	DevMode   bool

	Database database.Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Empty means events are disabled.
	KafkaBrokers []string
}

// Load reads the configuration from the environment.
func Load() *Config {
	cfg := &Config{
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		DevMode:   getEnv("DEV_MODE", "false") == "true",
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "feedupdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	if db, err := strconv.Atoi(getEnv("REDIS_DB", "0")); err == nil {
		cfg.RedisDB = db
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
