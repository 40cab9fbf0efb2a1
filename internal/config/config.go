package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	JWTSecret      string
	LogLevel       string
	AllowedOrigins []string
	// StatsInterval is a cron-standard spec (e.g. "@every 15s") that drives
	// the periodic stats broadcast to connected clients.
	StatsInterval string
}

// Load loads configuration from a .env file (if present) and environment
// variables, falling back to defaults.
func Load() (*Config, error) {
	// A missing .env file is not an error; plain env vars still apply.
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./livepoll.db"),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		StatsInterval:  getEnv("STATS_INTERVAL", "@every 15s"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
