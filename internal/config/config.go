// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	// HTTP
	Port        int
	CORSOrigins []string

	// Storage. DatabaseURL selects Postgres when set; otherwise SQLite at DBPath.
	DBPath      string
	DatabaseURL string

	// Payment parser. Disabled when OpenAIAPIKey is empty.
	OpenAIAPIKey string
	OpenAIModel  string

	// Reconciler
	ReconcileRetries int
}

// Load reads .env (if present) and the environment, applying defaults.
func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:       getEnvDefault("DB_PATH", "./data/warikan.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnvDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		CORSOrigins:  splitList(getEnvDefault("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT out of range: %d", cfg.Port)
	}
	if cfg.ReconcileRetries, err = getEnvInt("RECONCILE_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.ReconcileRetries < 1 {
		return nil, fmt.Errorf("RECONCILE_RETRIES must be at least 1, got %d", cfg.ReconcileRetries)
	}

	return cfg, nil
}

// UsePostgres reports whether the Postgres store should be used.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// ParserEnabled reports whether natural-language payment parsing is available.
func (c *Config) ParserEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
