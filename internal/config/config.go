package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string

	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeoutSecs  int
	LLMConcurrency  int
	LLMMaxRetries   int

	AuditWorkers int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		if _, err := fmt.Sscanf(v, "%d", &out); err == nil {
			return out
		}
	}
	return def
}

func Load() (Config, error) {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg := Config{
		Env:             getenv("APP_ENV", "development"),
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  os.Getenv("ANTHROPIC_MODEL"),
		LLMTimeoutSecs:  getenvInt("LLM_TIMEOUT_SECS", 60),
		LLMConcurrency:  getenvInt("LLM_CONCURRENCY", 4),
		LLMMaxRetries:   getenvInt("LLM_MAX_RETRIES", 2),
		AuditWorkers:    getenvInt("AUDIT_WORKERS", 2),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	if cfg.AnthropicAPIKey == "" {
		return cfg, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}
	return cfg, nil
}
