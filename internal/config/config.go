package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/questweaver/questweaver/pkg/state"
	"github.com/questweaver/questweaver/pkg/textfilter"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// LLMProvider selects the narrator backend: anthropic, ollama or mock.
	LLMProvider     string
	AnthropicAPIKey string
	ModelName       string
	OllamaURL       string

	RedisURL string

	// WireMode selects how raw model output is parsed into turn deltas.
	WireMode state.WireMode

	// ContentRating caps narrator language: mature or family.
	ContentRating textfilter.Rating
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "mock")),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ModelName:       getEnv("MODEL_NAME", ""),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		WireMode:        state.ParseWireMode(getEnv("WIRE_MODE", "structured")),
		ContentRating:   textfilter.ParseRating(getEnv("CONTENT_RATING", "mature")),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
