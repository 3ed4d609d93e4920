package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/questweaver/questweaver/internal/config"
	"github.com/questweaver/questweaver/internal/engine"
	"github.com/questweaver/questweaver/internal/handlers"
	"github.com/questweaver/questweaver/internal/logger"
	"github.com/questweaver/questweaver/internal/middleware"
	"github.com/questweaver/questweaver/internal/services"
	"github.com/questweaver/questweaver/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting QuestWeaver API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"wire_mode", cfg.WireMode)

	var llmService services.LLMService
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Error("Anthropic API key is required when using anthropic provider")
			os.Exit(1)
		}
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
		log.Info("Using Anthropic narrator provider")
	case "ollama":
		llmService = services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log)
		log.Info("Using Ollama narrator provider", "url", cfg.OllamaURL)
	case "mock":
		llmService = services.NewMockLLM()
		log.Warn("Using mock narrator provider; turns will be canned")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider,
			"supported", []string{"anthropic", "ollama", "mock"})
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize narrator model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	registry := engine.NewRegistry(llmService, store, cfg.WireMode, log).
		WithRating(cfg.ContentRating)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	gameHandler := handlers.NewGameHandler(registry, store, log)
	mux.Handle("/v1/game", gameHandler)
	mux.Handle("/v1/game/", gameHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: turn resolution blocks on the narrator call.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
