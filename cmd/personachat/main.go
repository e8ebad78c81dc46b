package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/personachat/personachat/internal/api"
	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/knowledge"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/repository"
	"github.com/personachat/personachat/internal/retriever"
	"github.com/personachat/personachat/internal/service"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Session store: SQLite when a path is configured, in-memory otherwise
	var store repository.SessionStore
	if cfg.Database.Path != "" {
		db, err := repository.NewDB(cfg.Database.Path)
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer db.Close()
		store = repository.NewSessionRepository(db)
	} else {
		logger.Warn("No database path configured, sessions are kept in memory")
		store = repository.NewMemoryStore()
	}

	// Knowledge base, loaded once and read-only afterwards
	kb, err := knowledge.LoadStore(cfg.Knowledge.Path)
	if err != nil {
		logger.Fatal("Failed to load knowledge base", zap.Error(err))
	}
	if kb.Len() == 0 {
		logger.Warn("Knowledge base is empty, chat will run without retrieval context",
			zap.String("path", cfg.Knowledge.Path))
	}

	// LLM client with retry; without credentials the chat falls back to
	// quick responses only
	var generator llm.Generator
	if cfg.LLM.APIKey != "" || cfg.LLM.BaseURL != "" {
		client := llm.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
		generator = llm.WithRetry(client, retryPolicy(cfg.LLM.Retry))
	} else {
		logger.Warn("No LLM endpoint configured, running with quick responses only")
	}

	// Initialize services
	chatService := service.NewChatService(
		cfg,
		store,
		retriever.NewLexical(kb),
		generator,
		logger,
	)
	adminService := service.NewAdminService(store, logger)

	// Setup router
	router := api.SetupRouter(chatService, adminService, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting personachat server",
			zap.String("address", cfg.Address()),
			zap.Int("knowledge_snippets", kb.Len()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func retryPolicy(cfg config.RetryConfig) llm.RetryPolicy {
	policy := llm.DefaultRetryPolicy()
	if cfg.MaxRateLimitAttempts > 0 {
		policy.MaxRateLimitAttempts = cfg.MaxRateLimitAttempts
	}
	if cfg.MaxTransientAttempts > 0 {
		policy.MaxTransientAttempts = cfg.MaxTransientAttempts
	}
	if cfg.BaseDelay > 0 {
		policy.BaseDelay = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 {
		policy.MaxDelay = cfg.MaxDelay
	}
	return policy
}
