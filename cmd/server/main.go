package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"healthgenie.io/assistant/internal/api"
	"healthgenie.io/assistant/internal/auth"
	"healthgenie.io/assistant/internal/config"
	"healthgenie.io/assistant/internal/core"
	"healthgenie.io/assistant/internal/logging"
	"healthgenie.io/assistant/internal/metrics"
	"healthgenie.io/assistant/internal/session"
	"healthgenie.io/assistant/internal/store"
)

const sessionTokenTTL = 24 * time.Hour

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.AppConfig

	// Setup logging
	if err := logging.InitLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	log := logging.Logger
	if !cfg.EnvFileLoaded {
		log.Info("No .env file found, using process environment")
	}
	log.Debug("Service starting in DEBUG mode")

	ctx := context.Background()

	// Initialize completion service
	completer, closeCompleter, err := newCompleter(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize completion service", zap.Error(err))
	}
	defer closeCompleter()

	// Initialize session storage
	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer backend.Close()

	m := metrics.Default()
	sessions, err := session.NewManager(backend, cfg.SessionCacheSize, m)
	if err != nil {
		log.Fatal("Failed to initialize session manager", zap.Error(err))
	}
	defer sessions.Close()

	tokens, err := auth.NewSessionTokens(cfg.SessionSecret, sessionTokenTTL)
	if err != nil {
		log.Fatal("Failed to initialize session tokens", zap.Error(err))
	}
	if cfg.SessionSecret == "" {
		log.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	// Initialize services
	gateway := core.NewGateway(completer, core.DefaultPrompts(), m)
	healthService := core.NewHealthService(gateway,
		core.WithMaxUploadBytes(cfg.MaxUploadBytes),
		core.WithMetrics(m),
	)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(healthService)
	pageHandler, err := api.NewPageHandler(healthService)
	if err != nil {
		log.Fatal("Failed to parse page templates", zap.Error(err))
	}
	router := api.NewRouter(apiHandler, pageHandler, api.RouterConfig{
		Sessions:     sessions,
		Tokens:       tokens,
		SecureCookie: cfg.SessionCookieSecure,
	})

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPWriteTimeout, // completion calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Info("Starting server", zap.String("addr", serverAddr), zap.String("provider", cfg.LLMProvider), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exiting gracefully")
}

func newCompleter(ctx context.Context, cfg config.Config) (core.Completer, func(), error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return core.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel), func() {}, nil
	default:
		gemini, err := core.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return gemini, gemini.Close, nil
	}
}

func newBackend(cfg config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendSQLite:
		return store.NewSQLiteBackend(cfg.DatabaseURL)
	default:
		return store.NewMemoryBackend(), nil
	}
}
