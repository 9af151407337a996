package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmanzanog/trade-journal/internal/application"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/config"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence"
	httpHandler "github.com/jmanzanog/trade-journal/internal/interfaces/http"
	"github.com/joho/godotenv"
)

// setupLogger configures and returns a structured logger with source information
func setupLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLevel(level),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initializeStorage opens the configured repository and normalizes any
// legacy records before the service starts taking requests.
func initializeStorage(ctx context.Context, cfg *config.Config) (*application.TradeService, io.Closer, error) {
	repo, closer, err := persistence.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	service := application.NewTradeService(repo)
	if _, err := service.MigrateLegacy(ctx); err != nil {
		_ = closer.Close()
		return nil, nil, err
	}

	return service, closer, nil
}

// buildServer creates and configures the HTTP server with all routes and handlers
func buildServer(cfg *config.Config, tradeService httpHandler.TradeService) *http.Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := httpHandler.NewHandler(tradeService, cfg.IsProduction())
	router := httpHandler.NewRouter(handler)

	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// App wraps the application components for easier testing
type App struct {
	Server  *http.Server
	Storage io.Closer
}

// Shutdown stops accepting requests, then releases storage.
func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application...")

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.Storage.Close(); err != nil {
		return fmt.Errorf("storage close error: %w", err)
	}

	return nil
}

// run contains the main application logic without os.Exit calls
func run() error {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogger(cfg.LogLevel)
	if envErr != nil {
		slog.Warn("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tradeService, storage, err := initializeStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	app := &App{
		Server:  buildServer(cfg, tradeService),
		Storage: storage,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "host", cfg.ServerHost, "port", cfg.ServerPort, "env", cfg.AppEnv, "storage", cfg.StorageDriver)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		_ = storage.Close()
		return fmt.Errorf("server error: %w", err)
	case <-quit:
		slog.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("Server exited gracefully")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}
