package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmanzanog/trade-journal/internal/application"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/config"
	"github.com/jmanzanog/trade-journal/internal/infrastructure/persistence/memory"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSetupLogger(t *testing.T) {
	originalLogger := slog.Default()
	defer slog.SetDefault(originalLogger)

	logger := setupLogger("debug")

	if logger == nil {
		t.Fatal("setupLogger returned nil logger")
	}

	if slog.Default() != logger {
		t.Error("setupLogger did not set the logger as default")
	}

	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level to be enabled")
	}
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}

	for _, tc := range testCases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInitializeStorage_FileMigratesLegacyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	legacy := `[{"_id":"a1","instrument":"AAPL","entryPrice":"150.50","exitPrice":155.75,"tradeDate":"2023-05-15","profitLoss":5.25,"createdAt":"2023-05-15T10:00:00.000Z"}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("failed to seed journal: %v", err)
	}

	cfg := &config.Config{StorageDriver: config.StorageDriverFile, DataFile: path}

	service, closer, err := initializeStorage(context.Background(), cfg)
	if err != nil {
		t.Fatalf("initializeStorage failed: %v", err)
	}
	defer func() {
		_ = closer.Close()
	}()

	trade, err := service.GetTrade(context.Background(), "a1")
	if err != nil {
		t.Fatalf("expected migrated trade: %v", err)
	}
	if trade.EntryPrice.String() != "150.50" {
		t.Errorf("expected entry price 150.50, got %s", trade.EntryPrice)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read journal: %v", err)
	}
	if strings.Contains(string(data), "entryPrice") {
		t.Errorf("journal still holds legacy field names: %s", data)
	}
}

func TestInitializeStorage_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{StorageDriver: "mysql"}

	service, closer, err := initializeStorage(context.Background(), cfg)

	if err == nil {
		t.Fatal("expected error for unsupported driver, got nil")
	}
	if service != nil || closer != nil {
		t.Errorf("expected nil results, got %v %v", service, closer)
	}

	expectedErrMsg := "unsupported storage driver: mysql"
	if err.Error() != expectedErrMsg {
		t.Errorf("expected error message %q, got %q", expectedErrMsg, err.Error())
	}
}

func TestInitializeStorage_InvalidDSN(t *testing.T) {
	cfg := &config.Config{
		StorageDriver: config.StorageDriverPostgres,
		DBDSN:         "invalid-connection-string",
	}

	service, _, err := initializeStorage(context.Background(), cfg)

	if err == nil {
		t.Fatal("expected error for invalid DSN, got nil")
	}
	if service != nil {
		t.Errorf("expected nil service, got %v", service)
	}
}

func TestBuildServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	service := application.NewTradeService(memory.NewTradeRepository())

	cfg := &config.Config{
		ServerHost: "localhost",
		ServerPort: "8080",
	}

	server := buildServer(cfg, service)

	if server == nil {
		t.Fatal("buildServer returned nil server")
	}

	expectedAddr := "localhost:8080"
	if server.Addr != expectedAddr {
		t.Errorf("expected server address %q, got %q", expectedAddr, server.Addr)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status code 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	w = httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected empty trade list, got %d %s", w.Code, w.Body.String())
	}
}

func TestBuildServer_DifferentPorts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name string
		host string
		port string
		want string
	}{
		{
			name: "default localhost",
			host: "localhost",
			port: "8080",
			want: "localhost:8080",
		},
		{
			name: "all interfaces",
			host: "0.0.0.0",
			port: "3000",
			want: "0.0.0.0:3000",
		},
	}

	service := application.NewTradeService(memory.NewTradeRepository())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{
				ServerHost: tc.host,
				ServerPort: tc.port,
			}

			server := buildServer(cfg, service)

			if server.Addr != tc.want {
				t.Errorf("expected server address %q, got %q", tc.want, server.Addr)
			}
		})
	}
}

func TestApp_Shutdown(t *testing.T) {
	closed := false
	app := &App{
		Server: &http.Server{Addr: "localhost:0", ReadHeaderTimeout: time.Second},
		Storage: closerFunc(func() error {
			closed = true
			return nil
		}),
	}

	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !closed {
		t.Error("expected storage to be closed")
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// TestMain is a special test function that runs before all tests
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// TestFullInitializationFlow tests the complete initialization flow against Postgres
func TestFullInitializationFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	cfg := &config.Config{
		ServerHost:    "localhost",
		ServerPort:    "0",
		StorageDriver: config.StorageDriverPostgres,
		DBDSN:         connStr,
	}

	service, closer, err := initializeStorage(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to initialize storage: %v", err)
	}
	defer func() {
		_ = closer.Close()
	}()

	server := buildServer(cfg, service)

	body := `{"instrument":"AAPL","entryPrice":150.50,"exitPrice":155.75,"tradeDate":"2023-05-15","profitLoss":5.25}`
	req := httptest.NewRequest(http.MethodPost, "/api/trades", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	w = httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"entry_price":150.50`) {
		t.Errorf("list failed: %d %s", w.Code, w.Body.String())
	}
}
