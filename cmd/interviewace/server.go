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

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/interviewace/interviewace/internal/api"
	"github.com/interviewace/interviewace/internal/config"
	"github.com/interviewace/interviewace/internal/provider"
	"github.com/interviewace/interviewace/internal/storage"
	"github.com/interviewace/interviewace/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the chat and voice tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// newLogger logs to stderr and, when a log file is configured, to a rotating
// file as well.
func newLogger(cfg config.LogConfig) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, lj)
		closer = lj
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})), closer
}

// buildDeps wires the provider client and the history store. A store that
// cannot be opened disables history instead of failing startup.
func buildDeps(cfg config.Config, logger *slog.Logger) (api.Deps, func(), error) {
	client, err := provider.NewClient(cfg.Provider.APIKey,
		provider.WithBaseURL(cfg.Provider.BaseURL),
		provider.WithTimeouts(cfg.Provider.AttemptTimeout, cfg.Provider.OperationDeadline),
		provider.WithLogger(logger),
	)
	if err != nil {
		return api.Deps{}, nil, fmt.Errorf("creating provider client: %w", err)
	}

	deps := api.Deps{
		Provider:    client,
		AdminToken:  cfg.Server.AdminToken,
		CountryCode: cfg.Phone.DefaultCountryCode,
		Logger:      logger,
	}
	cleanup := func() {}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		logger.Warn("interview history disabled", "data_dir", cfg.Storage.DataDir, "error", err)
		return deps, cleanup, nil
	}
	deps.Store = store
	cleanup = func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing storage", "error", err)
		}
	}
	return deps, cleanup, nil
}

func startTracing(ctx context.Context, endpoint string) func() {
	shutdown, err := telemetry.Init(ctx, endpoint)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Warn("flushing traces", "error", err)
		}
	}
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "interviewace version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser := newLogger(cfg.Log)
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer startTracing(ctx, cfg.Telemetry.OTLPEndpoint)()

	deps, cleanup, err := buildDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Server.AdminToken == "" {
		logger.Warn("no admin token set; diagnostic and history routes accept loopback clients only")
	}
	logger.Info("provider configured", "base_url", deps.Provider.BaseURL(), "api_key", deps.Provider.MaskedAPIKey(),
		"attempt_timeout", cfg.Provider.AttemptTimeout, "operation_deadline", cfg.Provider.OperationDeadline)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("interviewace listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol; logs go to stderr and the log file.
	logger, logCloser := newLogger(cfg.Log)
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer startTracing(ctx, cfg.Telemetry.OTLPEndpoint)()

	deps, cleanup, err := buildDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	stdio := server.NewStdioServer(api.NewMCPServer(deps))
	logger.Info("MCP server started (stdio transport)")
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Provider", "%s", cfg.Provider.BaseURL)
	printStatus("Timeouts", "%s per attempt, %s per operation", cfg.Provider.AttemptTimeout, cfg.Provider.OperationDeadline)
	printStatus("Country code", "+%s", cfg.Phone.DefaultCountryCode)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	if cfg.Telemetry.OTLPEndpoint != "" {
		printStatus("Tracing", "%s", cfg.Telemetry.OTLPEndpoint)
	}
	return nil
}
