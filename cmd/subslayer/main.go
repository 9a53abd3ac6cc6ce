package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/subslayer/adapter/cli"
	"github.com/felixgeelhaar/subslayer/adapter/cli/mcp"
	"github.com/felixgeelhaar/subslayer/adapter/cli/server"
	"github.com/felixgeelhaar/subslayer/internal/app"
	mcpinternal "github.com/felixgeelhaar/subslayer/internal/mcp"
	"github.com/felixgeelhaar/subslayer/pkg/config"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands report the missing database themselves.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(mcpinternal.NewCLIApp(container))
		server.SetContainer(container)
		mcp.SetContainer(container)
	}

	cli.AddCommand(server.ServeCmd)
	cli.AddCommand(server.MigrateCmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}

func newLogger(cfg *config.Config) *slog.Logger {
	logCfg := observability.DefaultLogConfig()
	if cfg.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	logCfg.ServiceVersion = cli.Version
	return observability.NewLogger(logCfg)
}
