// Package server holds the commands that run long-lived SubSlayer processes.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/subslayer/adapter/api"
	"github.com/felixgeelhaar/subslayer/internal/app"
)

var container *app.Container

// SetContainer sets the container the commands run against.
func SetContainer(c *app.Container) {
	container = c
}

// ServeCmd runs the HTTP API.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return errors.New("serve requires a database connection")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := api.NewServer(ServerConfig(container), Handlers(container), container.Logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// MigrateCmd applies pending schema migrations.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return errors.New("migrate requires a database connection")
		}
		return container.Migrate(cmd.Context())
	},
}

// ServerConfig derives the API server configuration from the container's config.
func ServerConfig(c *app.Container) api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Addr = c.Config.HTTPAddr
	if c.Config.HTTPReadTimeout > 0 {
		cfg.ReadTimeout = c.Config.HTTPReadTimeout
	}
	if c.Config.HTTPWriteTimeout > 0 {
		cfg.WriteTimeout = c.Config.HTTPWriteTimeout
	}
	if len(c.Config.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = c.Config.CORSAllowedOrigins
	}
	cfg.JWTSecret = c.Config.AuthJWTSecret
	cfg.CronSecret = c.Config.CronSecret
	cfg.Production = c.Config.IsProduction()
	return cfg
}

// Handlers maps the container onto the API handler set.
func Handlers(c *app.Container) api.Handlers {
	return api.Handlers{
		Parse:          c.ParseEmail,
		Create:         c.CreateSubscription,
		Cancel:         c.CancelSubscription,
		List:           c.ListSubscriptions,
		Spending:       c.SpendingSummary,
		Renewals:       c.RenewalChecker,
		Directory:      c.Recipients,
		Limiter:        c.Limiter,
		Health:         c.Health,
		Metrics:        c.Metrics,
		MetricsHandler: c.Metrics.Handler(),
	}
}
