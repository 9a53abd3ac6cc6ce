package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/felixgeelhaar/subslayer/internal/app"
	notificationApp "github.com/felixgeelhaar/subslayer/internal/notification/application"
	"github.com/felixgeelhaar/subslayer/pkg/config"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

// runStats tracks the most recent renewal check for the health endpoint.
type runStats struct {
	mu          sync.RWMutex
	Runs        int                        `json:"runs"`
	LastRunAt   *time.Time                 `json:"last_run_at,omitempty"`
	LastResult  *notificationApp.RunResult `json:"last_result,omitempty"`
	LastError   string                     `json:"last_error,omitempty"`
	LastErrorAt *time.Time                 `json:"last_error_at,omitempty"`
}

func (s *runStats) record(at time.Time, result *notificationApp.RunResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Runs++
	s.LastRunAt = &at
	if err != nil {
		s.LastError = err.Error()
		s.LastErrorAt = &at
		return
	}
	s.LastResult = result
}

func (s *runStats) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type view runStats
	return json.Marshal((*view)(s))
}

func main() {
	logger := observability.LoggerFromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if !cfg.ReminderEnabled {
		logger.Info("renewal reminders disabled, worker exiting")
		return
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	stats := &runStats{}

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "ok",
				"stats":  stats,
			})
		})
		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			health := container.Health.GetOverallHealth(checkCtx)
			w.Header().Set("Content-Type", "application/json")
			if health.Status == observability.HealthStatusUnhealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(health)
		})
		mux.Handle("/metrics", container.Metrics.Handler())

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	check := func() {
		startedAt := time.Now()
		result, err := container.RenewalChecker.Run(ctx)
		stats.record(startedAt, result, err)
		if err != nil {
			logger.Error("renewal check failed", "error", err)
			return
		}
		logger.Info("renewal check complete",
			"subscriptions_found", result.SubscriptionsFound,
			"users_notified", result.UsersNotified,
			"emails_sent", result.EmailsSent,
			"failed", result.Failed,
			"skipped", result.Skipped,
			observability.DurationKey, time.Since(startedAt).Milliseconds(),
		)
	}

	logger.Info("starting renewal worker", "interval", cfg.ReminderInterval.String())
	check()

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down worker")
			fmt.Println("Goodbye!")
			return
		case <-ticker.C:
			check()
		}
	}
}
