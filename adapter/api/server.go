// Package api serves the SubSlayer JSON API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	extractionCommands "github.com/felixgeelhaar/subslayer/internal/extraction/application/commands"
	notificationApp "github.com/felixgeelhaar/subslayer/internal/notification/application"
	notification "github.com/felixgeelhaar/subslayer/internal/notification/domain"
	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/ratelimit"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/commands"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	JWTSecret          string
	CronSecret         string
	Production         bool
	CORSAllowedOrigins []string
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:               "0.0.0.0:8080",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       45 * time.Second,
		IdleTimeout:        60 * time.Second,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
}

// Handlers are the application handlers the API dispatches to. Directory,
// Limiter, Health and MetricsHandler are optional.
type Handlers struct {
	Parse    *extractionCommands.ParseEmailHandler
	Create   *commands.CreateSubscriptionHandler
	Cancel   *commands.CancelSubscriptionHandler
	List     *queries.ListSubscriptionsHandler
	Spending *queries.SpendingSummaryHandler
	Renewals *notificationApp.RenewalChecker

	Directory      notification.RecipientDirectory
	Limiter        ratelimit.Limiter
	Health         *observability.HealthRegistry
	Metrics        observability.Metrics
	MetricsHandler http.Handler
}

// Server is the HTTP API server.
type Server struct {
	cfg      ServerConfig
	router   chi.Router
	server   *http.Server
	logger   *slog.Logger
	handlers Handlers
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, handlers Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if handlers.Metrics == nil {
		handlers.Metrics = observability.NoopMetrics{}
	}
	if handlers.Limiter == nil {
		handlers.Limiter = ratelimit.Unlimited{}
	}
	if handlers.Health == nil {
		handlers.Health = observability.NewHealthRegistry()
	}

	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		handlers: handlers,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(s.recoverer)
	r.Use(correlationID)
	r.Use(s.requestLogger)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", observability.CorrelationIDHeader},
		ExposedHeaders:   []string{observability.CorrelationIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.handlers.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.handlers.MetricsHandler)
	}

	r.With(s.cronAuth).Get("/api/cron/check-renewals", s.handleCheckRenewals)

	r.Group(func(pr chi.Router) {
		pr.Use(s.jwtAuth)
		pr.With(s.rateLimit("parse")).Post("/api/parse-subscription", s.handleParse)
		pr.Get("/api/subscriptions", s.handleList)
		pr.Post("/api/subscriptions", s.handleCreate)
		pr.Get("/api/subscriptions/spending", s.handleSpending)
		pr.Post("/api/cancel-subscription", s.handleCancel)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.handlers.Health.GetOverallHealth(r.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}
