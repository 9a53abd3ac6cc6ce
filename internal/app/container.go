// Package app wires SubSlayer's dependencies from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	extractionCommands "github.com/felixgeelhaar/subslayer/internal/extraction/application/commands"
	extraction "github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/internal/extraction/infrastructure/provider"
	"github.com/felixgeelhaar/subslayer/internal/extraction/services"
	notificationApp "github.com/felixgeelhaar/subslayer/internal/notification/application"
	notification "github.com/felixgeelhaar/subslayer/internal/notification/domain"
	"github.com/felixgeelhaar/subslayer/internal/notification/infrastructure/ledger"
	"github.com/felixgeelhaar/subslayer/internal/notification/infrastructure/notifier"
	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/ratelimit"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/commands"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
	tracking "github.com/felixgeelhaar/subslayer/internal/tracking/domain"
	"github.com/felixgeelhaar/subslayer/pkg/config"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

// Notifier kinds accepted in configuration.
const (
	NotifierBroker = "broker"
	NotifierSMTP   = "smtp"
)

// ExtractionRateWindow is the window ExtractionRateLimit applies to.
const ExtractionRateWindow = time.Minute

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Observability
	Metrics    *observability.PrometheusMetrics
	Health     *observability.HealthRegistry
	DB         database.Connection
	Redis      *redis.Client
	Publisher  eventbus.Publisher
	Limiter    ratelimit.Limiter
	Ledger     notification.Ledger
	Notifier   notification.Notifier
	Provider   extraction.CompletionProvider
	Subs       tracking.SubscriptionRepository
	Recipients notification.RecipientDirectory

	// CurrentUserID is the owner used by the CLI and MCP surfaces.
	CurrentUserID uuid.UUID

	// Handlers
	ParseEmail         *extractionCommands.ParseEmailHandler
	CreateSubscription *commands.CreateSubscriptionHandler
	CancelSubscription *commands.CancelSubscriptionHandler
	ListSubscriptions  *queries.ListSubscriptionsHandler
	SpendingSummary    *queries.SpendingSummaryHandler
	RenewalChecker     *notificationApp.RenewalChecker
}

// NewContainer creates and wires all dependencies. Redis and RabbitMQ are
// optional in development and fall back to in-process implementations.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	if err := c.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initNotifier(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initExtraction(); err != nil {
		c.Close()
		return nil, err
	}

	c.CreateSubscription = commands.NewCreateSubscriptionHandler(c.Subs, c.Metrics)
	c.CancelSubscription = commands.NewCancelSubscriptionHandler(c.Subs, c.Metrics)
	c.ListSubscriptions = queries.NewListSubscriptionsHandler(c.Subs)
	c.SpendingSummary = queries.NewSpendingSummaryHandler(c.Subs)
	c.RenewalChecker = notificationApp.NewRenewalChecker(c.Subs, c.Recipients, c.Ledger, c.Notifier, logger, c.Metrics).
		WithWindowDays(cfg.ReminderWindowDays)

	if err := c.initLocalUser(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	cfg := c.Config
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = conn
	c.Logger.Info("connected to database", "driver", conn.Driver())

	if cfg.DatabaseAutoMigrate {
		if err := c.Migrate(ctx); err != nil {
			c.Close()
			return err
		}
	}

	factory := NewRepositoryFactory(conn)
	if c.Subs, err = factory.SubscriptionRepository(); err != nil {
		c.Close()
		return err
	}
	if c.Recipients, err = factory.RecipientDirectory(); err != nil {
		c.Close()
		return err
	}

	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	return nil
}

// Migrate applies pending schema migrations for the configured driver.
func (c *Container) Migrate(ctx context.Context) error {
	var (
		applied []string
		err     error
	)
	switch c.DB.Driver() {
	case database.DriverSQLite:
		sqliteConn, ok := c.DB.(interface{ DB() *sql.DB })
		if !ok {
			return errors.New("sqlite connection does not expose DB()")
		}
		applied, err = migrations.RunSQLite(ctx, sqliteConn.DB())
	case database.DriverPostgres:
		applied, err = migrations.RunPostgres(ctx, c.Config.DatabaseURL)
	default:
		return fmt.Errorf("unsupported driver: %s", c.DB.Driver())
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		c.Logger.Info("applied migrations", "versions", applied)
	}
	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			c.Logger.Warn("invalid Redis URL, using in-memory rate limits and reminder ledger", "error", err)
		} else {
			client := redis.NewClient(opt)
			if err := client.Ping(ctx).Err(); err != nil {
				_ = client.Close()
				if !cfg.IsDevelopment() {
					return fmt.Errorf("failed to connect to Redis: %w", err)
				}
				c.Logger.Warn("Redis not available, using in-memory rate limits and reminder ledger", "error", err)
			} else {
				c.Redis = client
				c.Logger.Info("connected to Redis")
			}
		}
	}

	if c.Redis != nil {
		client := c.Redis
		c.Limiter = ratelimit.NewRedisLimiter(client, "extraction", cfg.ExtractionRateLimit, ExtractionRateWindow)
		c.Ledger = ledger.NewRedisLedger(client, ledger.DefaultTTL)
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
		return nil
	}

	c.Limiter = ratelimit.NewMemoryLimiter(cfg.ExtractionRateLimit, ExtractionRateWindow)
	c.Ledger = ledger.NewMemoryLedger()
	return nil
}

func (c *Container) initNotifier() error {
	cfg := c.Config
	switch cfg.Notifier {
	case NotifierSMTP:
		if cfg.SMTPHost == "" {
			return errors.New("SMTP_HOST is required when NOTIFIER=smtp")
		}
		c.Notifier = notifier.NewSMTPNotifier(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Sender:   cfg.SMTPSender,
			AppURL:   cfg.AppURL,
		})
		return nil

	case NotifierBroker, "":
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, using noop publisher")
			c.Publisher = eventbus.NewNoopPublisher(c.Logger)
		} else {
			c.Publisher = publisher
			c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Check))
		}
		c.Notifier = notifier.NewBrokerNotifier(c.Publisher, cfg.AppURL, c.Metrics)
		return nil

	default:
		return fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}

func (c *Container) initExtraction() error {
	p, err := provider.New(c.Config, c.Logger, c.Metrics)
	if err != nil {
		return err
	}
	c.Provider = p

	normalizer := services.NewDateNormalizer(time.Now, time.UTC)
	pipeline := services.NewPipeline(p, normalizer, c.Logger, c.Metrics)
	c.ParseEmail = extractionCommands.NewParseEmailHandler(pipeline)
	return nil
}

// initLocalUser resolves the CLI/MCP owner and records its email for reminders.
func (c *Container) initLocalUser(ctx context.Context) error {
	userID, err := uuid.Parse(c.Config.UserID)
	if err != nil {
		return fmt.Errorf("invalid SUBSLAYER_USER_ID: %w", err)
	}
	c.CurrentUserID = userID

	if c.Config.UserEmail == "" {
		return nil
	}
	if err := c.Recipients.Upsert(ctx, userID, c.Config.UserEmail); err != nil {
		return fmt.Errorf("failed to record local user email: %w", err)
	}
	return nil
}

// Close releases all resources.
func (c *Container) Close() {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DB.Driver())
		}
	}
}
