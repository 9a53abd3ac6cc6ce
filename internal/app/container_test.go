package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	extractionCommands "github.com/felixgeelhaar/subslayer/internal/extraction/application/commands"
	extraction "github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/commands"
	"github.com/felixgeelhaar/subslayer/internal/tracking/application/queries"
	"github.com/felixgeelhaar/subslayer/pkg/config"
)

const localUser = "00000000-0000-0000-0000-000000000001"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:              "development",
		UserID:              localUser,
		UserEmail:           "me@example.com",
		DatabaseDriver:      "sqlite",
		SQLitePath:          filepath.Join(t.TempDir(), "subslayer.db"),
		DatabaseAutoMigrate: true,
		ExtractionProvider:  "groq",
		ExtractionRateLimit: 5,
		ReminderWindowDays:  3,
		Notifier:            NotifierSMTP,
		SMTPHost:            "localhost",
		SMTPPort:            2525,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewContainer_LocalSQLite(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(ctx, testConfig(t), testLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, database.DriverSQLite, c.DB.Driver())
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Publisher)
	assert.Equal(t, []string{"database"}, c.Health.Names())
	assert.Equal(t, uuid.MustParse(localUser), c.CurrentUserID)

	emails, err := c.Recipients.Lookup(ctx, []uuid.UUID{c.CurrentUserID})
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", emails[c.CurrentUserID])

	_, err = c.CreateSubscription.Handle(ctx, commands.CreateSubscriptionCommand{
		UserID:      c.CurrentUserID,
		ServiceName: "Netflix",
		Cost:        decimal.RequireFromString("15.99"),
		RenewalDate: "2030-01-15",
	})
	require.NoError(t, err)

	subs, err := c.ListSubscriptions.Handle(ctx, queries.ListSubscriptionsQuery{UserID: c.CurrentUserID})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "USD", subs[0].Currency)

	decision, err := c.Limiter.Allow(ctx, "parse:"+c.CurrentUserID.String())
	require.NoError(t, err)
	assert.Equal(t, 4, decision.Remaining)
}

func TestNewContainer_UnconfiguredProvider(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t), testLogger())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.ParseEmail.Handle(context.Background(), extractionCommands.ParseEmailCommand{EmailText: "receipt"})
	assert.ErrorIs(t, err, extraction.ErrConfigurationMissing)
}

func TestNewContainer_MigrateIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	first, err := NewContainer(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	first.Close()

	second, err := NewContainer(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer second.Close()
	assert.NoError(t, second.Migrate(context.Background()))
}

func TestNewContainer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown notifier", func(c *config.Config) { c.Notifier = "pigeon" }, "unknown notifier"},
		{"smtp without host", func(c *config.Config) { c.SMTPHost = "" }, "SMTP_HOST"},
		{"invalid user id", func(c *config.Config) { c.UserID = "me" }, "SUBSLAYER_USER_ID"},
		{"unknown provider", func(c *config.Config) { c.ExtractionProvider = "nope" }, "nope"},
		{"unsupported driver", func(c *config.Config) { c.DatabaseDriver = "oracle" }, "unsupported database driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			_, err := NewContainer(context.Background(), cfg, testLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := NewContainer(context.Background(), nil, testLogger())
	assert.Error(t, err)
}
