package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	extraction "github.com/felixgeelhaar/subslayer/internal/extraction/domain"
	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
	"github.com/felixgeelhaar/subslayer/internal/tracking/infrastructure/persistence"
	"github.com/felixgeelhaar/subslayer/pkg/observability"
)

func TestCreateSubscriptionHandler_Handle(t *testing.T) {
	repo := persistence.NewMemorySubscriptionRepository()
	metrics := observability.NewInMemoryMetrics()
	handler := NewCreateSubscriptionHandler(repo, metrics)
	owner := uuid.New()

	cancelURL := "https://www.netflix.com/cancelplan"
	parsed := &extraction.ParsedSubscription{
		ServiceName:     "Netflix",
		Cost:            15.99,
		Currency:        "USD",
		RenewalDate:     "2025-01-15",
		CancellationURL: &cancelURL,
	}

	result, err := handler.Handle(context.Background(), CommandFromParsed(owner, parsed))
	require.NoError(t, err)

	sub := result.Subscription
	assert.Equal(t, owner, sub.UserID)
	assert.Equal(t, "15.99", sub.Cost.String())
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), sub.RenewalDate)
	assert.Equal(t, cancelURL, sub.CancellationURL)
	assert.Equal(t, domain.StatusActive, sub.Status)

	stored, err := repo.FindByID(context.Background(), owner, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", stored.ServiceName)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSubscriptionsCreated, observability.T("currency", "USD")))
}

func TestCreateSubscriptionHandler_Invalid(t *testing.T) {
	handler := NewCreateSubscriptionHandler(persistence.NewMemorySubscriptionRepository(), nil)
	owner := uuid.New()
	valid := CreateSubscriptionCommand{
		UserID:      owner,
		ServiceName: "Spotify",
		Cost:        decimal.NewFromFloat(9.99),
		RenewalDate: "2025-07-01",
	}

	tests := []struct {
		name   string
		mutate func(*CreateSubscriptionCommand)
	}{
		{"blank name", func(c *CreateSubscriptionCommand) { c.ServiceName = " " }},
		{"zero cost", func(c *CreateSubscriptionCommand) { c.Cost = decimal.Zero }},
		{"bad currency", func(c *CreateSubscriptionCommand) { c.Currency = "XYZ" }},
		{"bad date", func(c *CreateSubscriptionCommand) { c.RenewalDate = "July 1st" }},
		{"relative url", func(c *CreateSubscriptionCommand) { c.WebsiteURL = "spotify.com" }},
		{"no owner", func(c *CreateSubscriptionCommand) { c.UserID = uuid.Nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := valid
			tt.mutate(&cmd)
			_, err := handler.Handle(context.Background(), cmd)
			assert.ErrorIs(t, err, domain.ErrInvalidSubscription)
		})
	}

	t.Run("currency defaults to USD", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), valid)
		require.NoError(t, err)
		assert.Equal(t, "USD", result.Subscription.Currency)
	})
}

func TestCancelSubscriptionHandler_Handle(t *testing.T) {
	repo := persistence.NewMemorySubscriptionRepository()
	metrics := observability.NewInMemoryMetrics()
	owner := uuid.New()

	sub, err := domain.NewSubscription(owner, "Spotify Premium", decimal.NewFromFloat(10.99), "USD", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), sub))

	handler := NewCancelSubscriptionHandler(repo, metrics)

	t.Run("foreign owner", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), CancelSubscriptionCommand{UserID: uuid.New(), SubscriptionID: sub.ID})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), CancelSubscriptionCommand{UserID: owner, SubscriptionID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("owner cancels", func(t *testing.T) {
		result, err := handler.Handle(context.Background(), CancelSubscriptionCommand{UserID: owner, SubscriptionID: sub.ID})
		require.NoError(t, err)
		assert.Equal(t, sub.ID, result.SubscriptionID)
		assert.Equal(t, "https://www.spotify.com/account/subscription/", result.CancellationURL)

		stored, err := repo.FindByID(context.Background(), owner, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, stored.Status)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSubscriptionsCancelled))
	})

	t.Run("already cancelled", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), CancelSubscriptionCommand{UserID: owner, SubscriptionID: sub.ID})
		assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	})
}
