package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

func setupTrackingTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = migrations.RunSQLite(context.Background(), db)
	require.NoError(t, err)
	return db
}

func newTestSubscription(t *testing.T, owner uuid.UUID, name, cost string, renewal time.Time) *domain.Subscription {
	t.Helper()
	sub, err := domain.NewSubscription(owner, name, decimal.RequireFromString(cost), "USD", renewal)
	require.NoError(t, err)
	return sub
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteSubscriptionRepository_InsertAndFind(t *testing.T) {
	repo := NewSQLiteSubscriptionRepository(setupTrackingTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	sub := newTestSubscription(t, owner, "Netflix", "15.99", day(2025, 1, 15))
	sub.CancellationURL = "https://www.netflix.com/cancelplan"
	require.NoError(t, repo.Insert(ctx, sub))

	got, err := repo.FindByID(ctx, owner, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, "Netflix", got.ServiceName)
	assert.True(t, decimal.RequireFromString("15.99").Equal(got.Cost))
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, day(2025, 1, 15), got.RenewalDate)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, "https://www.netflix.com/cancelplan", got.CancellationURL)
	assert.Empty(t, got.WebsiteURL)

	_, err = repo.FindByID(ctx, uuid.New(), sub.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "foreign owner must not see the row")
}

func TestSQLiteSubscriptionRepository_UpdateStatus(t *testing.T) {
	repo := NewSQLiteSubscriptionRepository(setupTrackingTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	sub := newTestSubscription(t, owner, "Spotify", "10.99", day(2025, 2, 1))
	require.NoError(t, repo.Insert(ctx, sub))

	err := repo.UpdateStatus(ctx, sub.ID, uuid.New(), domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.UpdateStatus(ctx, sub.ID, owner, domain.StatusCancelled))
	got, err := repo.FindByID(ctx, owner, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
}

func TestSQLiteSubscriptionRepository_ListActive(t *testing.T) {
	repo := NewSQLiteSubscriptionRepository(setupTrackingTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	later := newTestSubscription(t, owner, "Figma", "12", day(2025, 3, 1))
	sooner := newTestSubscription(t, owner, "Notion", "8", day(2025, 2, 1))
	sameDay := newTestSubscription(t, owner, "Adobe", "54.99", day(2025, 2, 1))
	cancelled := newTestSubscription(t, owner, "Hulu", "7.99", day(2025, 1, 1))
	foreign := newTestSubscription(t, uuid.New(), "Netflix", "15.99", day(2025, 1, 1))
	for _, s := range []*domain.Subscription{later, sooner, sameDay, cancelled, foreign} {
		require.NoError(t, repo.Insert(ctx, s))
	}
	require.NoError(t, repo.UpdateStatus(ctx, cancelled.ID, owner, domain.StatusCancelled))

	got, err := repo.ListActive(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Adobe", got[0].ServiceName)
	assert.Equal(t, "Notion", got[1].ServiceName)
	assert.Equal(t, "Figma", got[2].ServiceName)
}

func TestSQLiteSubscriptionRepository_ListRenewingBetween(t *testing.T) {
	repo := NewSQLiteSubscriptionRepository(setupTrackingTestDB(t))
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	inWindow := newTestSubscription(t, alice, "Netflix", "15.99", day(2025, 6, 1))
	edge := newTestSubscription(t, bob, "Spotify", "10.99", day(2025, 6, 4))
	outside := newTestSubscription(t, alice, "Figma", "12", day(2025, 6, 5))
	cancelled := newTestSubscription(t, bob, "Hulu", "7.99", day(2025, 6, 2))
	for _, s := range []*domain.Subscription{inWindow, edge, outside, cancelled} {
		require.NoError(t, repo.Insert(ctx, s))
	}
	require.NoError(t, repo.UpdateStatus(ctx, cancelled.ID, bob, domain.StatusCancelled))

	got, err := repo.ListRenewingBetween(ctx, day(2025, 6, 1), day(2025, 6, 4))
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, s := range got {
		names = append(names, s.ServiceName)
	}
	assert.ElementsMatch(t, []string{"Netflix", "Spotify"}, names)
}
