package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

const postgresColumns = `id, user_id, service_name, cost::text, currency, renewal_date, status,
	cancellation_url, website_url, created_at, updated_at`

// PostgresSubscriptionRepository implements SubscriptionRepository with PostgreSQL.
type PostgresSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSubscriptionRepository creates a new repository.
func NewPostgresSubscriptionRepository(pool *pgxpool.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Insert stores a new subscription.
func (r *PostgresSubscriptionRepository) Insert(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, user_id, service_name, cost, currency, renewal_date, status,
			cancellation_url, website_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.ServiceName,
		sub.Cost.StringFixed(2),
		sub.Currency,
		sub.RenewalDate,
		string(sub.Status),
		nullableString(sub.CancellationURL),
		nullableString(sub.WebsiteURL),
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return err
}

// UpdateStatus changes the status of a subscription owned by ownerID.
func (r *PostgresSubscriptionRepository) UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status domain.Status) error {
	query := `
		UPDATE subscriptions SET status = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, id, ownerID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByID returns the owner's subscription or domain.ErrNotFound.
func (r *PostgresSubscriptionRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + postgresColumns + ` FROM subscriptions WHERE id = $1 AND user_id = $2`

	sub, err := scanPostgres(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ListActive returns the owner's non-cancelled subscriptions, soonest renewal first.
func (r *PostgresSubscriptionRepository) ListActive(ctx context.Context, ownerID uuid.UUID) ([]*domain.Subscription, error) {
	query := `SELECT ` + postgresColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status <> 'cancelled'
		ORDER BY renewal_date ASC, service_name ASC
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return collectPostgres(rows)
}

// ListRenewingBetween returns active subscriptions of every owner renewing in [from, to].
func (r *PostgresSubscriptionRepository) ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error) {
	query := `SELECT ` + postgresColumns + `
		FROM subscriptions
		WHERE status = 'active' AND renewal_date BETWEEN $1 AND $2
		ORDER BY user_id, renewal_date ASC, service_name ASC
	`
	rows, err := r.pool.Query(ctx, query, domain.DateOnly(from), domain.DateOnly(to))
	if err != nil {
		return nil, err
	}
	return collectPostgres(rows)
}

func collectPostgres(rows pgx.Rows) ([]*domain.Subscription, error) {
	defer rows.Close()

	subs := make([]*domain.Subscription, 0)
	for rows.Next() {
		sub, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return subs, nil
}

func scanPostgres(row pgx.Row) (*domain.Subscription, error) {
	var (
		sub                   domain.Subscription
		cost, status          string
		cancelURL, websiteURL *string
	)
	if err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.ServiceName,
		&cost,
		&sub.Currency,
		&sub.RenewalDate,
		&status,
		&cancelURL,
		&websiteURL,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(cost)
	if err != nil {
		return nil, fmt.Errorf("invalid stored cost %q: %w", cost, err)
	}
	sub.Cost = amount
	if sub.Status, err = domain.ParseStatus(status); err != nil {
		return nil, err
	}
	sub.RenewalDate = domain.DateOnly(sub.RenewalDate)
	sub.CancellationURL = derefString(cancelURL)
	sub.WebsiteURL = derefString(websiteURL)
	return &sub, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ domain.SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
