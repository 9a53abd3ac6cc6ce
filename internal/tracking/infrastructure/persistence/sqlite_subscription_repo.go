package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/subslayer/internal/tracking/domain"
)

const sqliteColumns = `id, user_id, service_name, cost, currency, renewal_date, status,
	cancellation_url, website_url, created_at, updated_at`

// SQLiteSubscriptionRepository implements SubscriptionRepository with SQLite.
// Costs are stored as decimal text and dates as YYYY-MM-DD so that text
// ordering matches date ordering.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

// NewSQLiteSubscriptionRepository creates a new repository.
func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

// Insert stores a new subscription.
func (r *SQLiteSubscriptionRepository) Insert(ctx context.Context, sub *domain.Subscription) error {
	now := time.Now().UTC()
	createdAt, updatedAt := sub.CreatedAt, sub.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	query := `
		INSERT INTO subscriptions (` + sqliteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		sub.ID.String(),
		sub.UserID.String(),
		sub.ServiceName,
		sub.Cost.StringFixed(2),
		sub.Currency,
		sub.RenewalDate.Format(domain.DateLayout),
		string(sub.Status),
		nullString(sub.CancellationURL),
		nullString(sub.WebsiteURL),
		createdAt.Format(time.RFC3339),
		updatedAt.Format(time.RFC3339),
	)
	return err
}

// UpdateStatus changes the status of a subscription owned by ownerID.
func (r *SQLiteSubscriptionRepository) UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status domain.Status) error {
	query := `UPDATE subscriptions SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(status),
		time.Now().UTC().Format(time.RFC3339),
		id.String(),
		ownerID.String(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByID returns the owner's subscription or domain.ErrNotFound.
func (r *SQLiteSubscriptionRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + sqliteColumns + ` FROM subscriptions WHERE id = ? AND user_id = ?`

	sub, err := scanSQLite(r.db.QueryRowContext(ctx, query, id.String(), ownerID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ListActive returns the owner's non-cancelled subscriptions, soonest renewal first.
func (r *SQLiteSubscriptionRepository) ListActive(ctx context.Context, ownerID uuid.UUID) ([]*domain.Subscription, error) {
	query := `SELECT ` + sqliteColumns + `
		FROM subscriptions
		WHERE user_id = ? AND status <> 'cancelled'
		ORDER BY renewal_date ASC, service_name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID.String())
	if err != nil {
		return nil, err
	}
	return collectSQLite(rows)
}

// ListRenewingBetween returns active subscriptions of every owner renewing in [from, to].
func (r *SQLiteSubscriptionRepository) ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error) {
	query := `SELECT ` + sqliteColumns + `
		FROM subscriptions
		WHERE status = 'active' AND renewal_date >= ? AND renewal_date <= ?
		ORDER BY user_id, renewal_date ASC, service_name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	if err != nil {
		return nil, err
	}
	return collectSQLite(rows)
}

func collectSQLite(rows *sql.Rows) ([]*domain.Subscription, error) {
	defer rows.Close()

	subs := make([]*domain.Subscription, 0)
	for rows.Next() {
		sub, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (*domain.Subscription, error) {
	var (
		id, userID, cost, renewal, status string
		createdAt, updatedAt              string
		cancelURL, websiteURL             sql.NullString
		sub                               domain.Subscription
	)
	if err := row.Scan(
		&id, &userID, &sub.ServiceName, &cost, &sub.Currency, &renewal, &status,
		&cancelURL, &websiteURL, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if sub.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid subscription id %q: %w", id, err)
	}
	if sub.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	if sub.Cost, err = decimal.NewFromString(cost); err != nil {
		return nil, fmt.Errorf("invalid stored cost %q: %w", cost, err)
	}
	if sub.RenewalDate, err = domain.ParseDate(renewal); err != nil {
		return nil, fmt.Errorf("invalid renewal date %q: %w", renewal, err)
	}
	if sub.Status, err = domain.ParseStatus(status); err != nil {
		return nil, err
	}
	sub.CancellationURL = cancelURL.String
	sub.WebsiteURL = websiteURL.String
	sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sub, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ domain.SubscriptionRepository = (*SQLiteSubscriptionRepository)(nil)
