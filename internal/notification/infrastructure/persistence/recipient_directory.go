package persistence

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/subslayer/internal/notification/domain"
)

// PostgresRecipientDirectory reads emails from the users table.
type PostgresRecipientDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresRecipientDirectory creates a directory.
func NewPostgresRecipientDirectory(pool *pgxpool.Pool) *PostgresRecipientDirectory {
	return &PostgresRecipientDirectory{pool: pool}
}

// Lookup returns the emails of the given users.
func (d *PostgresRecipientDirectory) Lookup(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := d.pool.Query(ctx, `SELECT id, email FROM users WHERE id = ANY($1)`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    uuid.UUID
			email string
		)
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		out[id] = email
	}
	return out, rows.Err()
}

// Upsert stores or replaces the user's email.
func (d *PostgresRecipientDirectory) Upsert(ctx context.Context, userID uuid.UUID, email string) error {
	query := `
		INSERT INTO users (id, email, created_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
	`
	_, err := d.pool.Exec(ctx, query, userID, email)
	return err
}

// SQLiteRecipientDirectory reads emails from the users table.
type SQLiteRecipientDirectory struct {
	db *sql.DB
}

// NewSQLiteRecipientDirectory creates a directory.
func NewSQLiteRecipientDirectory(db *sql.DB) *SQLiteRecipientDirectory {
	return &SQLiteRecipientDirectory{db: db}
}

// Lookup returns the emails of the given users.
func (d *SQLiteRecipientDirectory) Lookup(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id.String()
	}
	query := `SELECT id, email FROM users WHERE id IN (?` + strings.Repeat(", ?", len(userIDs)-1) + `)`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rawID, email string
		if err := rows.Scan(&rawID, &email); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			continue
		}
		out[id] = email
	}
	return out, rows.Err()
}

// Upsert stores or replaces the user's email.
func (d *SQLiteRecipientDirectory) Upsert(ctx context.Context, userID uuid.UUID, email string) error {
	query := `
		INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email
	`
	_, err := d.db.ExecContext(ctx, query, userID.String(), email, time.Now().UTC().Format(time.RFC3339))
	return err
}

// MemoryRecipientDirectory keeps emails in memory.
type MemoryRecipientDirectory struct {
	mu     sync.RWMutex
	emails map[uuid.UUID]string
	// Err, when set, is returned by Lookup.
	Err error
}

// NewMemoryRecipientDirectory creates an empty directory.
func NewMemoryRecipientDirectory() *MemoryRecipientDirectory {
	return &MemoryRecipientDirectory{emails: make(map[uuid.UUID]string)}
}

func (d *MemoryRecipientDirectory) Lookup(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[uuid.UUID]string, len(userIDs))
	for _, id := range userIDs {
		if email, ok := d.emails[id]; ok {
			out[id] = email
		}
	}
	return out, nil
}

func (d *MemoryRecipientDirectory) Upsert(_ context.Context, userID uuid.UUID, email string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emails[userID] = email
	return nil
}

var (
	_ domain.RecipientDirectory = (*PostgresRecipientDirectory)(nil)
	_ domain.RecipientDirectory = (*SQLiteRecipientDirectory)(nil)
	_ domain.RecipientDirectory = (*MemoryRecipientDirectory)(nil)
)
