package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/subslayer/internal/shared/infrastructure/migrations"
)

func TestSQLiteRecipientDirectory(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()
	_, err = migrations.RunSQLite(context.Background(), db)
	require.NoError(t, err)

	dir := NewSQLiteRecipientDirectory(db)
	ctx := context.Background()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, dir.Upsert(ctx, alice, "alice@example.com"))
	require.NoError(t, dir.Upsert(ctx, bob, "bob@old.example.com"))
	require.NoError(t, dir.Upsert(ctx, bob, "bob@example.com"))

	got, err := dir.Lookup(ctx, []uuid.UUID{alice, bob, carol})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{alice: "alice@example.com", bob: "bob@example.com"}, got)

	empty, err := dir.Lookup(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRecipientDirectory(t *testing.T) {
	dir := NewMemoryRecipientDirectory()
	id := uuid.New()
	require.NoError(t, dir.Upsert(context.Background(), id, "neo@example.com"))

	got, err := dir.Lookup(context.Background(), []uuid.UUID{id, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{id: "neo@example.com"}, got)
}
