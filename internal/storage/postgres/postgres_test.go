package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgresTC "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/m3rciful/promobot/internal/audit"
	"github.com/m3rciful/promobot/internal/catalog"
	"github.com/m3rciful/promobot/internal/media"
)

// schema mirrors the migrations directory; the tests create it directly so
// they do not depend on the working directory.
const schema = `
	CREATE TABLE IF NOT EXISTS catalog_entries (
		code TEXT PRIMARY KEY,
		doc_url TEXT NOT NULL,
		affiliate_url TEXT NOT NULL DEFAULT '',
		added_by BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS media_items (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		added_by BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS admins (
		user_id BIGINT PRIMARY KEY,
		added_by BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		actor_id BIGINT NOT NULL,
		action TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// setupDB starts a throwaway Postgres container and applies the schema.
func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgresTC.Run(ctx,
		"postgres:16-alpine",
		postgresTC.WithDatabase("promobot"),
		postgresTC.WithUsername("promobot"),
		postgresTC.WithPassword("promobot"),
		postgresTC.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	require.NoError(t, err, "connect to postgres")
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, schema)
	require.NoError(t, err, "apply schema")
	return db
}

func TestCatalogStore(t *testing.T) {
	store := NewCatalogStore(setupDB(t))
	ctx := context.Background()

	t.Run("upsert and get", func(t *testing.T) {
		created, err := store.Upsert(ctx, catalog.Entry{
			Code:         "SUMMER25",
			DocURL:       "https://example.com/v1.pdf",
			AffiliateURL: "https://shop.example.com/a",
			AddedBy:      1,
		})
		require.NoError(t, err)
		assert.True(t, created)

		got, err := store.GetByCode(ctx, "SUMMER25")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/v1.pdf", got.DocURL)
		assert.Equal(t, int64(1), got.AddedBy)
		assert.False(t, got.CreatedAt.IsZero())

		created, err = store.Upsert(ctx, catalog.Entry{
			Code:    "SUMMER25",
			DocURL:  "https://example.com/v2.pdf",
			AddedBy: 2,
		})
		require.NoError(t, err)
		assert.False(t, created, "replacing an existing code is not a create")

		replaced, err := store.GetByCode(ctx, "SUMMER25")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/v2.pdf", replaced.DocURL)
		assert.True(t, replaced.CreatedAt.Equal(got.CreatedAt), "replace keeps the original creation time")
		assert.True(t, replaced.UpdatedAt.After(replaced.CreatedAt) || replaced.UpdatedAt.Equal(replaced.CreatedAt))
	})

	t.Run("miss", func(t *testing.T) {
		_, err := store.GetByCode(ctx, "NOSUCH")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})

	t.Run("list window", func(t *testing.T) {
		for _, code := range []string{"LIST-3", "LIST-1", "LIST-2"} {
			_, err := store.Upsert(ctx, catalog.Entry{Code: code, DocURL: "https://example.com/doc.pdf"})
			require.NoError(t, err)
		}

		entries, err := store.List(ctx, 0, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "LIST-1", entries[0].Code)
		assert.Equal(t, "LIST-2", entries[1].Code)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("delete", func(t *testing.T) {
		existed, err := store.Delete(ctx, "SUMMER25")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = store.Delete(ctx, "SUMMER25")
		require.NoError(t, err)
		assert.False(t, existed)
	})
}

func TestMediaStore(t *testing.T) {
	store := NewMediaStore(setupDB(t))
	ctx := context.Background()

	t.Run("random on empty pool", func(t *testing.T) {
		_, err := store.Random(ctx)
		assert.ErrorIs(t, err, media.ErrEmpty)
	})

	t.Run("insert and latest", func(t *testing.T) {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		items := []media.Item{
			{ID: "a", URL: "https://example.com/a", Title: "a", CreatedAt: base},
			{ID: "c", URL: "https://example.com/c", Title: "c", CreatedAt: base.Add(2 * time.Minute)},
			{ID: "b", URL: "https://example.com/b", Title: "b", CreatedAt: base.Add(time.Minute)},
		}
		for _, item := range items {
			require.NoError(t, store.Insert(ctx, item))
		}

		latest, err := store.Latest(ctx, 2)
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, "c", latest[0].ID)
		assert.Equal(t, "b", latest[1].ID)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("random picks a stored item", func(t *testing.T) {
		item, err := store.Random(ctx)
		require.NoError(t, err)
		assert.Contains(t, []string{"a", "b", "c"}, item.ID)
	})

	t.Run("delete", func(t *testing.T) {
		existed, err := store.Delete(ctx, "a")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = store.Delete(ctx, "a")
		require.NoError(t, err)
		assert.False(t, existed)
	})
}

func TestAdminStore(t *testing.T) {
	store := NewAdminStore(setupDB(t))
	ctx := context.Background()

	added, err := store.Add(ctx, 7, 1)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, 7, 99)
	require.NoError(t, err)
	assert.False(t, added, "re-adding an admin is a no-op")

	added, err = store.Add(ctx, 8, 1)
	require.NoError(t, err)
	assert.True(t, added)

	roster, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, int64(7), roster[0].UserID)
	assert.Equal(t, int64(1), roster[0].AddedBy, "conflicting add must not change added_by")
	assert.Equal(t, int64(8), roster[1].UserID)

	existed, err := store.Remove(ctx, 7)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Remove(ctx, 7)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestAuditStore(t *testing.T) {
	store := NewAuditStore(setupDB(t))
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []audit.Entry{
		{ID: "e1", ActorID: 1, Action: audit.ActionCatalogAdd, Subject: "SUMMER25", CreatedAt: base},
		{ID: "e2", ActorID: 1, Action: audit.ActionCatalogDelete, Subject: "SUMMER25", CreatedAt: base.Add(time.Minute)},
		{ID: "e3", ActorID: 2, Action: audit.ActionMediaAdd, Subject: "a", Detail: "url=https://example.com/a", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, store.Insert(ctx, e))
	}

	got, err := store.Recent(ctx, base.Add(30*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e3", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)
	assert.Equal(t, "url=https://example.com/a", got[0].Detail)

	got, err = store.Recent(ctx, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "e3", got[0].ID)
}
