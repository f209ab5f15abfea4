package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gatelog/internal/client/repositories/metadata"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, tableExists(t, db, "goose_db_version"))
	assert.True(t, tableExists(t, db, "metadata"))

	repo := metadata.NewSQLiteRepository(db)
	require.NoError(t, repo.Set(ctx, "k", []byte("v")))
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := InitDatabase(ctx, path)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, db.Close())

	again, err := InitDatabase(ctx, path)
	require.NoError(t, err)
	defer again.Close()
	assert.True(t, tableExists(t, again, "metadata"))
}
