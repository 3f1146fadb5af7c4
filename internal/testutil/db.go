// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/grvbrk/vidcatalog/internal/config"
	"github.com/grvbrk/vidcatalog/internal/store"
	"github.com/grvbrk/vidcatalog/migrations"
)

// NewDB opens a migrated sqlite database under t.TempDir and returns it with its path.
func NewDB(t *testing.T) (*sqlx.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "videos.db")
	cfg := config.Config{DBDriver: config.DriverSQLite, SQLitePath: path}

	db, err := store.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetLogger(goose.NopLogger())
	require.NoError(t, store.MigrateFS(db, migrations.FS))
	return db, path
}
