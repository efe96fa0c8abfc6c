package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_notifications.sql":   {Data: []byte("CREATE TABLE n (id TEXT);")},
		"002_approval_history.sql": {Data: []byte("CREATE TABLE h (id TEXT);")},
		"embed.go":                 {Data: []byte("package migrations")},
		"README.md":                {Data: []byte("notes")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Version)
	assert.Equal(t, "approval_history", got[0].Name)
	assert.Equal(t, 10, got[1].Version)
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := LoadMigrations(fsys)
	assert.Error(t, err)
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	logger := zap.NewNop()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "m.db")}, logger)
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"001_promoters.sql": {Data: []byte("CREATE TABLE promoters (id TEXT PRIMARY KEY);")},
	}
	m := NewMigrator(db, logger)
	require.NoError(t, m.Run(fsys))
	require.NoError(t, m.Run(fsys))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{}, zap.NewNop())
	assert.Error(t, err)
}
