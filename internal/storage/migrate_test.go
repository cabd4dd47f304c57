package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsUpDown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	mgr, err := NewMigrationManager(dbPath)
	require.NoError(t, err)
	defer func() { _ = mgr.Close() }()

	require.NoError(t, mgr.Up())
	version, dirty, err := mgr.Version()
	require.NoError(t, err)
	assert.NotZero(t, version, "no migration applied")
	assert.False(t, dirty, "migration left the database dirty")

	// Up is idempotent.
	assert.NoError(t, mgr.Up())

	require.NoError(t, mgr.Down())
}

func TestOpenAutoMigrate(t *testing.T) {
	config := DefaultConfig(filepath.Join(t.TempDir(), "auto.db"))
	config.AutoMigrate = true

	db, err := Open(config)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// The meta_decks table exists after auto-migration.
	var name string
	err = db.Conn().QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name='meta_decks'`).Scan(&name)
	require.NoError(t, err, "meta_decks table missing after AutoMigrate")
	assert.Equal(t, "meta_decks", name)
}
