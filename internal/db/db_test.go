package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenConfiguresDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	database, err := Open(dir)
	require.NoError(t, err)
	defer database.Close()

	var mode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	_, err = os.Stat(filepath.Join(dir, "homevault.db"))
	require.NoError(t, err)
}

func TestOpenRejectsBadDataDir(t *testing.T) {
	// A regular file where the data dir should go makes MkdirAll fail.
	base := t.TempDir()
	occupied := filepath.Join(base, "occupied")
	require.NoError(t, os.WriteFile(occupied, []byte("x"), 0o644))

	_, err := Open(filepath.Join(occupied, "nested"))
	require.Error(t, err)
}
