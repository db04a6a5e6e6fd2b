// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesPragmas(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "a.db"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "m.db"), DefaultConfig())
	require.NoError(t, err)
	defer db.Close()

	schema := `CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY);`
	require.NoError(t, Migrate(ctx, db, 1, schema))
	require.NoError(t, Migrate(ctx, db, 1, `THIS IS NOT SQL`), "already at version, schema not applied")

	var v int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	assert.Equal(t, 1, v)

	assert.Error(t, Migrate(ctx, db, 2, `THIS IS NOT SQL`))
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	assert.Equal(t, 1, v, "failed migration is rolled back")
}

func TestVerifyIntegrity_Healthy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	db, err := Open(path, DefaultConfig())
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, data TEXT)`)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, err = db.Exec(`INSERT INTO t (data) VALUES ('row')`)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	for _, mode := range []string{"quick", "full"} {
		issues, err := VerifyIntegrity(path, mode)
		require.NoError(t, err)
		assert.Nil(t, issues, mode)
	}
}
