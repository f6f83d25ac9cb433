package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "secret", Name: "finbot"}

	assert.True(t, cfg.Enabled())
	assert.Equal(t, "user=bot password=secret host=db port=5432 dbname=finbot sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://bot:secret@db:5432/finbot?sslmode=disable", cfg.URL())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.URL(), "sslmode=require")
}

func TestConfigDisabledWithoutHost(t *testing.T) {
	assert.False(t, Config{Host: "  "}.Enabled())
}

func TestSelectApplied(t *testing.T) {
	files := []string{"000001_catalog.up.sql", "000002_tips.up.sql", "000003_more.up.sql"}
	assert.Equal(t, []string{"000002_tips.up.sql", "000003_more.up.sql"}, selectApplied(files, 1, 3))
	assert.Empty(t, selectApplied(files, 3, 3))
}

func TestConfigPoolDefaults(t *testing.T) {
	assert.Equal(t, defaultPoolSize, Config{}.poolSize())
	assert.Equal(t, 10, Config{MaxConnections: 10}.poolSize())
	assert.Equal(t, defaultConnectTimeout, Config{}.connectTimeout())
	assert.Equal(t, time.Second, Config{ConnectTimeout: time.Second}.connectTimeout())
}

func TestConnectGivesUpWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Connect(ctx, Config{Host: "127.0.0.1", Port: "1", User: "u", Name: "n"})
	assert.ErrorContains(t, err, "after 1 attempts")
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_tips.up.sql", "000001_catalog.up.sql", "000001_catalog.down.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.up.sql"), 0o755))

	assert.Equal(t, []string{"000001_catalog.up.sql", "000002_tips.up.sql"}, listMigrationFiles(dir))
	assert.Nil(t, listMigrationFiles(filepath.Join(dir, "missing")))

	abs, err := resolveMigrationsDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, defaultMigrationsDir, filepath.Base(abs))
}

func TestFilesAttrs(t *testing.T) {
	files := []string{"1.up.sql", "2.up.sql", "3.up.sql", "4.up.sql", "5.up.sql", "6.up.sql", "7.up.sql"}
	attrs := filesAttrs(files)
	require.Len(t, attrs, 3)
	assert.Equal(t, int64(7), attrs[0].Value.Int64())
	assert.True(t, attrs[2].Value.Bool())
	assert.Len(t, filesAttrs(nil), 1)
}
