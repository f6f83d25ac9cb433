package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/finbot/core/logger"
)

const (
	defaultMigrationsDir = "migrations"
	previewFiles         = 6
)

// RunMigrations applies all up migrations from cfg.MigrationsDir (default ./migrations).
// The server must already accept connections; see Connect.
func RunMigrations(cfg Config) error {
	ctx := context.Background()
	dir, err := resolveMigrationsDir(cfg.MigrationsDir)
	if err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate", slog.String("status", "fail"), slog.String("err", err.Error()))
		return err
	}
	files := listMigrationFiles(dir)
	logger.LogEvent(ctx, logger.MIG, slog.LevelDebug, "db.migrate.resolve",
		append([]slog.Attr{slog.String("path", dir)}, filesAttrs(files)...)...)

	m, err := migrate.New("file://"+dir, cfg.URL())
	if err != nil {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate", slog.String("status", "fail"), slog.String("err", err.Error()))
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.LogEvent(ctx, logger.MIG, slog.LevelWarn, "db.migrate.close", slog.Any("err", errors.Join(srcErr, dbErr)))
		}
	}()

	from, dirty, _ := m.Version()
	if dirty {
		return fmt.Errorf("database schema is dirty at version %d; fix it manually and force the version", from)
	}

	start := time.Now()
	upErr := m.Up()
	took := logger.RoundMS(time.Since(start))
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.LogEvent(ctx, logger.MIG, slog.LevelError, "db.migrate",
			slog.String("status", "fail"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", took),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	to, _, _ := m.Version()
	applied := selectApplied(files, uint64(from), uint64(to))
	attrs := append([]slog.Attr{
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Duration("duration", took),
	}, filesAttrs(applied)...)
	logger.LogEvent(ctx, logger.MIG, slog.LevelInfo, "db.migrate", attrs...)
	return nil
}

// filesAttrs summarises a list of migration files for a log line.
func filesAttrs(files []string) []slog.Attr {
	preview, truncated := logger.SummarizeStrings(files, previewFiles)
	attrs := []slog.Attr{slog.Int("files", len(files))}
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if truncated {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	return attrs
}

func resolveMigrationsDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultMigrationsDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return abs, nil
}

// listMigrationFiles returns the sorted *.up.sql names in dir; an unreadable dir yields none.
func listMigrationFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// selectApplied returns the files whose version lies in (from, to].
func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		prefix, _, _ := strings.Cut(f, "_")
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err == nil && v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
