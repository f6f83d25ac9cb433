package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/finbot/core/logger"
)

const (
	driverName     = "postgres"
	attemptTimeout = 5 * time.Second
	retryInterval  = 2 * time.Second
)

// Connect opens the connection pool, retrying until the server answers a ping
// or cfg.ConnectTimeout passes. Containers often start the bot before Postgres is up.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.connectTimeout())
	defer cancel()

	start := time.Now()
	attrs := []slog.Attr{
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}
	for attempt := 1; ; attempt++ {
		db, err := dial(ctx, cfg.DSN())
		if err == nil {
			db.SetMaxOpenConns(cfg.poolSize())
			db.SetMaxIdleConns(cfg.poolSize())
			logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.connect", append(attrs,
				slog.String("status", "ok"),
				slog.Int("attempts", attempt),
				slog.Int("pool_open", cfg.poolSize()),
				slog.Duration("duration", logger.RoundMS(time.Since(start))),
			)...)
			return db, nil
		}

		logger.LogEvent(ctx, logger.DB, slog.LevelWarn, "db.connect", append(attrs,
			slog.String("status", "retry"),
			slog.Int("attempts", attempt),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)...)
		select {
		case <-ctx.Done():
			logger.LogEvent(ctx, logger.DB, slog.LevelError, "db.connect", append(attrs,
				slog.String("status", "fail"),
				slog.Int("attempts", attempt),
				slog.Duration("duration", logger.RoundMS(time.Since(start))),
			)...)
			return nil, fmt.Errorf("db connect after %d attempts: %w", attempt, err)
		case <-time.After(retryInterval):
		}
	}
}

// dial makes one bounded attempt; sqlx.ConnectContext pings before returning.
func dial(ctx context.Context, dsn string) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()
	return sqlx.ConnectContext(ctx, driverName, dsn)
}
