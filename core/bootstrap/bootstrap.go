package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/finbot/core/config"
	coredatabase "github.com/m3rciful/finbot/core/database"
	"github.com/m3rciful/finbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
// Nil hooks fall back to the logger and database packages.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	Modules  Modules

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when no database host is configured.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database handle, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, when a database is configured, connects,
// applies migrations and runs the seeders in order.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.withDefaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	if !opts.Database.Enabled() {
		logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.skip", slog.String("status", "skip"))
		return &Result{}, nil
	}

	db, err := opts.Connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if err := prepare(ctx, db, opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Result{DB: db}, nil
}

func (o *Options) withDefaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// prepare migrates the schema and loads reference data.
func prepare(ctx context.Context, db *sqlx.DB, opts Options) error {
	if err := opts.Migrate(opts.Database); err != nil {
		return fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	for i, seeder := range opts.Modules.Seeders {
		start := time.Now()
		if err := seeder.Seed(ctx, db); err != nil {
			return fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
		logger.LogEvent(ctx, logger.SEED, slog.LevelDebug, "db.seed",
			slog.Int("index", i),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
	return nil
}
