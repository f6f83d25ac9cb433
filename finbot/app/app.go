// Package app wires the finance assistant: catalog, conversation store,
// dialogue engine, collaborators and the Telegram runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/finbot/core/bootstrap"
	coreconfig "github.com/m3rciful/finbot/core/config"
	coredatabase "github.com/m3rciful/finbot/core/database"
	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/metrics"
	coretelegram "github.com/m3rciful/finbot/core/telegram"
	"github.com/m3rciful/finbot/core/telegram/router"
	"github.com/m3rciful/finbot/core/telegram/sender"
	"github.com/m3rciful/finbot/finbot/catalog"
	"github.com/m3rciful/finbot/finbot/conversation"
	"github.com/m3rciful/finbot/finbot/dialogue"
	"github.com/m3rciful/finbot/finbot/news"
	"github.com/m3rciful/finbot/finbot/quotes"
	"github.com/m3rciful/finbot/finbot/tgbot"
)

// Options overrides infrastructure hooks, mainly for tests.
type Options struct {
	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// App is a bootstrapped finbot ready to run.
type App struct {
	cfg     *Config
	infra   *bootstrap.Result
	catalog *catalog.Catalog

	store  conversation.Store
	memory *conversation.MemoryStore
	redis  *redis.Client

	router *dialogue.Router
	bot    *tgbot.Bot

	metrics    *metrics.Server
	dispatcher atomic.Pointer[sender.Dispatcher]
	cancel     context.CancelFunc
}

// Bootstrap initialises logging and storage, loads the catalog and builds the dialogue stack.
func Bootstrap(ctx context.Context, cfg *Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	embedded, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("app: embedded catalog: %w", err)
	}

	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Modules: bootstrap.Modules{
			Seeders: []bootstrap.Seeder{
				bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
					return catalog.Seed(ctx, db, embedded)
				}),
			},
		},
		LoggerInit: opts.LoggerInit,
		Connect:    opts.Connect,
		Migrate:    opts.Migrate,
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, infra: infra, catalog: embedded}
	if infra.DB != nil {
		loaded, err := catalog.Load(ctx, infra.DB)
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("app: load catalog: %w", err)
		}
		a.catalog = loaded
	}

	a.buildStore()

	newsSource, err := news.New(cfg.News, nil)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: %w", err)
	}
	engine := dialogue.NewEngine(a.catalog, quotes.New(cfg.Quotes, nil), newsSource)
	a.router = dialogue.NewRouter(a.store, engine)
	a.bot = tgbot.New(a.router, tgbot.Options{
		Conversations: a.conversations,
		SendErrors:    a.sendErrors,
	})

	logger.TWire.Info("app wired",
		slog.String("event", "app.wired"),
		slog.String("state_backend", cfg.State.Backend),
		slog.Bool("db", infra.DB != nil),
		slog.Int("questions", a.catalog.QuestionCount()),
		slog.Int("currencies", len(a.catalog.CurrencyCodes())),
	)
	return a, nil
}

func (a *App) buildStore() {
	switch a.cfg.State.Backend {
	case StateRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.State.Redis.Addr,
			Password: a.cfg.State.Redis.Password,
			DB:       a.cfg.State.Redis.DB,
		})
		a.redis = client
		a.store = conversation.NewRedisStore(client, a.cfg.State.TTL)
	default:
		a.memory = conversation.NewMemoryStore(conversation.WithTTL(a.cfg.State.TTL))
		a.store = a.memory
	}
}

func (a *App) conversations() int {
	if a.memory == nil {
		return -1
	}
	return a.memory.Len()
}

func (a *App) sendErrors() uint64 {
	if d := a.dispatcher.Load(); d != nil {
		return d.ErrorCount()
	}
	return 0
}

// CoreConfig exposes the embedded core configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return &a.cfg.Config
}

// Router returns the dialogue router.
func (a *App) Router() *dialogue.Router {
	return a.router
}

// TelegramRunOptions registers handlers and builds the runtime options.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.bot.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: %w", err)
	}

	cfg := &a.cfg.Config
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: cfg.Telegram.AdminID})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{UnknownMedia: a.bot.Media})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	a.dispatcher.Store(rt.Dispatcher)

	bg, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			logger.STORE.Warn("redis unreachable at startup",
				slog.String("event", "redis.ping"),
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	if a.memory != nil {
		go a.memory.RunSweeper(bg, a.cfg.State.SweepInterval)
	}
	if listen := a.cfg.Metrics.Listen; listen != "" {
		a.metrics = metrics.NewServer(listen, a.cfg.Metrics.Path)
		a.metrics.Start(bg)
	}
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	var errs []error
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close stops background work and releases Redis and database handles.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
		a.redis = nil
	}
	if a.infra != nil {
		if err := a.infra.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
		a.infra = nil
	}
	return errors.Join(errs...)
}
