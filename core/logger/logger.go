package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/finbot/core/buildinfo"
	coreconfig "github.com/m3rciful/finbot/core/config"
)

const (
	defaultDebugNum = 1
	defaultDebugDen = 50
)

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutDown   bool

	sink    *asyncWriter
	closers []io.Closer

	levelVar slog.LevelVar

	debugSampler  = newRatioSampler(defaultDebugNum, defaultDebugDen)
	traceOverride bool

	// L is the base logger; prefer the context-first helpers (Debug, Info, ...) in new code.
	L *slog.Logger

	// DB logs database connection events.
	DB *slog.Logger
	// TG logs Telegram transport events.
	TG *slog.Logger
	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
	// SEED logs catalog seeding.
	SEED *slog.Logger
	// DLG logs dialogue engine transitions.
	DLG *slog.Logger
	// STORE logs conversation store maintenance.
	STORE *slog.Logger
)

func init() {
	// Packages log through the component loggers before InitLogger runs (tests, early wiring).
	// Route those lines to stderr with the default text handler so they are never nil.
	setBase(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &levelVar})))
}

// InitLogger configures the global structured logger. Later calls are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		set := resolveSettings(cfg, os.Getenv)
		levelVar.Set(set.level)
		debugSampler.Set(set.sampleNum, set.sampleDen)
		traceOverride = set.trace

		outputs, files := buildOutputs(cfg)
		closers = files
		sink = newAsyncWriter(outputs, 64*1024)

		base := slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   sink,
			format:   set.format,
			keyOrder: set.keyOrder,
		}))
		slog.SetDefault(base)
		setBase(base)
		logStartup(cfg, set.profile)
	})
	return nil
}

func setBase(base *slog.Logger) {
	L = base
	DB = base.With("component", "db")
	TG = base.With("component", "tg")
	MIG = base.With("component", "db.migrate")
	TWire = base.With("component", "tg.wire")
	SEED = base.With("component", "db.seed")
	DLG = base.With("component", "dialogue")
	STORE = base.With("component", "conversation")
}

func logStartup(cfg *coreconfig.Config, profile string) {
	attrs := []slog.Attr{
		slog.String("component", "app"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", profile),
	}
	if cfg != nil {
		attrs = append(attrs, slog.String("mode", cfg.Telegram.RunMode))
	}
	LogEvent(context.Background(), L, slog.LevelInfo, "startup", attrs...)
}

// Shutdown flushes buffered log output and closes opened sinks.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutDown {
		return nil
	}
	shutDown = true

	var errs []error
	if sink != nil {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// settings is the logging configuration after defaults are applied.
type settings struct {
	level     slog.Level
	format    logFormat
	keyOrder  []string
	profile   string
	sampleNum int
	sampleDen int
	trace     bool
}

// resolveSettings reads cfg.Logging; TRACE or LOG_TRACE in the environment disables debug sampling.
func resolveSettings(cfg *coreconfig.Config, getenv func(string) string) settings {
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}
	set := settings{
		level:    slog.LevelInfo,
		format:   formatJSON,
		keyOrder: append([]string(nil), defaultKeyOrder...),
		profile:  strings.ToLower(strings.TrimSpace(lc.Profile)),
		trace:    isTruthy(getenv("TRACE")) || isTruthy(getenv("LOG_TRACE")),
	}
	if set.profile == "" && cfg != nil {
		set.profile = "prod"
	}

	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		set.level = slog.LevelDebug
	case "warn", "warning":
		set.level = slog.LevelWarn
	case "error":
		set.level = slog.LevelError
	}

	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		set.format = formatKV
	case "json":
	default:
		if set.profile == "debug" || set.profile == "dev" {
			set.format = formatKV
		}
	}

	if raw := strings.TrimSpace(lc.KeysOrder); raw != "" && raw != "default" {
		var order []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				order = append(order, p)
			}
		}
		if len(order) > 0 {
			set.keyOrder = order
		}
	}

	set.sampleNum, set.sampleDen = parseDebugSample(lc.DebugSample)
	return set
}

// buildOutputs always writes to stdout and, when configured, appends to a log file.
// A file that cannot be opened is reported and skipped rather than failing startup.
func buildOutputs(cfg *coreconfig.Config) ([]io.Writer, []io.Closer) {
	writers := []io.Writer{os.Stdout}
	if cfg == nil {
		return writers, nil
	}
	dir := strings.TrimSpace(cfg.Logging.Dir)
	file := strings.TrimSpace(cfg.Logging.BotFile)
	if dir == "" || file == "" {
		return writers, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: failed to create log dir %s: %v", dir, err)
		return writers, nil
	}
	path := filepath.Join(dir, file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: failed to open log file %s: %v", path, err)
		return writers, nil
	}
	return append(writers, f), []io.Closer{f}
}

// Background returns context.Background(); kept so call sites read uniformly.
func Background() context.Context {
	return context.Background()
}

// LogEvent logs attrs with the event attribute placed first.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Component constructs a logger scoped to the provided component attribute.
func Component(name string) *slog.Logger {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return L
	}
	return L.With("component", trimmed)
}

// Event logs with component scope resolved automatically.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), level, event, attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

func parseDebugSample(raw string) (int, int) {
	if strings.TrimSpace(raw) == "" {
		return defaultDebugNum, defaultDebugDen
	}
	num, den := parseRatioSpec(raw)
	switch {
	case num == 0 && den == 0:
		return 0, 0
	case num <= 0 || den <= 0:
		return defaultDebugNum, defaultDebugDen
	}
	return num, den
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether debug-level details should be logged for high-volume events.
func ShouldSampleDebug() bool {
	if traceOverride {
		return true
	}
	return debugSampler.Allow()
}
