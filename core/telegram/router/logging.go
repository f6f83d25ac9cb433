package router

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/metrics"
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/core/telegram/middleware"
)

// summary is the handler.handled line written once per routed update.
type summary struct {
	handler string
	start   time.Time
	status  string
	outcome string
	extras  []slog.Attr
}

func newSummary(handler string, extras ...slog.Attr) *summary {
	return &summary{handler: handler, start: time.Now(), extras: extras}
}

// skipped marks an update that reached no handler.
func (s *summary) skipped() *summary {
	s.status, s.outcome = "skip", "ok"
	return s
}

// run calls fn with the handler name in the log context and records the result.
func (s *summary) run(c tele.Context, fn func() error) error {
	tghelpers.WithHandler(c, s.handler)
	err := fn()
	s.log(c, err)
	return err
}

func (s *summary) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.handler)
	status, outcome := s.status, s.outcome
	if status == "" {
		status = resultLabel(err)
	}
	if outcome == "" {
		outcome = resultLabel(err)
	}

	elapsed := time.Since(s.start)
	metrics.HandlerDuration.WithLabelValues(s.handler, status).Observe(elapsed.Seconds())

	msgs, kb := middleware.GetCounters(c)
	attrs := make([]slog.Attr, 0, 9+len(s.extras))
	attrs = append(attrs,
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(elapsed).Milliseconds()),
	)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
			slog.String("cause", s.handler),
		)
	}
	attrs = append(attrs, s.extras...)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

func resultLabel(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// handlerName turns a command or callback key into a metrics-safe label.
func handlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// errorCode labels err for logs: Telegram API codes, context errors, an
// explicit Code() string, or the error's type name.
func errorCode(err error) string {
	var tgErr *tele.Error
	if errors.As(err, &tgErr) && tgErr.Code != 0 {
		return "TG_" + strconv.Itoa(tgErr.Code)
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return "CANCELLED"
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
