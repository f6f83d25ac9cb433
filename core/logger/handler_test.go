package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderLine logs one event through a fresh handler and returns the trimmed output line.
func renderLine(t *testing.T, ctx context.Context, format logFormat, level slog.Level, component string, emit func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:  level,
		writer: aw,
		format: format,
	})
	emit(slog.New(handler).With("component", component))
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	return line
}

func assertOrdered(t *testing.T, line string, parts ...string) {
	t.Helper()
	pos := -1
	for _, p := range parts {
		idx := strings.Index(line, p)
		require.GreaterOrEqualf(t, idx, 0, "%s not found in %s", p, line)
		require.Greaterf(t, idx, pos, "%s out of order in %s", p, line)
		pos = idx
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(Background(), "rid-123"), 42, 7, 9)
	line := renderLine(t, ctx, formatKV, slog.LevelInfo, "app", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "test.event",
			slog.String("status", "ok"),
			slog.String("cause", "unit"),
		)
	})

	tokens := strings.Split(line, " ")
	require.GreaterOrEqual(t, len(tokens), 6, line)
	for i, prefix := range []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"} {
		assert.Truef(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(Background(), "rid-json"), 11, 22, 33)
	line := renderLine(t, ctx, formatJSON, slog.LevelInfo, "service.test", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelError, "service.failed",
			slog.String("status", "fail"),
			slog.String("err", "boom"),
			slog.String("err_code", "TEST_FAIL"),
		)
	})

	require.True(t, strings.HasPrefix(line, "{"), line)
	assertOrdered(t, line, `{"ts":`, `"level":"ERROR"`, `"component":"service.test"`, `"event":"service.failed"`, `"status":"fail"`, `"rid":"rid-json"`)
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := "123:456:789"
	ctx := WithRID(Background(), rawRID)
	emit := func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "rid.test", slog.String("status", "ok"))
	}

	kv := renderLine(t, ctx, formatKV, slog.LevelInfo, "app", emit)
	assert.Contains(t, kv, "rid="+CompactRID(rawRID))
	assert.NotContains(t, kv, "rid_full=")
	assert.NotContains(t, kv, "ts_unix_nano=")

	js := renderLine(t, ctx, formatJSON, slog.LevelInfo, "app", emit)
	assert.Contains(t, js, `"rid":"`+CompactRID(rawRID)+`"`)
	assert.Contains(t, js, `"rid_full":"`+rawRID+`"`)
	assert.Contains(t, js, `"ts_unix_nano"`)
}

func TestStructuredHandlerDurationAndContext(t *testing.T) {
	ctx := WithHandler(WithUpdateMeta(Background(), 5, 1001, 2002), "text")
	line := renderLine(t, ctx, formatKV, slog.LevelDebug, "dialogue", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelDebug, "dialogue.transition",
			slog.String("from_mode", "awaiting_amount"),
			slog.String("to_mode", "awaiting_from_currency"),
			slog.Duration("duration", 1500*time.Microsecond),
			slog.String("outcome", "bogus"),
		)
	})

	for _, want := range []string{"user_id=1001", "chat_id=2002", "update_id=5", "handler=text", "duration_ms=2", "from_mode=awaiting_amount"} {
		assert.Contains(t, line, want)
	}
	assert.NotContains(t, line, "outcome=")
	assertOrdered(t, line, "from_mode=", "to_mode=")
}

func TestStructuredHandlerRedactsSecrets(t *testing.T) {
	ctx := Background()
	line := renderLine(t, ctx, formatKV, slog.LevelInfo, "redis", func(log *slog.Logger) {
		LogEvent(ctx, log, slog.LevelInfo, "redis.connect",
			slog.String("password", "hunter2"),
			slog.Group("webhook", slog.String("secret_token", "abc")),
		)
	})

	assert.NotContains(t, line, "hunter2")
	assert.NotContains(t, line, "abc")
	assert.Contains(t, line, "password="+redacted)
	assert.Contains(t, line, "webhook.secret_token="+redacted)
}

func TestStructuredHandlerQuotesAndGroups(t *testing.T) {
	ctx := Background()
	line := renderLine(t, ctx, formatKV, slog.LevelInfo, "quotes", func(log *slog.Logger) {
		log.WithGroup("quote").LogAttrs(ctx, slog.LevelInfo, "quote.fetched",
			slog.String("name", "Apple Inc."),
			slog.String("empty", ""),
		)
	})

	assert.Contains(t, line, `quote.name="Apple Inc."`)
	assert.Contains(t, line, "event=quote.fetched")
	assert.NotContains(t, line, "quote.empty")
}

func TestStructuredHandlerLevelFilter(t *testing.T) {
	h := newStructuredHandler(handlerConfig{level: slog.LevelWarn})
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
	assert.Error(t, h.Handle(context.Background(), slog.Record{}))
}
