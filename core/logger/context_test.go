package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextMetaAccumulates(t *testing.T) {
	ctx := WithRID(context.Background(), "1:2:3")
	ctx = WithUpdateMeta(ctx, 1, 3, 2)
	ctx = WithHandler(ctx, "text")

	assert.Equal(t, "1:2:3", RIDFrom(ctx))
	assert.Equal(t, 1, UpdateIDFrom(ctx))
	assert.EqualValues(t, 3, UserIDFrom(ctx))
	assert.EqualValues(t, 2, ChatIDFrom(ctx))
	assert.Equal(t, "text", HandlerFrom(ctx))

	assert.Equal(t, "text", HandlerFrom(WithHandler(ctx, "")))
	assert.Empty(t, RIDFrom(context.Background()))
}

func TestFromContext(t *testing.T) {
	assert.Same(t, L, FromContext(context.Background()))
	l := slog.Default()
	assert.Same(t, l, FromContext(WithLogger(context.Background(), l)))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "a\tb\nc", Sanitize("a\tb\nc\x00\u200b"))
	assert.Equal(t, "理財", SanitizeLimit("理財測驗", 2))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "a.b.z", CompactRID(" 10:11:35 "))
	assert.Equal(t, "rid-123", CompactRID("rid-123"))
	assert.Equal(t, "1:x:3", CompactRID("1:x:3"))
	assert.Equal(t, "", CompactRID(""))
}
