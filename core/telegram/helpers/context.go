package helpers

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
)

const (
	contextKey = "logger_ctx"
	ridKey     = "rid"
)

// UpdateMeta identifies an update for logging and per-chat ordering.
type UpdateMeta struct {
	UpdateID int
	UserID   int64
	ChatID   int64
	ChatType tele.ChatType
	Kind     string
}

// Meta extracts identifiers from c; missing sender or chat leave zero values.
func Meta(c tele.Context) UpdateMeta {
	upd := c.Update()
	m := UpdateMeta{UpdateID: upd.ID, Kind: UpdateKind(upd)}
	if user := c.Sender(); user != nil {
		m.UserID = user.ID
	}
	if chat := c.Chat(); chat != nil {
		m.ChatID = chat.ID
		m.ChatType = chat.Type
	}
	return m
}

// RID is the request id derived from the update identifiers.
func (m UpdateMeta) RID() string {
	return logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
}

// UpdateKind classifies an update as callback, message, inline_query or other.
// The names match rate_limit.exclude_updates and label the update metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// SenderKey is the conversation key for the user behind c, or "" when there is none.
func SenderKey(c tele.Context) string {
	user := c.Sender()
	if user == nil {
		return ""
	}
	return strconv.FormatInt(user.ID, 10)
}

// NewContext starts the logging context for c and caches it on c.
func NewContext(c tele.Context, m UpdateMeta) context.Context {
	rid := m.RID()
	c.Set(ridKey, rid)
	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(contextKey, ctx)
	return ctx
}

// BuildContext returns the context cached on c, creating it on first use.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(contextKey).(context.Context); ok {
		return ctx
	}
	return NewContext(c, Meta(c))
}

// WithHandler tags the cached context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" || logger.HandlerFrom(ctx) == handler {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(contextKey, ctx)
	return ctx
}
