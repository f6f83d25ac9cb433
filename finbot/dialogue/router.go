package dialogue

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/metrics"
	"github.com/m3rciful/finbot/finbot/conversation"
)

// Postback is a parsed postback selection.
type Postback struct {
	Key     string
	Payload string
}

// ParsePostback splits "key|payload" or "key=payload". Data without a separator is a bare key.
func ParsePostback(data string) Postback {
	data = strings.TrimSpace(data)
	if i := strings.IndexAny(data, "|="); i >= 0 {
		return Postback{Key: strings.TrimSpace(data[:i]), Payload: data[i+1:]}
	}
	return Postback{Key: data}
}

// Router feeds inbound events through the engine while holding the user's
// conversation lock, and returns the replies to render.
type Router struct {
	store  conversation.Store
	engine *Engine
}

// NewRouter wires a Router.
func NewRouter(store conversation.Store, engine *Engine) *Router {
	return &Router{store: store, engine: engine}
}

// HandleText processes a free-text message from userID.
func (r *Router) HandleText(ctx context.Context, userID, text string) []Reply {
	return r.handle(ctx, userID, TextEvent(text))
}

// HandlePostback processes raw postback data from userID.
func (r *Router) HandlePostback(ctx context.Context, userID, data string) []Reply {
	pb := ParsePostback(data)
	return r.HandleSelection(ctx, userID, pb)
}

// HandleSelection processes an already parsed postback.
func (r *Router) HandleSelection(ctx context.Context, userID string, pb Postback) []Reply {
	return r.handle(ctx, userID, PostbackEvent(pb.Key, pb.Payload))
}

// Reset returns userID to idle.
func (r *Router) Reset(ctx context.Context, userID string) error {
	return r.store.Clear(ctx, userID)
}

func (r *Router) handle(ctx context.Context, userID string, ev Event) []Reply {
	start := time.Now()
	var (
		from    conversation.Mode
		replies []Reply
	)
	next, err := r.store.Update(ctx, userID, func(cur conversation.State) conversation.State {
		cur = cur.Normalize()
		from = cur.Mode
		var st conversation.State
		st, replies = r.engine.Step(ctx, cur, ev)
		return st
	})
	if err != nil {
		logger.Error(ctx, "dialogue", "dialogue.store",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return []Reply{PlainText(MsgStoreUnavailable)}
	}

	to := next.Normalize().Mode
	metrics.Transitions.WithLabelValues(string(from), string(to)).Inc()
	if logger.ShouldSampleDebug() || from != to {
		attrs := []slog.Attr{
			slog.String("status", "ok"),
			slog.String("from_mode", string(from)),
			slog.String("to_mode", string(to)),
			slog.Int("replies", len(replies)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		}
		if ev.Kind == EventPostback {
			attrs = append(attrs, slog.String("cb_key", ev.Key))
		} else {
			attrs = append(attrs, slog.String("input", logger.SanitizeLimit(ev.Text, 64)))
		}
		if to == conversation.ModeQuizInProgress {
			attrs = append(attrs, slog.Int("quiz_index", next.QuizIndex), slog.Int("quiz_score", next.QuizScore))
		}
		logger.Debug(ctx, "dialogue", "dialogue.transition", attrs...)
	}
	return replies
}
