package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendWithMarkup sends plain text with a keyboard attached. Link previews are disabled.
func SendWithMarkup(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup, DisableWebPagePreview: true})
}

// Respond answers a callback query so the client stops its loading spinner.
// It is a no-op for non-callback updates.
func Respond(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	if text == "" {
		return c.Respond()
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// Outgoing is one message of an ordered batch.
type Outgoing struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// SendBatch sends msgs in order as a single dispatcher job so parallel workers
// cannot reorder them. A retried job resumes after the last delivered message.
func SendBatch(c tele.Context, msgs []Outgoing) error {
	if len(msgs) == 0 {
		return nil
	}
	sent := 0
	return sendAsync(c, "send.batch", "sendMessage", func() error {
		for sent < len(msgs) {
			m := msgs[sent]
			opts := &tele.SendOptions{DisableWebPagePreview: true}
			if m.Markup != nil {
				opts.ReplyMarkup = m.Markup
			}
			if err := c.Send(m.Text, opts); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
}
