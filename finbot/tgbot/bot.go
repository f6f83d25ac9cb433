// Package tgbot binds the dialogue router to the Telegram runtime.
package tgbot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/logger"
	tg "github.com/m3rciful/finbot/core/telegram"
	"github.com/m3rciful/finbot/core/telegram/callbacks"
	"github.com/m3rciful/finbot/core/telegram/commands"
	"github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/core/telegram/keyboard"
	"github.com/m3rciful/finbot/finbot/dialogue"
)

// Dialogue is the conversation entry point used by the handlers.
type Dialogue interface {
	HandleText(ctx context.Context, userID, text string) []dialogue.Reply
	HandleSelection(ctx context.Context, userID string, pb dialogue.Postback) []dialogue.Reply
	Reset(ctx context.Context, userID string) error
}

// Options configures the Telegram handlers.
type Options struct {
	// Conversations reports how many users are mid-flow; used by /stats.
	Conversations func() int
	// SendErrors reports failed outbound jobs; used by /stats.
	SendErrors func() uint64
}

// Bot holds the Telegram handlers for the finance assistant.
type Bot struct {
	dlg  Dialogue
	opts Options
}

// New constructs a Bot.
func New(dlg Dialogue, opts Options) *Bot {
	return &Bot{dlg: dlg, opts: opts}
}

// Register adds commands, postback callbacks and the text fallback to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: b.Start, Description: "開始使用"}},
		{"/menu", commands.Command{Handler: b.Start, Description: "主選單", Aliases: []string{"選單"}}},
		{"/cancel", commands.Command{Handler: b.Cancel, Description: "取消目前的操作", Aliases: []string{"取消"}}},
		{"/stats", commands.Command{Handler: b.Stats, Description: "bot statistics", AdminOnly: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}

	for _, key := range []string{
		dialogue.PostbackQuiz,
		dialogue.PostbackFromCurrency,
		dialogue.PostbackToCurrency,
		dialogue.PostbackSay,
	} {
		if err := reg.RegisterCallback(key, b.Postback); err != nil {
			return fmt.Errorf("register callback %s: %w", key, err)
		}
	}
	reg.SetCallbackNotFound(b.Postback)
	reg.SetTextFallback(b.Text)
	return nil
}

// Text feeds a free-text message into the dialogue.
func (b *Bot) Text(c tele.Context) error {
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	ctx := helpers.BuildContext(c)
	return Render(c, b.dlg.HandleText(ctx, uid, c.Text()))
}

// Postback answers the callback query and feeds the selection into the dialogue.
func (b *Bot) Postback(c tele.Context) error {
	uid, ok := userID(c)
	if !ok {
		return helpers.Respond(c, "")
	}
	ctx := helpers.BuildContext(c)
	key, payload := callbacks.Parse(c.Callback())
	if err := helpers.Respond(c, ""); err != nil {
		logger.Warn(ctx, "tg", "callback.respond",
			slog.String("status", "fail"),
			slog.String("cb_key", key),
			slog.String("err", err.Error()),
		)
	}
	replies := b.dlg.HandleSelection(ctx, uid, dialogue.Postback{Key: key, Payload: payload})
	return Render(c, replies)
}

// Start shows the main menu and abandons any flow in progress.
func (b *Bot) Start(c tele.Context) error {
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	ctx := helpers.BuildContext(c)
	if err := b.dlg.Reset(ctx, uid); err != nil {
		return Render(c, []dialogue.Reply{dialogue.PlainText(dialogue.MsgStoreUnavailable)})
	}
	return Render(c, b.dlg.HandleText(ctx, uid, ""))
}

// Cancel returns the user to idle.
func (b *Bot) Cancel(c tele.Context) error {
	uid, ok := userID(c)
	if !ok {
		return nil
	}
	ctx := helpers.BuildContext(c)
	if err := b.dlg.Reset(ctx, uid); err != nil {
		return Render(c, []dialogue.Reply{dialogue.PlainText(dialogue.MsgStoreUnavailable)})
	}
	return helpers.SendWithMarkup(c, msgCancelled, keyboard.RemoveKeyboard())
}

// Media tells the user only text is understood.
func (b *Bot) Media(c tele.Context) error {
	return helpers.SendText(c, msgTextOnly)
}

// Stats reports runtime counters to the admin.
func (b *Bot) Stats(c tele.Context) error {
	conv, sendErr := -1, uint64(0)
	if b.opts.Conversations != nil {
		conv = b.opts.Conversations()
	}
	if b.opts.SendErrors != nil {
		sendErr = b.opts.SendErrors()
	}
	text := fmt.Sprintf("active conversations: %s\nsend errors: %d", countOrNA(conv), sendErr)
	return helpers.SendText(c, text)
}

const (
	msgCancelled = "已取消，輸入任意文字回到主選單。"
	msgTextOnly  = "目前只支援文字訊息。"
)

func countOrNA(n int) string {
	if n < 0 {
		return "n/a"
	}
	return strconv.Itoa(n)
}

func userID(c tele.Context) (string, bool) {
	key := helpers.SenderKey(c)
	return key, key != ""
}
