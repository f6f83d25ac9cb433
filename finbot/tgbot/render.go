package tgbot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/core/telegram/keyboard"
	"github.com/m3rciful/finbot/finbot/dialogue"
)

const (
	questionButtonsPerRow = 1
	menuButtonsPerRow     = 3
	replyButtonsPerRow    = 2
)

// Markup builds the keyboard for r. Replies whose choices only echo their label
// get a reply keyboard; anything carrying data becomes an inline keyboard.
func Markup(r dialogue.Reply) *tele.ReplyMarkup {
	if len(r.Choices) == 0 {
		return nil
	}
	if !needsInline(r.Choices) {
		return replyKeyboard(r.Choices)
	}

	buttons := make([]keyboard.InlineBtn, 0, len(r.Choices))
	for _, ch := range r.Choices {
		btn := keyboard.InlineBtn{Text: ch.Label, Unique: ch.Key, Data: ch.Payload}
		if !ch.IsPostback() {
			btn.Unique = dialogue.PostbackSay
			btn.Data = ch.Message()
		}
		buttons = append(buttons, btn)
	}
	perRow := menuButtonsPerRow
	if r.Kind == dialogue.KindQuestion {
		perRow = questionButtonsPerRow
	}
	return keyboard.InlineButtonsNPerRow(buttons, perRow)
}

func needsInline(choices []dialogue.Choice) bool {
	for _, ch := range choices {
		if ch.IsPostback() || ch.Message() != ch.Label {
			return true
		}
	}
	return false
}

func replyKeyboard(choices []dialogue.Choice) *tele.ReplyMarkup {
	var rows [][]string
	for i := 0; i < len(choices); i += replyButtonsPerRow {
		end := min(i+replyButtonsPerRow, len(choices))
		row := make([]string, 0, end-i)
		for _, ch := range choices[i:end] {
			row = append(row, ch.Label)
		}
		rows = append(rows, row)
	}
	return keyboard.ReplyButtons(rows...)
}

// Render sends replies to the current chat in order.
func Render(c tele.Context, replies []dialogue.Reply) error {
	msgs := make([]helpers.Outgoing, 0, len(replies))
	for _, r := range replies {
		if r.Text == "" {
			continue
		}
		msgs = append(msgs, helpers.Outgoing{Text: r.Text, Markup: Markup(r)})
	}
	return helpers.SendBatch(c, msgs)
}
