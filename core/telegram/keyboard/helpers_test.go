package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsNPerRow(t *testing.T) {
	buttons := []InlineBtn{
		{Text: "a", Unique: "k", Data: "1"},
		{Text: "b", Unique: "k", Data: "2"},
		{Text: "c", Unique: "k", Data: "3"},
	}

	m := InlineButtonsNPerRow(buttons, 2)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Len(t, m.InlineKeyboard[1], 1)
	assert.Equal(t, "c", m.InlineKeyboard[1][0].Text)
	assert.Equal(t, "k", m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "3", m.InlineKeyboard[1][0].Data)

	m = InlineButtonsNPerRow(buttons, 0)
	assert.Len(t, m.InlineKeyboard, 3)
}

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"x", "y"}, []string{"z"})
	assert.True(t, m.ResizeKeyboard)
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Equal(t, "y", m.ReplyKeyboard[0][1].Text)
	assert.Equal(t, "z", m.ReplyKeyboard[1][0].Text)
}

func TestRemoveKeyboard(t *testing.T) {
	assert.True(t, RemoveKeyboard().RemoveKeyboard)
}
