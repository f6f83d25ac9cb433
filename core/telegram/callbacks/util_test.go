package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		cb      *tele.Callback
		key     string
		payload string
	}{
		{name: "nil", cb: nil},
		{name: "unique set by telebot", cb: &tele.Callback{Unique: "quiz", Data: "B"}, key: "quiz", payload: "B"},
		{name: "raw with prefix", cb: &tele.Callback{Data: "\ffrom_currency|USD美金"}, key: "from_currency", payload: "USD美金"},
		{name: "raw without payload", cb: &tele.Callback{Data: "menu"}, key: "menu"},
		{name: "payload keeps separators", cb: &tele.Callback{Data: "k|a|b"}, key: "k", payload: "a|b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, payload := Parse(tt.cb)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.payload, payload)
		})
	}
}
