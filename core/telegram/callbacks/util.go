package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator joins a callback key and its payload in button data.
const Separator = "|"

// Parse returns the callback key and payload. Telebot already splits
// \f<unique>|<payload> into Unique and Data; raw data is split here otherwise.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ := strings.Cut(raw, Separator)
	return strings.TrimSpace(key), payload
}

// Key returns the callback key of the current update.
func Key(c tele.Context) string {
	k, _ := Parse(c.Callback())
	return k
}

// Payload returns the callback payload of the current update.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}
