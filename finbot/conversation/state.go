package conversation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode is the dialogue step a user is currently in.
type Mode string

const (
	ModeIdle                 Mode = "idle"
	ModeQuizInProgress       Mode = "quiz_in_progress"
	ModeQuizPractice         Mode = "quiz_practice"
	ModeAwaitingAmount       Mode = "awaiting_amount"
	ModeAwaitingFromCurrency Mode = "awaiting_from_currency"
	ModeAwaitingToCurrency   Mode = "awaiting_to_currency"
	ModeAwaitingStockTicker  Mode = "awaiting_stock_ticker"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeIdle, ModeQuizInProgress, ModeQuizPractice, ModeAwaitingAmount,
		ModeAwaitingFromCurrency, ModeAwaitingToCurrency, ModeAwaitingStockTicker:
		return true
	}
	return false
}

// State is the per-user conversation record. The zero value is an idle conversation.
type State struct {
	Mode          Mode                `json:"mode"`
	QuizScore     int                 `json:"quiz_score,omitempty"`
	QuizIndex     int                 `json:"quiz_index,omitempty"`
	PendingAmount decimal.NullDecimal `json:"pending_amount"`
	PendingFrom   string              `json:"pending_from,omitempty"`
	PendingTo     string              `json:"pending_to,omitempty"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Idle returns a fully cleared idle state.
func Idle() State {
	return State{Mode: ModeIdle}
}

// IsIdle reports whether the conversation is idle. An empty mode counts as idle.
func (s State) IsIdle() bool {
	return s.Mode == ModeIdle || s.Mode == ""
}

// Normalize maps an empty or unknown mode to idle and drops fields that do not
// belong to the current mode.
func (s State) Normalize() State {
	if !s.Mode.Valid() || s.Mode == ModeIdle {
		return State{Mode: ModeIdle, UpdatedAt: s.UpdatedAt}
	}
	switch s.Mode {
	case ModeQuizInProgress, ModeQuizPractice:
		s.PendingAmount = decimal.NullDecimal{}
		s.PendingFrom, s.PendingTo = "", ""
	case ModeAwaitingAmount, ModeAwaitingStockTicker:
		s.QuizScore, s.QuizIndex = 0, 0
		s.PendingAmount = decimal.NullDecimal{}
		s.PendingFrom, s.PendingTo = "", ""
	case ModeAwaitingFromCurrency:
		s.QuizScore, s.QuizIndex = 0, 0
		s.PendingFrom, s.PendingTo = "", ""
	case ModeAwaitingToCurrency:
		s.QuizScore, s.QuizIndex = 0, 0
		s.PendingTo = ""
	}
	return s
}
