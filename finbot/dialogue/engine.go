package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/finbot/core/metrics"
	"github.com/m3rciful/finbot/finbot/catalog"
	"github.com/m3rciful/finbot/finbot/conversation"
	"github.com/m3rciful/finbot/finbot/quotes"
)

// Content is the read-only catalog the engine consults.
type Content interface {
	QuestionAt(i int) (catalog.Question, bool)
	QuestionCount() int
	ExchangeRate(code string) (decimal.Decimal, bool)
	CurrencyCodes() []string
	RandomTip() (catalog.Tip, bool)
}

// QuoteLookup resolves a ticker to a company summary.
type QuoteLookup interface {
	Lookup(ctx context.Context, ticker string) (quotes.Summary, error)
}

// NewsSource returns up to five article links.
type NewsSource interface {
	FetchTopLinks(ctx context.Context) ([]string, error)
}

var errNoCollaborator = errors.New("service not configured")

// EventKind distinguishes free text from postback selections.
type EventKind int

const (
	EventText EventKind = iota
	EventPostback
)

// Event is one inbound user action.
type Event struct {
	Kind    EventKind
	Text    string
	Key     string
	Payload string
}

// TextEvent wraps a free-text message.
func TextEvent(text string) Event {
	return Event{Kind: EventText, Text: text}
}

// PostbackEvent wraps a postback selection.
func PostbackEvent(key, payload string) Event {
	return Event{Kind: EventPostback, Key: key, Payload: payload}
}

// Engine is the conversation state machine. It holds no per-user data and is
// safe for concurrent use; callers serialize steps per user.
type Engine struct {
	content Content
	quotes  QuoteLookup
	news    NewsSource
}

// NewEngine wires the engine to its catalog and collaborators. quotes and news may be nil.
func NewEngine(content Content, quotes QuoteLookup, news NewsSource) *Engine {
	return &Engine{content: content, quotes: quotes, news: news}
}

// Step applies ev to st and returns the next state with the replies to send.
func (e *Engine) Step(ctx context.Context, st conversation.State, ev Event) (conversation.State, []Reply) {
	st = st.Normalize()
	if ev.Kind == EventPostback {
		return e.postback(ctx, st, ev.Key, ev.Payload)
	}

	text := strings.TrimSpace(ev.Text)
	if next, replies, ok := e.keyword(ctx, st, text); ok {
		return next, replies
	}

	switch st.Mode {
	case conversation.ModeQuizInProgress:
		return e.answerQuiz(st, text)
	case conversation.ModeQuizPractice:
		return e.answerPractice(st, text)
	case conversation.ModeAwaitingAmount:
		return e.acceptAmount(st, text)
	case conversation.ModeAwaitingFromCurrency:
		return e.acceptFrom(st, text)
	case conversation.ModeAwaitingToCurrency:
		return e.acceptTo(st, text)
	case conversation.ModeAwaitingStockTicker:
		return e.acceptTicker(ctx, st, text)
	}
	return st, []Reply{mainMenu()}
}

// keyword handles menu keywords, which restart their flow from any mode.
func (e *Engine) keyword(ctx context.Context, st conversation.State, text string) (conversation.State, []Reply, bool) {
	switch text {
	case KeywordQuiz:
		next := conversation.State{Mode: conversation.ModeQuizInProgress}
		return next, []Reply{e.questionPrompt(0)}, true
	case KeywordConvert:
		return conversation.State{Mode: conversation.ModeAwaitingAmount}, []Reply{PlainText(msgAmountPrompt)}, true
	case KeywordStockMenu:
		return conversation.State{Mode: conversation.ModeAwaitingStockTicker}, []Reply{stockMenu()}, true
	case KeywordStockInput:
		return conversation.State{Mode: conversation.ModeAwaitingStockTicker}, []Reply{PlainText(msgStockInput)}, true
	case KeywordNews:
		return st, []Reply{e.fetchNews(ctx)}, true
	case KeywordTip:
		return st, []Reply{e.randomTip()}, true
	case KeywordRates:
		return st, []Reply{e.rateTable()}, true
	}
	if idx, ok := practiceIndex(text); ok && idx < e.content.QuestionCount() {
		next := conversation.State{Mode: conversation.ModeQuizPractice, QuizIndex: idx}
		return next, []Reply{e.questionPrompt(idx)}, true
	}
	return st, nil, false
}

func (e *Engine) postback(ctx context.Context, st conversation.State, key, payload string) (conversation.State, []Reply) {
	switch key {
	case PostbackQuiz:
		switch st.Mode {
		case conversation.ModeQuizInProgress:
			return e.answerQuiz(st, payload)
		case conversation.ModeQuizPractice:
			return e.answerPractice(st, payload)
		}
		return st, []Reply{PlainText(msgQuizNotStarted)}
	case PostbackFromCurrency:
		if st.Mode == conversation.ModeAwaitingFromCurrency {
			return e.acceptFrom(st, payload)
		}
	case PostbackToCurrency:
		if st.Mode == conversation.ModeAwaitingToCurrency {
			return e.acceptTo(st, payload)
		}
	case PostbackSay:
		return e.Step(ctx, st, TextEvent(payload))
	}
	return st, []Reply{mainMenu()}
}

func (e *Engine) questionPrompt(i int) Reply {
	q, ok := e.content.QuestionAt(i)
	if !ok {
		return mainMenu()
	}
	choices := make([]Choice, 0, len(q.Options))
	for _, opt := range q.Options {
		choices = append(choices, Choice{Label: opt, Key: PostbackQuiz, Payload: answerLabel(opt)})
	}
	return QuestionPrompt(fmt.Sprintf("%d. %s", i+1, q.Prompt), choices)
}

// answerLabel is the first character of an option label.
func answerLabel(label string) string {
	for _, r := range strings.TrimSpace(label) {
		return string(r)
	}
	return ""
}

func (e *Engine) answerQuiz(st conversation.State, label string) (conversation.State, []Reply) {
	q, ok := e.content.QuestionAt(st.QuizIndex)
	if !ok {
		return conversation.Idle(), []Reply{mainMenu()}
	}

	feedback := msgCorrect
	if answerLabel(label) == q.Answer {
		st.QuizScore++
	} else {
		feedback = wrongAnswer(q.Answer, q.Explanation)
	}
	st.QuizIndex++

	if st.QuizIndex < e.content.QuestionCount() {
		return st, []Reply{PlainText(feedback), e.questionPrompt(st.QuizIndex)}
	}
	metrics.QuizCompleted.Observe(float64(st.QuizScore))
	return conversation.Idle(), []Reply{PlainText(feedback + "\n" + quizFinished(st.QuizScore))}
}

func (e *Engine) answerPractice(st conversation.State, label string) (conversation.State, []Reply) {
	q, ok := e.content.QuestionAt(st.QuizIndex)
	if !ok {
		return conversation.Idle(), []Reply{mainMenu()}
	}
	if answerLabel(label) == q.Answer {
		return conversation.Idle(), []Reply{PlainText(msgCorrect)}
	}
	return conversation.Idle(), []Reply{PlainText(wrongAnswer(q.Answer, q.Explanation))}
}

func (e *Engine) acceptAmount(st conversation.State, text string) (conversation.State, []Reply) {
	amount, ok := ParseAmount(text)
	if !ok {
		return st, []Reply{PlainText(msgAmountRetry)}
	}
	next := conversation.State{
		Mode:          conversation.ModeAwaitingFromCurrency,
		PendingAmount: decimal.NewNullDecimal(amount),
	}
	return next, []Reply{e.currencyMenu(msgChooseFrom, PostbackFromCurrency)}
}

func (e *Engine) currencyMenu(text, key string) Reply {
	codes := e.content.CurrencyCodes()
	choices := make([]Choice, 0, len(codes))
	for _, code := range codes {
		choices = append(choices, Choice{Label: code, Key: key, Payload: code})
	}
	return MenuPrompt(text, choices)
}

func (e *Engine) acceptFrom(st conversation.State, code string) (conversation.State, []Reply) {
	code = strings.TrimSpace(code)
	if _, ok := e.content.ExchangeRate(code); !ok || !st.PendingAmount.Valid {
		return conversation.Idle(), []Reply{PlainText(msgUnsupportedCurrency)}
	}
	st.Mode = conversation.ModeAwaitingToCurrency
	st.PendingFrom = code
	return st, []Reply{e.currencyMenu(msgChooseTo, PostbackToCurrency)}
}

func (e *Engine) acceptTo(st conversation.State, code string) (conversation.State, []Reply) {
	code = strings.TrimSpace(code)
	if !st.PendingAmount.Valid {
		return conversation.Idle(), []Reply{PlainText(msgUnsupportedCurrency)}
	}
	amount := st.PendingAmount.Decimal
	result, err := Convert(e.content, amount, st.PendingFrom, code)
	if err != nil {
		return conversation.Idle(), []Reply{PlainText(msgUnsupportedCurrency)}
	}
	text := conversionResult(FormatAmount(amount), st.PendingFrom, FormatResult(result), code)
	return conversation.Idle(), []Reply{PlainText(text)}
}

func (e *Engine) acceptTicker(ctx context.Context, st conversation.State, ticker string) (conversation.State, []Reply) {
	if ticker == "" {
		return st, []Reply{PlainText(msgStockInput)}
	}
	if e.quotes == nil {
		return conversation.Idle(), []Reply{PlainText(stockError(errNoCollaborator))}
	}
	sum, err := e.quotes.Lookup(ctx, ticker)
	if err != nil {
		return conversation.Idle(), []Reply{PlainText(stockError(err))}
	}
	return conversation.Idle(), []Reply{PlainText(stockSummary(sum))}
}

func stockSummary(s quotes.Summary) string {
	return fmt.Sprintf("股票名稱: %s\n市場: %s\n行業: %s\n市值: %s\n股息率: %s",
		s.Name, s.Market, s.Industry, s.MarketCap, s.DividendYield)
}

func (e *Engine) fetchNews(ctx context.Context) Reply {
	if e.news == nil {
		return PlainText(msgNewsFailed)
	}
	links, err := e.news.FetchTopLinks(ctx)
	if err != nil || len(links) == 0 {
		return PlainText(msgNewsFailed)
	}
	if len(links) > 5 {
		links = links[:5]
	}
	return PlainText(newsLinks(links))
}

// rateTable lists every currency with its rate against the catalog base.
func (e *Engine) rateTable() Reply {
	codes := e.content.CurrencyCodes()
	if len(codes) == 0 {
		return PlainText(msgNoRates)
	}
	var b strings.Builder
	b.WriteString(msgRatesHeader)
	for _, code := range codes {
		rate, _ := e.content.ExchangeRate(code)
		fmt.Fprintf(&b, "\n%s: %s", code, rate.String())
	}
	return PlainText(b.String())
}

func (e *Engine) randomTip() Reply {
	tip, ok := e.content.RandomTip()
	if !ok {
		return PlainText(msgNoTips)
	}
	if tip.Title == "" {
		return PlainText(tip.Content)
	}
	return PlainText(fmt.Sprintf("【%s】\n%s", tip.Title, tip.Content))
}
