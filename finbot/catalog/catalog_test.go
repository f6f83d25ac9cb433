package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 10, c.QuestionCount())
	q, ok := c.QuestionAt(0)
	require.True(t, ok)
	assert.Equal(t, "股票市場中，代表股價指數的英文縮寫是什麼？", q.Prompt)
	assert.Equal(t, "D", q.Answer)
	assert.Len(t, q.Options, 4)

	answers := ""
	for i := 0; i < c.QuestionCount(); i++ {
		q, _ := c.QuestionAt(i)
		answers += q.Answer
	}
	assert.Equal(t, "DABBDBBBBC", answers)

	_, ok = c.QuestionAt(10)
	assert.False(t, ok)
	_, ok = c.QuestionAt(-1)
	assert.False(t, ok)

	codes := c.CurrencyCodes()
	require.Len(t, codes, 12)
	assert.Equal(t, "USD美金", codes[0])
	assert.Equal(t, "KRW韓圓", codes[11])

	rate, ok := c.ExchangeRate("TWD台幣")
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(30)))
	_, ok = c.ExchangeRate("XXX")
	assert.False(t, ok)
}

func TestRandomTipIsFromCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	tips := c.Tips()
	require.NotEmpty(t, tips)

	for i := 0; i < 50; i++ {
		tip, ok := c.RandomTip()
		require.True(t, ok)
		assert.Contains(t, tips, tip)
	}
}

func TestRandomTipEmpty(t *testing.T) {
	c, err := New([]Question{validQuestion()}, nil, nil)
	require.NoError(t, err)
	_, ok := c.RandomTip()
	assert.False(t, ok)
}

func validQuestion() Question {
	return Question{
		Prompt:  "q",
		Options: []string{"A) a", "B) b", "C) c", "D) d"},
		Answer:  "A",
	}
}

func TestNewValidation(t *testing.T) {
	bad := func(mut func(*Question)) []Question {
		q := validQuestion()
		mut(&q)
		return []Question{q}
	}

	tests := []struct {
		name      string
		questions []Question
		rates     []Rate
		tips      []Tip
	}{
		{name: "no questions"},
		{name: "three options", questions: bad(func(q *Question) { q.Options = q.Options[:3] })},
		{name: "answer out of range", questions: bad(func(q *Question) { q.Answer = "E" })},
		{name: "lowercase answer", questions: bad(func(q *Question) { q.Answer = "a" })},
		{name: "unlabelled option", questions: bad(func(q *Question) { q.Options[1] = "x) b" })},
		{name: "empty prompt", questions: bad(func(q *Question) { q.Prompt = " " })},
		{name: "zero rate", questions: []Question{validQuestion()}, rates: []Rate{{Code: "USD", Rate: decimal.Zero}}},
		{name: "negative rate", questions: []Question{validQuestion()}, rates: []Rate{{Code: "USD", Rate: decimal.NewFromInt(-1)}}},
		{name: "duplicate rate", questions: []Question{validQuestion()}, rates: []Rate{
			{Code: "USD", Rate: decimal.NewFromInt(1)}, {Code: "USD", Rate: decimal.NewFromInt(2)},
		}},
		{name: "empty tip", questions: []Question{validQuestion()}, tips: []Tip{{Title: "t"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.questions, tt.rates, tt.tips)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseRejectsBadRate(t *testing.T) {
	_, err := Parse([]byte(`
questions:
  - prompt: q
    options: ["A) a", "B) b", "C) c", "D) d"]
    answer: A
rates:
  - {code: USD, rate: "abc"}
`))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCatalogIsImmutable(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	codes := c.CurrencyCodes()
	codes[0] = "changed"
	assert.Equal(t, "USD美金", c.CurrencyCodes()[0])
}

func TestNewTrimsRateCodes(t *testing.T) {
	c, err := New([]Question{validQuestion()}, []Rate{
		{Code: " USD美金 ", Rate: decimal.NewFromInt(1)},
		{Code: "TWD台幣\n", Rate: decimal.NewFromInt(30)},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"USD美金", "TWD台幣"}, c.CurrencyCodes())
	for _, code := range c.CurrencyCodes() {
		_, ok := c.ExchangeRate(code)
		assert.True(t, ok, code)
	}
	assert.Equal(t, "USD美金", c.Rates()[0].Code)
}
