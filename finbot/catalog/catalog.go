package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid is returned when catalog content fails validation.
var ErrInvalid = errors.New("invalid catalog")

// AnswerLabels are the option labels in display order.
var AnswerLabels = []string{"A", "B", "C", "D"}

// Question is one multiple-choice quiz item. Options carry their label
// prefix ("A) ...") so the first character identifies the choice.
type Question struct {
	Prompt      string   `yaml:"prompt"`
	Options     []string `yaml:"options"`
	Answer      string   `yaml:"answer"`
	Explanation string   `yaml:"explanation"`
}

// Rate is the value of one currency unit against the shared base currency.
type Rate struct {
	Code string          `db:"code"`
	Rate decimal.Decimal `db:"rate"`
}

// Tip is a short piece of financial advice.
type Tip struct {
	Title   string `yaml:"title" db:"title"`
	Content string `yaml:"content" db:"content"`
}

// Catalog is immutable quiz, exchange-rate and tip content. It is safe for concurrent use.
type Catalog struct {
	questions []Question
	rates     []Rate
	rateIdx   map[string]decimal.Decimal
	tips      []Tip
}

// New validates the content and builds a Catalog. Rates keep their given order.
func New(questions []Question, rates []Rate, tips []Tip) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalid)
	}
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrInvalid, i+1, err)
		}
	}

	idx := make(map[string]decimal.Decimal, len(rates))
	clean := make([]Rate, 0, len(rates))
	for _, r := range rates {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: empty currency code", ErrInvalid)
		}
		if !r.Rate.IsPositive() {
			return nil, fmt.Errorf("%w: rate for %s must be > 0", ErrInvalid, code)
		}
		if _, dup := idx[code]; dup {
			return nil, fmt.Errorf("%w: duplicate currency %s", ErrInvalid, code)
		}
		idx[code] = r.Rate
		clean = append(clean, Rate{Code: code, Rate: r.Rate})
	}

	for i, t := range tips {
		if strings.TrimSpace(t.Content) == "" {
			return nil, fmt.Errorf("%w: tip %d has no content", ErrInvalid, i+1)
		}
	}

	return &Catalog{
		questions: append([]Question(nil), questions...),
		rates:     clean,
		rateIdx:   idx,
		tips:      append([]Tip(nil), tips...),
	}, nil
}

func validateQuestion(q Question) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return errors.New("empty prompt")
	}
	if len(q.Options) != len(AnswerLabels) {
		return fmt.Errorf("want %d options, got %d", len(AnswerLabels), len(q.Options))
	}
	for i, opt := range q.Options {
		if !strings.HasPrefix(opt, AnswerLabels[i]) {
			return fmt.Errorf("option %d must start with %q", i+1, AnswerLabels[i])
		}
	}
	for _, l := range AnswerLabels {
		if q.Answer == l {
			return nil
		}
	}
	return fmt.Errorf("answer %q not in A-D", q.Answer)
}

// QuestionAt returns the question at index i.
func (c *Catalog) QuestionAt(i int) (Question, bool) {
	if i < 0 || i >= len(c.questions) {
		return Question{}, false
	}
	return c.questions[i], true
}

// QuestionCount returns the number of quiz questions.
func (c *Catalog) QuestionCount() int {
	return len(c.questions)
}

// ExchangeRate returns the rate for code against the base currency.
func (c *Catalog) ExchangeRate(code string) (decimal.Decimal, bool) {
	r, ok := c.rateIdx[code]
	return r, ok
}

// CurrencyCodes lists currency codes in catalog order.
func (c *Catalog) CurrencyCodes() []string {
	out := make([]string, len(c.rates))
	for i, r := range c.rates {
		out[i] = r.Code
	}
	return out
}

// Rates returns a copy of the exchange-rate table in catalog order.
func (c *Catalog) Rates() []Rate {
	return append([]Rate(nil), c.rates...)
}

// Questions returns a copy of all questions.
func (c *Catalog) Questions() []Question {
	return append([]Question(nil), c.questions...)
}

// Tips returns a copy of all tips.
func (c *Catalog) Tips() []Tip {
	return append([]Tip(nil), c.tips...)
}

// RandomTip picks a tip uniformly at random. It returns false when there are no tips.
func (c *Catalog) RandomTip() (Tip, bool) {
	if len(c.tips) == 0 {
		return Tip{}, false
	}
	return c.tips[rand.IntN(len(c.tips))], true
}
