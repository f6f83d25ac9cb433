package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// Amount bounds. The exponent is checked before any comparison, which would rescale.
const (
	maxAmountText     = 32
	minAmountExponent = -8
	maxAmountExponent = 15
)

var maxAmount = decimal.New(1, maxAmountExponent)

// ErrUnsupportedCurrency is matched by every *UnsupportedCurrencyError.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// UnsupportedCurrencyError names the currency missing from the rate table.
type UnsupportedCurrencyError struct {
	Code string
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("unsupported currency %q", e.Code)
}

// Is makes errors.Is(err, ErrUnsupportedCurrency) succeed.
func (e *UnsupportedCurrencyError) Is(target error) bool {
	return target == ErrUnsupportedCurrency
}

// RateSource looks up a currency's rate against the shared base.
type RateSource interface {
	ExchangeRate(code string) (decimal.Decimal, bool)
}

// Convert returns amount * rate[to] / rate[from].
func Convert(rates RateSource, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	fromRate, ok := rates.ExchangeRate(from)
	if !ok {
		return decimal.Decimal{}, &UnsupportedCurrencyError{Code: from}
	}
	toRate, ok := rates.ExchangeRate(to)
	if !ok {
		return decimal.Decimal{}, &UnsupportedCurrencyError{Code: to}
	}
	if from == to {
		return amount, nil
	}
	return amount.Mul(toRate.Div(fromRate)), nil
}

// FormatAmount renders a user amount the way it was understood: integral
// values keep one decimal place ("100.0"), others use their shortest form.
func FormatAmount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}

// FormatResult renders a conversion result with two decimal places.
func FormatResult(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseAmount accepts a positive decimal number below 10^15 with at most
// eight fractional digits. Surrounding spaces and full-width digits are allowed.
func ParseAmount(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(width.Narrow.String(text))
	if s == "" || len(s) > maxAmountText {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Decimal{}, false
	}
	if !d.IsPositive() || !d.LessThan(maxAmount) {
		return decimal.Decimal{}, false
	}
	return d, true
}
