package dialogue

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/finbot/finbot/catalog"
)

type rateTable map[string]decimal.Decimal

func (t rateTable) ExchangeRate(code string) (decimal.Decimal, bool) {
	r, ok := t[code]
	return r, ok
}

func TestConvert(t *testing.T) {
	rates := rateTable{"USD美金": decimal.NewFromInt(1), "TWD台幣": decimal.NewFromInt(30)}

	got, err := Convert(rates, decimal.NewFromInt(100), "USD美金", "TWD台幣")
	require.NoError(t, err)
	assert.Equal(t, "3000.00", FormatResult(got))

	got, err = Convert(rates, decimal.NewFromInt(300), "TWD台幣", "USD美金")
	require.NoError(t, err)
	assert.Equal(t, "10.00", FormatResult(got))
}

func TestConvertIdentity(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	amounts := []decimal.Decimal{decimal.Zero, decimal.NewFromInt(1), decimal.RequireFromString("12.345"), decimal.NewFromInt(1000000)}
	for _, code := range c.CurrencyCodes() {
		for _, a := range amounts {
			got, err := Convert(c, a, code, code)
			require.NoError(t, err)
			assert.True(t, got.Equal(a), "%s %s", a, code)
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	amount := decimal.RequireFromString("123.45")
	tolerance := decimal.RequireFromString("0.000001")
	for _, a := range c.CurrencyCodes() {
		for _, b := range c.CurrencyCodes() {
			there, err := Convert(c, amount, a, b)
			require.NoError(t, err)
			back, err := Convert(c, there, b, a)
			require.NoError(t, err)
			assert.True(t, back.Sub(amount).Abs().LessThan(tolerance), "%s -> %s -> %s: %s", a, b, a, back)
		}
	}
}

func TestConvertUnsupported(t *testing.T) {
	rates := rateTable{"USD美金": decimal.NewFromInt(1)}

	for _, pair := range [][2]string{{"XXX", "USD美金"}, {"USD美金", "XXX"}, {"XXX", "YYY"}} {
		got, err := Convert(rates, decimal.NewFromInt(1), pair[0], pair[1])
		require.ErrorIs(t, err, ErrUnsupportedCurrency)
		var uc *UnsupportedCurrencyError
		require.ErrorAs(t, err, &uc)
		assert.Equal(t, "XXX", uc.Code)
		assert.True(t, got.IsZero())
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"100":    "100.0",
		"100.00": "100.0",
		"12.5":   "12.5",
		"0.05":   "0.05",
		"1e3":    "1000.0",
	}
	for in, want := range tests {
		d, ok := ParseAmount(in)
		require.True(t, ok, in)
		assert.Equal(t, want, FormatAmount(d), in)
	}
}

func TestParseAmountRejects(t *testing.T) {
	rejected := []string{
		"", "abc", "0", "-5", "10元", "1,000",
		"1e20000000", "1e-20000000", "1e15", "1000000000000000",
		"0.000000001", strings.Repeat("1", 40),
	}
	for _, in := range rejected {
		_, ok := ParseAmount(in)
		assert.False(t, ok, in)
	}
	d, ok := ParseAmount("  42 ")
	require.True(t, ok)
	assert.Equal(t, "42", d.String())
}

func TestParseAmountBounds(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"999999999999999", "999999999999999"},
		{"0.00000001", "0.00000001"},
		{"1.5e2", "150"},
		{"１００", "100"},
		{"１２．５", "12.5"},
		{"　８　", "8"},
	}
	for _, tt := range tests {
		d, ok := ParseAmount(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, d.String(), tt.in)
	}
}
