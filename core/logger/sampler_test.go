package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.Allow())
	}
	assert.Equal(t, []bool{true, false, false, true, false, false}, got)

	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		assert.True(t, s.Allow())
	}

	s.Set(5, 2)
	assert.True(t, s.Allow())
	assert.True(t, s.Allow())
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		in       string
		num, den int
	}{
		{"1/50", 1, 50},
		{" 2 / 10 ", 2, 10},
		{"20", 1, 20},
		{"5%", 5, 100},
		{"150%", 100, 100},
		{"", 0, 0},
		{"0", 0, 0},
		{"x/y", 0, 0},
		{"abc", 0, 0},
	}
	for _, tc := range cases {
		num, den := parseRatioSpec(tc.in)
		assert.Equal(t, tc.num, num, tc.in)
		assert.Equal(t, tc.den, den, tc.in)
	}
}
