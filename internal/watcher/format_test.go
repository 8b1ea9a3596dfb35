package watcher

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	cases := map[float64]string{
		1_234_000_000_000: "$1.23T",
		45_600_000_000:    "$45.60B",
		7_890_000:         "$7.89M",
		1_000:             "$1.00K",
		12.5:              "$12.50",
		0.012346:          "$0.01235",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatCurrency(in), "input %v", in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$50,000.00", formatPrice(50000))
	assert.Equal(t, "$1,234,567.89", formatPrice(1234567.891))
	assert.Equal(t, "$1.00", formatPrice(1))
	assert.Equal(t, "$0.5000", formatPrice(0.5))
	assert.Equal(t, "$0.00001234", formatPrice(0.00001234))
	assert.Equal(t, "$0.000", formatPrice(0))

	assert.Equal(t, "+$1,000.00", formatSignedPrice(1000))
	assert.Equal(t, "-$250.50", formatSignedPrice(-250.5))
}

func TestToPrecision(t *testing.T) {
	assert.Equal(t, "0.1235", toPrecision(0.123456, 4))
	assert.Equal(t, "1.000", toPrecision(0.99999, 4))
	assert.Equal(t, "1.234e-07", toPrecision(0.0000001234, 4))
	assert.Equal(t, "-0.5000", toPrecision(-0.5, 4))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+2.50%", formatPercent(2.5))
	assert.Equal(t, "-0.13%", formatPercent(-0.126))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁▄█", sparkline([]float64{1, 2, 3}, 10))
	assert.Equal(t, "▁▁▁", sparkline([]float64{5, 5, 5}, 10), "flat series")
	assert.Empty(t, sparkline(nil, 10))

	long := make([]float64, 168)
	for i := range long {
		long[i] = float64(i)
	}
	s := sparkline(long, 24)
	assert.Equal(t, 24, utf8.RuneCountInString(s))
	r := []rune(s)
	assert.Equal(t, '▁', r[0])
	assert.Equal(t, '█', r[len(r)-1])
}

func TestFirstParagraph_TruncatesOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("币", 200) // no spaces, 3 bytes per rune
	out := firstParagraph(s, 280)
	assert.True(t, utf8.ValidString(out), "truncated text must stay valid UTF-8")
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.LessOrEqual(t, len(out), 280+len("…"))

	assert.Equal(t, "Bitcoin is a…", firstParagraph(`<a href="x">Bitcoin</a> is a currency`, 14))
	assert.Equal(t, "short", firstParagraph("short\nsecond paragraph", 280))
}
