package watcher

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// formatCurrency abbreviates large dollar amounts: $1.23T, $4.56B, $7.89M, $1.00K.
func formatCurrency(n float64) string {
	switch {
	case n >= 1e12:
		return fmt.Sprintf("$%.2fT", n/1e12)
	case n >= 1e9:
		return fmt.Sprintf("$%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("$%.2fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("$%.2fK", n/1e3)
	case n >= 1:
		return fmt.Sprintf("$%.2f", n)
	}
	return "$" + toPrecision(n, 4)
}

// formatPrice shows two decimals with thousands separators for prices of a
// dollar or more, and four significant digits below that.
func formatPrice(n float64) string {
	if n >= 1 {
		return "$" + humanize.FormatFloat("#,###.##", n)
	}
	return "$" + toPrecision(n, 4)
}

// formatSignedPrice prefixes the sign so gains and losses read alike.
func formatSignedPrice(n float64) string {
	if n < 0 {
		return "-" + formatPrice(-n)
	}
	return "+" + formatPrice(n)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}

// formatNumber rounds to a whole number with thousands separators.
func formatNumber(n float64) string {
	return humanize.Comma(int64(math.Round(n)))
}

func formatQty(q decimal.Decimal) string {
	return q.String()
}

// toPrecision renders n with the given significant digits, switching to
// exponent notation only for very small magnitudes.
func toPrecision(n float64, digits int) string {
	if n == 0 {
		return "0." + strings.Repeat("0", digits-1)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	// 'e' formatting performs the significant-digit rounding for us
	e := strconv.FormatFloat(n, 'e', digits-1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -6 {
		return e
	}
	decimals := digits - 1 - exp
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(n, 'f', decimals, 64)
}

var sparkGlyphs = []rune("▁▂▃▄▅▆▇█")

// sparkline draws values as a row of block glyphs, averaging into width buckets.
func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = downsample(values, width)
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var sb strings.Builder
	for _, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkGlyphs)-1))
		}
		sb.WriteRune(sparkGlyphs[idx])
	}
	return sb.String()
}

func downsample(values []float64, width int) []float64 {
	out := make([]float64, width)
	step := float64(len(values)) / float64(width)
	for i := 0; i < width; i++ {
		from := int(float64(i) * step)
		to := int(float64(i+1) * step)
		if to <= from {
			to = from + 1
		}
		sum := 0.0
		for _, v := range values[from:to] {
			sum += v
		}
		out[i] = sum / float64(to-from)
	}
	return out
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
