// Package numfmt renders sensor and effluent numbers the way the plant
// dashboard shows them to operators.
package numfmt

import (
	"math"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/effluent-watch/pkg/types"
)

// Placeholder is rendered for missing values.
const Placeholder = "-"

// Number adds thousands separators and keeps at most three fraction digits.
// 1234567 → "1,234,567", 1234.5 → "1,234.5".
func Number(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return group(s)
}

// Decimal renders v with a fixed number of fraction digits, no grouping.
// 12.3456789 with 2 decimals → "12.35".
func Decimal(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Sensor renders whole numbers with separators and everything else with two
// decimals.
func Sensor(v float64) string {
	if v == math.Trunc(v) {
		return Number(v)
	}
	return Decimal(v, 2)
}

// Large renders big values compactly: millions as "1.5M", hundreds of
// thousands and thousands with separators, small values with one decimal.
func Large(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return Decimal(v/1_000_000, 1) + "M"
	case abs >= 100_000:
		return Number(math.Round(v))
	case abs >= 1_000:
		return Number(v)
	default:
		return Decimal(v, 1)
	}
}

// Accumulated renders running totals: "9.46M", "12.3K" or the plain number.
func Accumulated(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return Decimal(v/1_000_000, 2) + "M"
	case abs >= 1_000:
		return Decimal(v/1_000, 1) + "K"
	default:
		return Number(v)
	}
}

// Reading renders r with f, or the placeholder when r carries no data.
func Reading(r domain.Reading, f func(float64) string) string {
	v, ok := r.Float()
	if !ok {
		return Placeholder
	}
	return f(v)
}

// Bound renders an optional threshold bound with f.
func Bound(b *float64, f func(float64) string) string {
	if b == nil {
		return Placeholder
	}
	return f(*b)
}

// OneDecimal is Decimal fixed at one fraction digit.
func OneDecimal(v float64) string {
	return Decimal(v, 1)
}

func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
