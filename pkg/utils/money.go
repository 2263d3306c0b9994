package utils

import (
	"github.com/shopspring/decimal"
)

// Round2 rounds v half away from zero to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// PercentChange returns (current-previous)/previous*100 rounded to two
// decimals, or 0 when previous is zero.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	cur := decimal.NewFromFloat(current)
	prev := decimal.NewFromFloat(previous)
	f, _ := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return f
}

// FormatPeso formats v as a peso amount, e.g. "₱1,234.50".
func FormatPeso(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	res := "₱" + string(out) + frac
	if neg {
		res = "-" + res
	}
	return res
}
