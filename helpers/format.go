// Package helpers holds shared formatting used by alert messages and
// API payloads.
package helpers

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPrice formats a dollar price with thousand separators.
func FormatPrice(price float64) string {
	negative := price < 0
	if negative {
		price = -price
	}

	str := strconv.FormatFloat(price, 'f', 2, 64)
	dot := strings.IndexByte(str, '.')
	whole, frac := str[:dot], str[dot:]

	if negative {
		return fmt.Sprintf("-$%s%s", addThousands(whole), frac)
	}
	return fmt.Sprintf("$%s%s", addThousands(whole), frac)
}

// FormatCompact renders large counts in K/M/B notation for alert text.
func FormatCompact(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}

	var out string
	switch {
	case v >= 1e9:
		out = strconv.FormatFloat(v/1e9, 'f', 1, 64) + "B"
	case v >= 1e6:
		out = strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case v >= 1e3:
		out = strconv.FormatFloat(v/1e3, 'f', 1, 64) + "K"
	default:
		out = strconv.FormatFloat(v, 'f', -1, 64)
	}

	if negative {
		return "-" + out
	}
	return out
}

// FormatPercent renders a signed percentage with two decimals.
func FormatPercent(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// addThousands inserts comma separators into a bare digit string.
func addThousands(str string) string {
	length := len(str)
	if length <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}
