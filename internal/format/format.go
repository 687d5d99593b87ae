// Package format renders marketplace values for display.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"frontend/internal/models"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// DateLayout matches the en-US short date with a 12-hour clock.
const DateLayout = "Jan 2, 2006, 03:04 PM"

// FileSize formats a byte count with binary units, two decimals at most.
func FileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return scaleBytes(float64(bytes))
}

// FileSizeMB formats a size reported by the API in megabytes.
func FileSizeMB(mb float64) string {
	if mb <= 0 {
		return "0 B"
	}
	return scaleBytes(mb * 1024 * 1024)
}

func scaleBytes(value float64) string {
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	rounded := math.Round(value*100) / 100
	// 1023.999 KB rounds up to 1024 KB; carry into the next unit
	if rounded >= 1024 && unit < len(sizeUnits)-1 {
		rounded = math.Round(rounded/1024*100) / 100
		unit++
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[unit]
}

// Currency formats amount as US dollars, rounding half away from zero.
func Currency(amount float64) string {
	return CurrencyDecimal(decimal.NewFromFloat(amount))
}

func CurrencyDecimal(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	fixed := rounded.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	wholeValue, _ := decimal.NewFromString(whole)
	return sign + "$" + humanize.BigComma(wholeValue.BigInt()) + "." + cents
}

// Price renders zero as "Free" and anything else as Currency.
func Price(amount float64) string {
	if amount == 0 {
		return "Free"
	}
	return Currency(amount)
}

// Number formats n with en-US digit grouping. Fractions keep up to three digits.
func Number(n any) string {
	switch v := n.(type) {
	case int:
		return humanize.Comma(int64(v))
	case int32:
		return humanize.Comma(int64(v))
	case int64:
		return humanize.Comma(v)
	case *int:
		if v == nil {
			return "0"
		}
		return humanize.Comma(int64(*v))
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case decimal.Decimal:
		f, _ := v.Float64()
		return formatFloat(f)
	default:
		return "0"
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return humanize.Comma(int64(f))
	}
	return humanize.Commaf(math.Round(f*1000) / 1000)
}

// Date formats t in the short en-US style, or "" for the zero time.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// DateString parses an API timestamp and formats it; unparseable input is
// returned unchanged.
func DateString(s string) string {
	t, err := models.ParseTimestamp(s)
	if err != nil {
		return s
	}
	return Date(t)
}

// Relative renders t as "3 minutes ago".
func Relative(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// Truncate cuts text to max runes and appends "..." when anything was removed.
func Truncate(text string, max int) string {
	if max < 0 {
		max = 0
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}

// Address shortens a wallet address to 0x1234...abcd.
func Address(address string) string {
	runes := []rune(address)
	if len(runes) < 10 {
		return address
	}
	return string(runes[:6]) + "..." + string(runes[len(runes)-4:])
}

// Percent renders progress as a whole percentage for inline widths.
func Percent(value float64) string {
	return strconv.FormatFloat(math.Round(value), 'f', 0, 64) + "%"
}
