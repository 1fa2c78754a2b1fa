package report

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/loanagg/internal/types"
)

var million = decimal.NewFromInt(1_000_000)

// FormatCurrency renders v as US dollars with two decimals and comma
// thousands separators, e.g. "$1,234.56" or "-$12.00". NaN renders as "NaN".
func FormatCurrency(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}

	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	fixed := d.StringFixed(2)
	whole, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	return sign + "$" + groupThousands(whole) + "." + frac
}

// FormatMillions renders v as a chart axis tick in millions, e.g. "$1.2M".
func FormatMillions(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}

	d := decimal.NewFromFloat(v).Div(million).Round(1)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	return sign + "$" + d.StringFixed(1) + "M"
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "$Inf", true
	case math.IsInf(v, -1):
		return "-$Inf", true
	}
	return "", false
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// GradeLabel returns the display label for a grade, e.g. "a" -> "Grade A".
func GradeLabel(grade string) string {
	return "Grade " + strings.ToUpper(grade)
}

// Capitalize upper-cases the first letter of s, e.g. "mortgage" -> "Mortgage".
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Label returns the display label of a group key for the given field.
func Label(field types.Field, key string) string {
	switch field {
	case types.FieldGrade:
		return GradeLabel(key)
	case types.FieldCurrentBalance:
		return key
	default:
		return Capitalize(key)
	}
}
