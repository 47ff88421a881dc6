// Package coerce turns loosely formatted spreadsheet and CSV cells into typed
// values. Every function is total: malformed input yields the zero value or
// the supplied default, never an error.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// blankMarker is the placeholder pivot-table exports write for empty cells.
const blankMarker = "(blank)"

var currencyStripper = strings.NewReplacer("$", "", ",", "", `"`, "", "'", "", " ", "", "\t", "", "\u00a0", "")

// ParseCurrency parses a currency cell. "(123.45)" is the accounting form of
// -123.45. Blank cells, "(blank)" and anything non-numeric parse to 0.
func ParseCurrency(text string) float64 {
	s := strings.TrimSpace(text)
	if s == "" || strings.EqualFold(s, blankMarker) {
		return 0
	}

	s = currencyStripper.Replace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}
	// "$-5" and "-$5" both reach here as "5".
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if negative {
		return -v
	}
	return v
}

// ParseBoolean reports whether text is one of yes, y, true or 1, ignoring
// case and surrounding whitespace.
func ParseBoolean(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "true", "1":
		return true
	default:
		return false
	}
}

// ParseInteger parses a whole number, tolerating thousands separators and a
// fractional part ("12.0" is 12, truncated toward zero). Anything else
// returns def.
func ParseInteger(text string, def int) int {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return def
	}
	return int(f)
}

// ParsePercent parses "45%", "45" or "0.45%" as a percentage number (45,
// 45, 0.45). Malformed input is 0.
func ParsePercent(text string) float64 {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, "%")
	return ParseCurrency(s)
}

// dateLayouts are the date formats seen in claim exports, most common first.
var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"1/2/06",
	"01/02/06",
	"1-2-2006",
	"1-2-06",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"02-Jan-06",
	time.RFC3339,
}

// ParseDate parses a date cell in any of the layouts seen in exports. The
// result is in UTC.
func ParseDate(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" || strings.EqualFold(s, blankMarker) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize trims and lowercases text for keyword matching.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Label trims text and substitutes fallback when nothing remains, so blank
// group keys collapse into one named bucket.
func Label(text, fallback string) string {
	s := strings.TrimSpace(text)
	if s == "" || strings.EqualFold(s, blankMarker) {
		return fallback
	}
	return s
}

// ContainsAny reports whether the normalized text contains any of the
// lowercase keywords.
func ContainsAny(text string, keywords ...string) bool {
	s := Normalize(text)
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
