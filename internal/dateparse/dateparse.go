// Package dateparse normalizes human-entered dates and planning tokens into
// a plain (year, month, day) value. Month names are resolved through an
// embedded Portuguese table so parsing never depends on the host locale.
package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a parsed calendar date. Year 0 or Month 0 means "unparsed" and is
// never a real calendar value.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Valid reports whether the date carries a usable year and month.
func (d Date) Valid() bool {
	return d.Year != 0 && d.Month != 0
}

// ISO renders the date as YYYY-MM-DD. Parsing the result yields the same
// date back.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time converts the date to a time.Time at midnight UTC. The zero time is
// returned for an unparsed date.
func (d Date) Time() time.Time {
	if !d.Valid() {
		return time.Time{}
	}

	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// ParseError reports an input that matched none of the known formats.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dateparse: unrecognized date format %q", e.Input)
}

// months maps lowercase Portuguese month names to month numbers. "marco" is
// accepted alongside "março" because the cedilla is routinely lost in CSV
// round-trips.
var months = map[string]int{
	"janeiro":   1,
	"fevereiro": 2,
	"março":     3,
	"marco":     3,
	"abril":     4,
	"maio":      5,
	"junho":     6,
	"julho":     7,
	"agosto":    8,
	"setembro":  9,
	"outubro":   10,
	"novembro":  11,
	"dezembro":  12,
}

// layouts are tried in order; the first match wins. Day-first layouts come
// before month-first so ambiguous inputs resolve the Brazilian way.
var layouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"2006-01",
	"2006/01",
}

// Parse normalizes text into a Date. Year-month-only formats and planning
// tokens ("2025/maio") default the day to 1. A trailing time component
// (a 't' separator followed by a digit, or a space when the remainder
// contains a colon) is discarded. On failure it returns a *ParseError
// carrying the original input; it never guesses "now".
func Parse(text string) (Date, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return Date{}, &ParseError{Input: text}
	}

	s = stripTime(s)

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}

		return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
	}

	if d, ok := parsePlanningToken(s); ok {
		return d, nil
	}

	return Date{}, &ParseError{Input: text}
}

// stripTime cuts a trailing time component off a lowercased date string.
// A 't' only separates a time when a digit follows it, so month names like
// "outubro" and "agosto" pass through intact.
func stripTime(s string) string {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == 't' && s[i+1] >= '0' && s[i+1] <= '9' {
			return s[:i]
		}
	}

	if i := strings.Index(s, " "); i >= 0 && strings.Contains(s[i:], ":") {
		return s[:i]
	}

	return s
}

// parsePlanningToken handles the "YEAR/month-name" planning form, e.g.
// "2025/maio". The input is already trimmed and lowercased.
func parsePlanningToken(s string) (Date, bool) {
	yearStr, monthStr, found := strings.Cut(s, "/")
	if !found {
		return Date{}, false
	}

	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil || year <= 0 {
		return Date{}, false
	}

	month, ok := months[strings.TrimSpace(monthStr)]
	if !ok {
		return Date{}, false
	}

	return Date{Year: year, Month: month, Day: 1}, true
}
