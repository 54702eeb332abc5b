// Package dates infers the reporting date of a quarterly filing from its
// extracted text. CSE filings carry the quarter-end date in prose ("for the
// period ended 31st March, 2024") rather than machine-readable metadata, so
// inference runs a ranked list of regular-expression matchers against the
// text of the first few pages.
package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no matcher yields a parseable date. Callers
// fall back to the current timestamp and must log the degraded confidence;
// this package never fabricates a date.
var ErrNotFound = eris.New("dates: no report date found")

// datePattern matches a long-form day-month-year date, optionally with an
// ordinal suffix on the day ("31st March 2024").
const datePattern = `(\d{1,2}(?:st|nd|rd|th)?\s+[A-Za-z]+[,]?\s+\d{4})`

// matcher is one entry in the inference cascade.
type matcher struct {
	name string
	re   *regexp.Regexp
}

// matchers are tried in order. The ordering is most-context-qualified first:
// a date following "period ended" is the quarter-end date with near
// certainty, while a bare date anywhere on the page is only a last resort
// (cover pages also carry publication and signature dates).
var matchers = []matcher{
	{"period-ended", regexp.MustCompile(`(?i)(?:ended|as at|for the period ended)[^\n\d]*` + datePattern)},
	{"quarter-context", regexp.MustCompile(`(?i)(?:quarter|period)[^\n\d]*` + datePattern)},
	{"as-at", regexp.MustCompile(`(?i)(?:as at|as of)[^\n\d]*` + datePattern)},
	{"bare-date", regexp.MustCompile(datePattern)},
}

var ordinalRe = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)`)

// InferFromText returns the report date found in text, formatted YYYY_MM_DD.
// Returns ErrNotFound when no matcher produces a parseable date.
func InferFromText(text string) (string, error) {
	for _, m := range matchers {
		match := m.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		t, err := parseLenient(match[1])
		if err != nil {
			continue
		}
		return t.Format("2006_01_02"), nil
	}
	return "", ErrNotFound
}

// MatcherNames returns the cascade order, most specific first.
func MatcherNames() []string {
	names := make([]string, len(matchers))
	for i, m := range matchers {
		names[i] = m.name
	}
	return names
}

// parseLenient normalizes a matched fragment (ordinal suffixes, commas,
// whitespace) and parses it, tolerating layout variation.
func parseLenient(s string) (time.Time, error) {
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), " ")

	if t, err := dateparse.ParseAny(s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2 January 2006", "January 2 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("dates: unparseable fragment %q", s)
}

// QuarterForEnd maps an exact quarter-end month/day to its quarter label.
// Any other day returns ok=false: a mid-quarter date in a filename says
// nothing about the reporting quarter.
func QuarterForEnd(month, day string) (string, bool) {
	switch month + "-" + day {
	case "03-31":
		return "Q1", true
	case "06-30":
		return "Q2", true
	case "09-30":
		return "Q3", true
	case "12-31":
		return "Q4", true
	}
	return "", false
}
