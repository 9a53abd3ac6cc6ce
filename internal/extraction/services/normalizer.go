package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
)

// DateLayout is the wire format of a normalized renewal date.
const DateLayout = "2006-01-02"

// MaxYearsAhead bounds how far in the future a stated renewal year is
// trusted before only its month and day are kept.
const MaxYearsAhead = 5

// Layouts that carry a year. Year-less layouts are never tried directly
// because time.Parse would place them in year 0.
var yearLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/1/2",
	"1/2/2006",
	"1-2-2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 January, 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
	"Monday January 2, 2006",
	"Mon, Jan 2, 2006",
	"Mon, 2 Jan 2006",
	"Mon Jan 2 2006",
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	isoMonthDay   = regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`)
	numMonthDay   = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b`)
)

// Normalize turns free-form renewal text into a calendar date that is never
// before the reference date. The reference zone is referenceNow's location.
//
// Years earlier than the reference year or more than MaxYearsAhead past it
// are treated as unreliable: the month and day are kept and placed in the
// next occurrence on or after the reference date.
func Normalize(dateText string, referenceNow time.Time) (time.Time, error) {
	loc := referenceNow.Location()
	today := truncateToDay(referenceNow)
	year := today.Year()

	text := cleanDateText(dateText)
	if text == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", domain.ErrDateUnparseable)
	}

	date, ok := parseWithYear(text, loc)
	if !ok {
		date, ok = parseWithYear(text+" "+strconv.Itoa(year), loc)
	}

	if !ok || date.Year() < year || date.Year() > year+MaxYearsAhead {
		month, day, found, err := extractMonthDay(text)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", domain.ErrDateUnparseable, dateText, err)
		}
		if !found {
			if !ok {
				return time.Time{}, fmt.Errorf("%w: %q", domain.ErrDateUnparseable, dateText)
			}
			month, day = date.Month(), date.Day()
		}

		date = time.Date(year, month, day, 0, 0, 0, 0, loc)
		if date.Before(today) {
			date = date.AddDate(1, 0, 0)
		}
	}

	if date.Before(today) {
		date = date.AddDate(1, 0, 0)
	}
	return date, nil
}

// FormatDate renders a normalized date in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateNormalizer applies Normalize against an injected clock.
type DateNormalizer struct {
	now func() time.Time
	loc *time.Location
}

// NewDateNormalizer creates a normalizer. A nil clock means time.Now and a
// nil location means UTC.
func NewDateNormalizer(now func() time.Time, loc *time.Location) *DateNormalizer {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DateNormalizer{now: now, loc: loc}
}

// Now returns the current reference instant in the normalizer's zone.
func (n *DateNormalizer) Now() time.Time {
	return n.now().In(n.loc)
}

// Normalize returns the normalized date for text as YYYY-MM-DD.
func (n *DateNormalizer) Normalize(text string) (string, error) {
	date, err := Normalize(text, n.Now())
	if err != nil {
		return "", err
	}
	return FormatDate(date), nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func cleanDateText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	return strings.Join(strings.Fields(s), " ")
}

func parseWithYear(text string, loc *time.Location) (time.Time, bool) {
	for _, layout := range yearLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// extractMonthDay recovers month and day from a numeric pattern. ISO order
// (year first) wins; otherwise M/D, read as D/M when only that fits.
func extractMonthDay(text string) (time.Month, int, bool, error) {
	var first, second int
	switch {
	case isoMonthDay.MatchString(text):
		g := isoMonthDay.FindStringSubmatch(text)
		first, _ = strconv.Atoi(g[2])
		second, _ = strconv.Atoi(g[3])
	case numMonthDay.MatchString(text):
		g := numMonthDay.FindStringSubmatch(text)
		first, _ = strconv.Atoi(g[1])
		second, _ = strconv.Atoi(g[2])
		if first > 12 && second <= 12 {
			first, second = second, first
		}
	default:
		return 0, 0, false, nil
	}

	month, day := time.Month(first), second
	if month < time.January || month > time.December {
		return 0, 0, false, fmt.Errorf("month %d out of range", first)
	}
	// Leap year so February 29 is accepted.
	if day < 1 || day > daysIn(month, 2000) {
		return 0, 0, false, fmt.Errorf("day %d out of range for %s", day, month)
	}
	return month, day, true, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
