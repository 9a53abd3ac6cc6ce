package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/subslayer/internal/extraction/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	june1 := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		now  time.Time
		want string
	}{
		{"month and day without year", "Jan 15", june1, "2026-01-15"},
		{"past date in current year rolls forward", "2025-01-15", june1, "2026-01-15"},
		{"future date in current year kept", "2025-12-25", june1, "2025-12-25"},
		{"today is kept", "2025-06-01", june1, "2025-06-01"},
		{"stale year keeps month and day", "2019-12-25", june1, "2025-12-25"},
		{"stale year past month rolls to next year", "2024-01-15", june1, "2026-01-15"},
		{"year too far ahead", "2031-03-10", june1, "2026-03-10"},
		{"year within bound kept", "2030-03-10", june1, "2030-03-10"},
		{"long month name", "December 3, 2025", june1, "2025-12-03"},
		{"ordinal suffix", "July 4th", june1, "2025-07-04"},
		{"day first month name", "15 August", june1, "2025-08-15"},
		{"US numeric with year", "08/20/2025", june1, "2025-08-20"},
		{"numeric month/day", "01/15", june1, "2026-01-15"},
		{"numeric month-day", "9-1", june1, "2025-09-01"},
		{"day/month when month would overflow", "15/01", june1, "2026-01-15"},
		{"written stale year without numeric pattern", "March 3, 2019", june1, "2026-03-03"},
		{"RFC3339 timestamp", "2025-07-01T10:00:00Z", june1, "2025-07-01"},
		{"end to end reference", "2025-01-15", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), "2025-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.text, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatDate(got))
		})
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	now := date(2025, 6, 1)

	for _, text := range []string{"", "   ", "next month", "13/13", "02/30", "soon-ish"} {
		t.Run(text, func(t *testing.T) {
			_, err := Normalize(text, now)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrDateUnparseable))
		})
	}
}

func TestNormalize_NeverBeforeReference(t *testing.T) {
	inputs := []string{
		"Jan 1", "Dec 31", "2020-02-29", "02/29", "2025-05-31", "2025-06-01",
		"1/1/2024", "2099-07-07", "June 1", "May 31", "2026-06-01",
	}
	refs := []time.Time{
		date(2024, 2, 29), date(2025, 1, 1), date(2025, 6, 1), date(2025, 12, 31),
		time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC),
	}

	for _, ref := range refs {
		today := date(ref.Year(), ref.Month(), ref.Day())
		for _, in := range inputs {
			got, err := Normalize(in, ref)
			require.NoError(t, err, "input %q ref %s", in, ref)
			assert.False(t, got.Before(today), "input %q ref %s gave %s", in, ref, FormatDate(got))

			// Round trip through the wire format is a valid date.
			parsed, err := time.Parse(DateLayout, FormatDate(got))
			require.NoError(t, err)
			assert.True(t, got.Equal(parsed))
		}
	}
}

func TestNormalize_ReferenceZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2025-06-01 20:00 UTC is already June 2 in Tokyo.
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC).In(tokyo)

	got, err := Normalize("2025-06-01", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01", FormatDate(got))
}

func TestDateNormalizer(t *testing.T) {
	n := NewDateNormalizer(func() time.Time { return date(2025, 6, 1) }, nil)

	got, err := n.Normalize("Jan 15")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", got)
	assert.Equal(t, time.UTC, n.Now().Location())
}
