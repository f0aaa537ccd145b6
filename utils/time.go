package utils

import (
	"fmt"
	"time"
)

// TimestampLayout is how timestamps are persisted in text columns. It is fixed width so the text
// sorts in time order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatTimestamp formats t for storage. The zero time formats as "".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp. Legacy "2006-01-02 15:04:05" values are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.ParseInLocation(time.DateTime, value, time.UTC); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %s", value)
}

// AddMonths adds n calendar months to t, clamping the day to the last day of the target month
// (Jan 31 + 1 month is Feb 28, or Feb 29 in a leap year). Time of day and location are kept.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
