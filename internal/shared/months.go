package shared

import (
	"errors"
	"fmt"
	"time"
)

// MonthKeyLayout is the canonical YYYY-MM key for monthly rollups.
const MonthKeyLayout = "2006-01"

// ErrInvalidMonth indicates a month key that is not in YYYY-MM form.
var ErrInvalidMonth = errors.New("month key must be YYYY-MM")

// ParseMonth validates a YYYY-MM key and returns the first instant of the month in UTC.
func ParseMonth(monthYear string) (time.Time, error) {
	t, err := time.Parse(MonthKeyLayout, monthYear)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, monthYear)
	}
	return t.UTC(), nil
}

// MonthKey formats a point in time as its YYYY-MM key in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(MonthKeyLayout)
}

// CurrentMonthKey returns the key for the current UTC month.
func CurrentMonthKey() string {
	return MonthKey(time.Now())
}

// MonthBounds returns the half-open interval [start, end) covering the month.
func MonthBounds(monthYear string) (start, end time.Time, err error) {
	start, err = ParseMonth(monthYear)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}

// NextMonth advances a parsed month key by one month.
func NextMonth(monthYear string) (string, error) {
	start, err := ParseMonth(monthYear)
	if err != nil {
		return "", err
	}
	return MonthKey(start.AddDate(0, 1, 0)), nil
}

// MonthRange expands an inclusive from/to key pair into ordered month keys.
func MonthRange(from, to string) ([]string, error) {
	start, err := ParseMonth(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseMonth(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("month range %s..%s is reversed", from, to)
	}
	endKey := MonthKey(end)
	keys := []string{MonthKey(start)}
	for key := keys[0]; key != endKey; {
		key, err = NextMonth(key)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
