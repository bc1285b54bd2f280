package dates

import (
	"time"

	apperrors "bookstay/pkg/errors"
)

// Layout is the wire format every calendar date travels in: MM.DD.YYYY.
const Layout = "01.02.2006"

// Parse converts a calendar date string into a time.Time at midnight UTC.
// Unparseable input surfaces as INVALID_INPUT, never as a silently empty date.
func Parse(value string) (time.Time, error) {
	parsed, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid calendar date, must be MM.DD.YYYY: " + value)
	}
	return parsed, nil
}

// ParseRange parses both ends of a date range.
func ParseRange(from, until string) (time.Time, time.Time, error) {
	start, err := Parse(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := Parse(until)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// Overlaps reports whether two closed-inclusive date ranges claim a common day.
// Ranges are disjoint only when one ends strictly before the other begins;
// touching end/start dates count as overlap.
func Overlaps(newStart, newEnd, existingStart, existingEnd time.Time) bool {
	return !(newEnd.Before(existingStart) || newStart.After(existingEnd))
}
