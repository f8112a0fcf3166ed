package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidDateFormat is returned when a date string cannot be read as
// DD/MM/YYYY or DD-MM-YYYY.
var ErrInvalidDateFormat = errors.New("invalid date format, expected DD/MM/YYYY or DD-MM-YYYY")

var separator = regexp.MustCompile(`[-/]`)

// Parse reads a day-granularity date string in DD/MM/YYYY or DD-MM-YYYY
// order and returns it as midnight UTC. Two-digit years are rejected.
func Parse(dateString string) (time.Time, error) {
	parts := separator.Split(dateString, -1)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateString)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateString)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateString)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateString)
	}

	if year < 1000 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateString)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/04 becomes 01/05); reject that.
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, dateString)
	}
	return t, nil
}

// Format renders a date in the canonical DD/MM/YYYY form.
func Format(t time.Time) string {
	return t.Format("02/01/2006")
}
