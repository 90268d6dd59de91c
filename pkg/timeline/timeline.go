package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinutesPerDay is 24 hours * 60 minutes.
	MinutesPerDay = 1440

	// DefaultDayBoundaryHour is the hour before which a label belongs to the
	// early morning of the next calendar day.
	DefaultDayBoundaryHour = 6
)

// ErrMalformedLabel is wrapped by every ParseError.
var ErrMalformedLabel = errors.New("malformed time label")

// ParseError reports a time label that could not be converted to minutes.
type ParseError struct {
	Label  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse time label %q: %s", e.Label, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedLabel
}

// Style selects the separator used by Format.
type Style int

const (
	StyleColon Style = iota // "14:30"
	StyleH                  // "14h30"
)

// Clock converts festival time labels into a linear minute scale. A festival
// day runs from the morning through the early hours of the next calendar day,
// so hours below DayBoundaryHour are shifted by one full day.
type Clock struct {
	DayBoundaryHour int
}

// NewClock returns a Clock with the given boundary, falling back to
// DefaultDayBoundaryHour when boundary is out of range.
func NewClock(boundary int) Clock {
	if boundary < 0 || boundary > 23 {
		boundary = DefaultDayBoundaryHour
	}
	return Clock{DayBoundaryHour: boundary}
}

// ToMinutes parses "HH:MM", "HHhMM" or "HHh" into minutes from the start of
// the calendar day the festival day began on.
func (c Clock) ToMinutes(label string) (int, error) {
	raw := strings.TrimSpace(label)
	if raw == "" {
		return 0, &ParseError{Label: label, Reason: "empty"}
	}

	sep := strings.IndexAny(raw, ":hH")
	if sep <= 0 {
		return 0, &ParseError{Label: label, Reason: "missing separator"}
	}
	hourPart, minutePart := raw[:sep], raw[sep+1:]
	if minutePart == "" && raw[sep] != ':' {
		minutePart = "00"
	}
	if len(hourPart) > 2 || len(minutePart) != 2 || !digits(hourPart) || !digits(minutePart) {
		return 0, &ParseError{Label: label, Reason: "unexpected shape"}
	}

	hours, err := strconv.Atoi(hourPart)
	if err != nil || hours < 0 || hours > 23 {
		return 0, &ParseError{Label: label, Reason: "hour out of range"}
	}
	minutes, err := strconv.Atoi(minutePart)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, &ParseError{Label: label, Reason: "minute out of range"}
	}

	total := hours*60 + minutes
	if hours < c.DayBoundaryHour {
		total += MinutesPerDay
	}
	return total, nil
}

// digits reports whether s is non-empty and only ASCII digits.
func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Span normalizes an event's start and end labels. An end before the start is
// treated as occurring after a midnight rollover.
func (c Clock) Span(start, end string) (int, int, error) {
	s, err := c.ToMinutes(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := c.ToMinutes(end)
	if err != nil {
		return 0, 0, err
	}
	if e < s {
		e += MinutesPerDay
	}
	if e == s {
		return 0, 0, &ParseError{Label: end, Reason: "end equals start"}
	}
	return s, e, nil
}

// Duration returns the positive length in minutes between two labels.
func (c Clock) Duration(start, end string) (int, error) {
	s, e, err := c.Span(start, end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}

// Format renders minutes back into a label, reducing modulo one day.
func Format(minutes int, style Style) string {
	m := ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	sep := ":"
	if style == StyleH {
		sep = "h"
	}
	return fmt.Sprintf("%02d%s%02d", m/60, sep, m%60)
}
