package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-day layout used for output and query parameters.
const DateLayout = "2006-01-02"

// dateLayouts are the layouts accepted when decoding dates from the backend.
// Fractional seconds are accepted by time.Parse after the seconds field even
// when the layout does not name them.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Date is a calendar day. Time of day and zone offset are dropped at parse
// time; the day written in the source string is kept as-is.
// The zero value represents an absent date and encodes as JSON null.
type Date struct {
	t   time.Time
	raw string
}

// NewDate returns the calendar day year-month-day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses s with any of the accepted layouts.
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d := NewDate(t.Year(), t.Month(), t.Day())
		d.raw = s
		return d, nil
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return d.t
}

// Month returns the calendar month of the day.
func (d Date) Month() time.Month {
	return d.t.Month()
}

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// After reports whether d is a later day than o.
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// Equal reports whether d and o are the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.t.Equal(o.t)
}

// String returns the text the date was decoded from, or YYYY-MM-DD for
// dates built in code. Absent dates render as the empty string.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	if d.raw != "" {
		return d.raw
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON encodes the date as its original text so updates round-trip
// the backend's own format.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a date string or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
