// Package codec converts between the wire representation of temporal fields
// and time.Time. Dates are ISO (yyyy-MM-dd) at rest and on screen; audit
// timestamps are RFC3339.
package codec

import (
	"time"

	recordkit "github.com/emberwatch/recordkit"
)

// DisplayDate is the fixed format editable date widgets bind to.
const DisplayDate = "2006-01-02"

// DateCodec converts between ISO date strings and time.Time.
type DateCodec struct{}

// DateISO returns the codec for calendar-date fields.
func DateISO() DateCodec { return DateCodec{} }

// Decode parses a date string. It accepts the canonical yyyy-MM-dd form and,
// because some backends return full timestamps for date columns, any RFC3339
// instant, which is truncated to its calendar date.
func (DateCodec) Decode(s string) (time.Time, error) {
	if t, err := time.Parse(DisplayDate, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, recordkit.Issues{{Path: "", Code: recordkit.CodeInvalidFormat, Message: "invalid date", Hint: "expected yyyy-MM-dd"}}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// Encode renders the canonical yyyy-MM-dd form.
func (DateCodec) Encode(t time.Time) string { return t.Format(DisplayDate) }

// Normalize round-trips a raw date string into its canonical form.
func (c DateCodec) Normalize(s string) (string, error) {
	t, err := c.Decode(s)
	if err != nil {
		return "", err
	}
	return c.Encode(t), nil
}

// TimeCodec converts between RFC3339 strings and time.Time. Audit
// attributes (createdAt, updatedAt) use it read-only.
type TimeCodec struct{}

// TimeRFC3339 returns the codec for instant fields.
func TimeRFC3339() TimeCodec { return TimeCodec{} }

// Decode accepts RFC3339 with or without fractional seconds.
func (TimeCodec) Decode(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, recordkit.Issues{{Path: "", Code: recordkit.CodeInvalidFormat, Message: "invalid RFC3339 time"}}
	}
	return t, nil
}

// Encode normalizes to UTC and formats using RFC3339Nano (Go trims trailing
// zeros).
func (TimeCodec) Encode(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }
