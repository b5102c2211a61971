package entities

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DateLayout is the calendar-date layout used on the wire and in storage.
const DateLayout = "2006-01-02"

// Date is a calendar date (YYYY-MM-DD) without a time of day.
type Date string

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate validates s against DateLayout.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return DateOf(t), nil
}

func (d Date) String() string { return string(d) }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == "" }

// Time returns midnight UTC of the date.
func (d Date) Time() (time.Time, error) {
	return time.Parse(DateLayout, string(d))
}

// Ptr returns a pointer to a copy of d.
func (d Date) Ptr() *Date { return &d }

// Scan implements sql.Scanner. DATE columns arrive as time.Time, TEXT columns as strings.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = DateOf(v)
	case string:
		*d = Date(v)
	case []byte:
		*d = Date(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}
