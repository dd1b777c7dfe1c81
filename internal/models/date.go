package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/schema"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// storedLayouts are the text forms sqlite drivers may hand back for a datetime column
var storedLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	DateLayout,
}

// Date is a timestamp that travels over JSON as YYYY-MM-DD. The column keeps
// the full time so range filters and ordering are unaffected.
type Date struct {
	time.Time
}

// NewDate wraps t
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// NewDatePtr wraps t and returns a pointer, for nullable columns
func NewDatePtr(t time.Time) *Date {
	d := NewDate(t)
	return &d
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON renders the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts "YYYY-MM-DD" or an RFC 3339 timestamp
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return fmt.Errorf("invalid date %q", s)
		}
	}
	d.Time = t
	return nil
}

// GormDataType stores Date in the dialect's timestamp column type
func (Date) GormDataType() string {
	return string(schema.Time)
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements sql.Scanner
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = v
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range storedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as Date", s)
}
