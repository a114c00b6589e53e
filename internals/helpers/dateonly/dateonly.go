// file: internals/helpers/dateonly/dateonly.go
package dateonly

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Date is a calendar date with no time-of-day component. Internally it is
// pinned to midnight UTC so that comparisons and day arithmetic never cross
// a timezone boundary; it serializes as "YYYY-MM-DD" in JSON and maps to a
// Postgres `date` column.
type Date struct {
	t time.Time
}

func New(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the time-of-day of t (in t's own location).
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

func Today() Date {
	return FromTime(time.Now())
}

func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("dateonly: parse %q: %w", s, err)
	}
	return FromTime(t), nil
}

func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }
func (d Date) String() string    { return d.t.Format(layout) }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }

func (d Date) AddDays(n int) Date   { return FromTime(d.t.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return FromTime(d.t.AddDate(0, n, 0)) }
func (d Date) AddYears(n int) Date  { return FromTime(d.t.AddDate(n, 0, 0)) }

// DaysUntil returns the number of whole days from d to o (negative when o
// is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	// tolerate full timestamps from older clients
	if len(s) > len(layout) {
		s = s[:len(layout)]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.t, nil
}

func (d *Date) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = FromTime(x)
		return nil
	case string:
		parsed, err := Parse(x)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(x))
	default:
		return fmt.Errorf("dateonly: cannot scan %T", v)
	}
}

// GormDataType maps Date to a plain `date` column.
func (Date) GormDataType() string { return "date" }
