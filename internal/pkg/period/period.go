package period

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Layout is the wire format of a payroll period.
const Layout = "2006-01"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var ErrInvalidPeriod = errors.New("period must be formatted as YYYY-MM")

// Period is a calendar month. It is used both as a query filter and as part
// of the payroll uniqueness key, so its zero value is not a valid period.
type Period struct {
	Year  int
	Month time.Month
}

// Parse reads a YYYY-MM string.
func Parse(s string) (Period, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Period {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Of returns the period a calendar date falls into.
func Of(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start is the first calendar day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last calendar day of the period (inclusive).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// Days is the number of calendar days in the period.
func (p Period) Days() int {
	return p.End().Day()
}

// Previous returns the month before p.
func (p Period) Previous() Period {
	return Of(p.Start().AddDate(0, -1, 0))
}

func (p Period) Next() Period {
	return Of(p.Start().AddDate(0, 1, 0))
}

// Contains reports whether the calendar date of t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Overlaps is the inclusive interval test start <= period_end AND end >= period_start.
func (p Period) Overlaps(start, end time.Time) bool {
	return !Date(start).After(p.End()) && !Date(end).Before(p.Start())
}

// OverlapDays counts the calendar days of [start, end] that fall inside the
// period. Intervals spanning a period boundary are clipped to the intersection.
func (p Period) OverlapDays(start, end time.Time) int {
	if !p.Overlaps(start, end) {
		return 0
	}
	from := Date(start)
	if from.Before(p.Start()) {
		from = p.Start()
	}
	to := Date(end)
	if to.After(p.End()) {
		to = p.End()
	}
	return DaysBetween(from, to) + 1
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, string(data))
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Date strips the clock from t, keeping t's own calendar date, and returns it
// as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn returns the calendar date of instant t as observed in loc.
func DateIn(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Date(t.In(loc))
}

// DaysBetween returns the whole days from a to b, both taken as dates.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// ParseDate reads a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
