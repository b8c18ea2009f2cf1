package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

// Attendance is one clock-in/clock-out session. WorkDate is the calendar date
// of the clock-in in the company timezone, stored as midnight UTC.
type Attendance struct {
	ID          string
	EmployeeID  string
	WorkDate    time.Time
	ClockIn     time.Time
	ClockOut    *time.Time
	WorkedHours decimal.Decimal
	AutoClosed  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a Attendance) IsOpen() bool {
	return a.ClockOut == nil
}

// WorkedSummary is the worked time of one employee in one period.
type WorkedSummary struct {
	EmployeeID  string
	Period      period.Period
	WorkedHours decimal.Decimal
	WorkedDays  int
	Records     int
}

// HoursBetween returns the elapsed hours from in to out rounded to 2 places.
func HoursBetween(in, out time.Time) decimal.Decimal {
	seconds := decimal.NewFromInt(int64(out.Sub(in) / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).Round(2)
}
