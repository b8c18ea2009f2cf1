package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type ClockInRequest struct {
	EmployeeID string    `json:"employee_id"`
	At         time.Time `json:"-"`
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if r.At.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "at",
			Message: "clock-in time is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ClockOutRequest struct {
	EmployeeID string    `json:"employee_id"`
	At         time.Time `json:"-"`
}

func (r *ClockOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if r.At.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "at",
			Message: "clock-out time is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// PeriodQuery selects one employee's attendance in one period.
type PeriodQuery struct {
	EmployeeID string
	Period     string
}

func (q *PeriodQuery) Validate() (period.Period, error) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(q.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	p, ok := validator.IsValidPeriod(q.Period)
	if !ok {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be formatted as YYYY-MM"})
	}

	if len(errs) > 0 {
		return period.Period{}, errs
	}
	return p, nil
}

type AttendanceResponse struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	WorkDate    string          `json:"work_date"`
	ClockIn     string          `json:"clock_in"`
	ClockOut    *string         `json:"clock_out"`
	WorkedHours decimal.Decimal `json:"worked_hours"`
	AutoClosed  bool            `json:"auto_closed"`
}

type ListAttendanceResponse struct {
	Period      string               `json:"period"`
	Attendances []AttendanceResponse `json:"attendances"`
}

type WorkedSummaryResponse struct {
	EmployeeID  string          `json:"employee_id"`
	Period      string          `json:"period"`
	WorkedHours decimal.Decimal `json:"worked_hours"`
	WorkedDays  int             `json:"worked_days"`
	Records     int             `json:"records"`
}

func NewAttendanceResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:          a.ID,
		EmployeeID:  a.EmployeeID,
		WorkDate:    a.WorkDate.Format(period.DateLayout),
		ClockIn:     a.ClockIn.Format(time.RFC3339),
		WorkedHours: a.WorkedHours,
		AutoClosed:  a.AutoClosed,
	}
	if a.ClockOut != nil {
		out := a.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &out
	}
	return resp
}

func NewWorkedSummaryResponse(s WorkedSummary) WorkedSummaryResponse {
	return WorkedSummaryResponse{
		EmployeeID:  s.EmployeeID,
		Period:      s.Period.String(),
		WorkedHours: s.WorkedHours,
		WorkedDays:  s.WorkedDays,
		Records:     s.Records,
	}
}
