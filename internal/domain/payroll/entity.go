package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusPending PayrollStatus = "pending"
	PayrollStatusPaid    PayrollStatus = "paid"
)

func (s PayrollStatus) IsValid() bool {
	return s == PayrollStatusPending || s == PayrollStatusPaid
}

// AttendanceAggregate is the attendance and leave input for one employee and
// one period. HasAttendance is false when no attendance row exists, which
// switches the calculator to its full-time fallback.
type AttendanceAggregate struct {
	WorkedHours   decimal.Decimal
	WorkedDays    int
	LeaveDays     int
	HasAttendance bool
}

// CalculationInput is everything the calculator needs for one statement.
// HourlyRate is optional; when nil it is derived from BaseSalary.
type CalculationInput struct {
	EmployeeID string
	BaseSalary Money
	HourlyRate *Money
	Attendance *AttendanceAggregate
	Earnings   []LineItem
	Deductions []LineItem
}

// Statement is the computed payroll for one employee and period.
type Statement struct {
	BaseSalary        Money
	HourlyRate        Money
	WorkedHours       decimal.Decimal
	WorkedDays        int
	LeaveDays         int
	UsedFallback      bool
	Earnings          []LineItem
	Deductions        []LineItem
	TotalEarnings     Money
	LegalDeductions   Money
	SpecialDeductions Money
	TotalDeductions   Money
	HourlyPayment     Money
	NetPay            Money
}

// PayrollRecord - Persisted payroll result. (EmployeeID, Period) is unique.
type PayrollRecord struct {
	ID                string
	EmployeeID        string
	Period            period.Period
	BaseSalary        Money
	HourlyRate        Money
	WorkedHours       decimal.Decimal
	WorkedDays        int
	LeaveDays         int
	EarningsDetails   []LineItem
	DeductionsDetails []LineItem
	TotalEarnings     Money
	LegalDeductions   Money
	SpecialDeductions Money
	TotalDeductions   Money
	HourlyPayment     Money
	NetPay            Money
	Status            PayrollStatus
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Joined fields
	EmployeeName *string
}

// ApplyStatement copies every computed field of s onto the record.
func (r *PayrollRecord) ApplyStatement(s Statement) {
	r.BaseSalary = s.BaseSalary
	r.HourlyRate = s.HourlyRate
	r.WorkedHours = s.WorkedHours
	r.WorkedDays = s.WorkedDays
	r.LeaveDays = s.LeaveDays
	r.EarningsDetails = s.Earnings
	r.DeductionsDetails = s.Deductions
	r.TotalEarnings = s.TotalEarnings
	r.LegalDeductions = s.LegalDeductions
	r.SpecialDeductions = s.SpecialDeductions
	r.TotalDeductions = s.TotalDeductions
	r.HourlyPayment = s.HourlyPayment
	r.NetPay = s.NetPay
}

// Attendance returns the aggregate stored on the record, used when the record
// is recomputed after its line items change.
func (r PayrollRecord) Attendance() AttendanceAggregate {
	return AttendanceAggregate{
		WorkedHours:   r.WorkedHours,
		WorkedDays:    r.WorkedDays,
		LeaveDays:     r.LeaveDays,
		HasAttendance: true,
	}
}

// EmployeeFailure records why one employee was skipped in a run.
type EmployeeFailure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

// BatchResult reports the outcome of one payroll run.
type BatchResult struct {
	Period           period.Period     `json:"period"`
	Created          int               `json:"created"`
	AlreadyProcessed int               `json:"already_processed"`
	Failed           []EmployeeFailure `json:"failed"`
	Message          string            `json:"message"`
}

// PayrollFilter narrows record listings.
type PayrollFilter struct {
	Period     *period.Period
	EmployeeID *string
	Status     *PayrollStatus
	Page       int
	Limit      int
}

// PayrollSummary aggregates one period's records.
type PayrollSummary struct {
	Period                 period.Period
	TotalRecords           int
	PendingCount           int
	PaidCount              int
	TotalBaseSalary        Money
	TotalEarnings          Money
	TotalLegalDeductions   Money
	TotalSpecialDeductions Money
	TotalNetPay            Money
}
