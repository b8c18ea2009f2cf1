package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the slice of the employee directory the payroll engine reads.
type Employee struct {
	ID               string
	EmployeeCode     string
	FullName         string
	EmploymentStatus EmploymentStatus
	AnnualSalary     decimal.Decimal
	// HourlyRate overrides the rate derived from salary when set.
	HourlyRate *decimal.Decimal
	HireDate   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (s EmploymentStatus) IsValid() bool {
	switch s {
	case EmploymentStatusActive, EmploymentStatusResigned, EmploymentStatusTerminated:
		return true
	}
	return false
}

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
