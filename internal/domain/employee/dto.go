package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateEmployeeRequest struct {
	EmployeeCode string           `json:"employee_code"`
	FullName     string           `json:"full_name"`
	AnnualSalary decimal.Decimal  `json:"annual_salary"`
	HourlyRate   *decimal.Decimal `json:"hourly_rate,omitempty"`
	HireDate     string           `json:"hire_date"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{Field: "employee_code", Message: "employee_code is required"})
	}
	if validator.IsEmpty(r.FullName) {
		errs = append(errs, validator.ValidationError{Field: "full_name", Message: "full_name is required"})
	}
	if r.AnnualSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "annual_salary", Message: "must not be negative"})
	}
	if r.HourlyRate != nil && !r.HourlyRate.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "hourly_rate", Message: "must be greater than zero"})
	}
	if _, ok := validator.IsValidDate(r.HireDate); !ok {
		errs = append(errs, validator.ValidationError{Field: "hire_date", Message: "must be formatted as YYYY-MM-DD"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateStatusRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	if !EmploymentStatus(r.Status).IsValid() {
		return validator.ValidationErrors{{Field: "status", Message: "must be one of active, resigned, terminated"}}
	}
	return nil
}

type EmployeeResponse struct {
	ID               string           `json:"id"`
	EmployeeCode     string           `json:"employee_code"`
	FullName         string           `json:"full_name"`
	EmploymentStatus string           `json:"employment_status"`
	AnnualSalary     decimal.Decimal  `json:"annual_salary"`
	HourlyRate       *decimal.Decimal `json:"hourly_rate,omitempty"`
	HireDate         string           `json:"hire_date"`
	CreatedAt        string           `json:"created_at"`
}

func NewEmployeeResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:               e.ID,
		EmployeeCode:     e.EmployeeCode,
		FullName:         e.FullName,
		EmploymentStatus: string(e.EmploymentStatus),
		AnnualSalary:     e.AnnualSalary,
		HourlyRate:       e.HourlyRate,
		HireDate:         e.HireDate.Format("2006-01-02"),
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
}
