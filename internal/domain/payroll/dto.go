package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type LineItemRequest struct {
	Name          string          `json:"name"`
	Type          string          `json:"type"` // "fixed" or "percent"
	Value         decimal.Decimal `json:"value"`
	Class         string          `json:"class,omitempty"` // "legal" or "special"; empty lets the classifier decide
	LegalCategory string          `json:"legal_category,omitempty"`
}

func (r LineItemRequest) ToLineItem() LineItem {
	return LineItem{
		Name:          r.Name,
		Type:          ItemType(r.Type),
		Value:         r.Value,
		Class:         DeductionClass(r.Class),
		LegalCategory: r.LegalCategory,
	}
}

func validateLineItems(field string, items []LineItemRequest, allowClass bool) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, item := range items {
		prefix := fmt.Sprintf("%s[%d]", field, i)
		if validator.IsEmpty(item.Name) {
			errs = append(errs, validator.ValidationError{Field: prefix + ".name", Message: "name is required"})
		}
		if !ItemType(item.Type).IsValid() {
			errs = append(errs, validator.ValidationError{Field: prefix + ".type", Message: "must be 'fixed' or 'percent'"})
		}
		if item.Value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: prefix + ".value", Message: "must not be negative"})
		}
		if item.Class != "" && (!allowClass || !DeductionClass(item.Class).IsValid()) {
			errs = append(errs, validator.ValidationError{Field: prefix + ".class", Message: "must be 'legal' or 'special' on deductions only"})
		}
	}
	return errs
}

func toLineItems(items []LineItemRequest) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToLineItem())
	}
	return out
}

// RunPayrollRequest starts a batch for every active employee.
type RunPayrollRequest struct {
	Period string `json:"period"`
}

func (r *RunPayrollRequest) Validate() (period.Period, error) {
	p, ok := validator.IsValidPeriod(r.Period)
	if !ok {
		return period.Period{}, validator.ValidationErrors{{Field: "period", Message: "must be formatted as YYYY-MM"}}
	}
	return p, nil
}

// PreviewRequest computes a statement without persisting it. Extra items are
// applied on top of the employee's recurring line items.
type PreviewRequest struct {
	EmployeeID string            `json:"employee_id"`
	Period     string            `json:"period"`
	Earnings   []LineItemRequest `json:"earnings,omitempty"`
	Deductions []LineItemRequest `json:"deductions,omitempty"`
}

func (r *PreviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if _, ok := validator.IsValidPeriod(r.Period); !ok {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be formatted as YYYY-MM"})
	}
	errs = append(errs, validateLineItems("earnings", r.Earnings, false)...)
	errs = append(errs, validateLineItems("deductions", r.Deductions, true)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *PreviewRequest) ExtraEarnings() []LineItem   { return toLineItems(r.Earnings) }
func (r *PreviewRequest) ExtraDeductions() []LineItem { return toLineItems(r.Deductions) }

// UpdateLineItemsRequest replaces both item lists of a pending record.
type UpdateLineItemsRequest struct {
	ID         string            `json:"-"`
	Earnings   []LineItemRequest `json:"earnings"`
	Deductions []LineItemRequest `json:"deductions"`
}

func (r *UpdateLineItemsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "id is required"})
	}
	errs = append(errs, validateLineItems("earnings", r.Earnings, false)...)
	errs = append(errs, validateLineItems("deductions", r.Deductions, true)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *UpdateLineItemsRequest) EarningItems() []LineItem   { return toLineItems(r.Earnings) }
func (r *UpdateLineItemsRequest) DeductionItems() []LineItem { return toLineItems(r.Deductions) }

type MarkPaidRequest struct {
	PayrollRecordIDs []string `json:"payroll_record_ids"`
}

func (r *MarkPaidRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.PayrollRecordIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "payroll_record_ids", Message: "at least one record ID is required"})
	}
	for i, id := range r.PayrollRecordIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("payroll_record_ids[%d]", i), Message: "must not be empty"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// AddEmployeeLineItemsRequest attaches recurring items to one employee.
type AddEmployeeLineItemsRequest struct {
	EmployeeID string            `json:"employee_id"`
	Earnings   []LineItemRequest `json:"earnings,omitempty"`
	Deductions []LineItemRequest `json:"deductions,omitempty"`
}

func (r *AddEmployeeLineItemsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if len(r.Earnings)+len(r.Deductions) == 0 {
		errs = append(errs, validator.ValidationError{Field: "items", Message: "at least one earning or deduction is required"})
	}
	errs = append(errs, validateLineItems("earnings", r.Earnings, false)...)
	errs = append(errs, validateLineItems("deductions", r.Deductions, true)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// RESPONSES
// ========================================

type StatementResponse struct {
	EmployeeID        string          `json:"employee_id"`
	Period            string          `json:"period"`
	BaseSalary        Money           `json:"base_salary"`
	HourlyRate        Money           `json:"hourly_rate"`
	WorkedHours       decimal.Decimal `json:"worked_hours"`
	WorkedDays        int             `json:"worked_days"`
	LeaveDays         int             `json:"leave_days"`
	UsedFallback      bool            `json:"used_fallback"`
	Earnings          []LineItem      `json:"earnings"`
	Deductions        []LineItem      `json:"deductions"`
	TotalEarnings     Money           `json:"total_earnings"`
	LegalDeductions   Money           `json:"legal_deductions"`
	SpecialDeductions Money           `json:"special_deductions"`
	TotalDeductions   Money           `json:"total_deductions"`
	HourlyPayment     Money           `json:"hourly_payment"`
	NetPay            Money           `json:"net_pay"`
}

type PayrollRecordResponse struct {
	ID                string          `json:"id"`
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      *string         `json:"employee_name,omitempty"`
	Period            string          `json:"period"`
	BaseSalary        Money           `json:"base_salary"`
	HourlyRate        Money           `json:"hourly_rate"`
	WorkedHours       decimal.Decimal `json:"worked_hours"`
	WorkedDays        int             `json:"worked_days"`
	LeaveDays         int             `json:"leave_days"`
	EarningsDetails   []LineItem      `json:"earnings_details"`
	DeductionsDetails []LineItem      `json:"deductions_details"`
	TotalEarnings     Money           `json:"total_earnings"`
	LegalDeductions   Money           `json:"legal_deductions"`
	SpecialDeductions Money           `json:"special_deductions"`
	TotalDeductions   Money           `json:"total_deductions"`
	HourlyPayment     Money           `json:"hourly_payment"`
	NetPay            Money           `json:"net_pay"`
	Status            string          `json:"status"`
	PaidAt            *string         `json:"paid_at,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

type ListPayrollRecordResponse struct {
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"total_pages"`
	Showing    string                  `json:"showing"`
	Records    []PayrollRecordResponse `json:"records"`
}

type PayrollSummaryResponse struct {
	Period                 string `json:"period"`
	TotalRecords           int    `json:"total_records"`
	PendingCount           int    `json:"pending_count"`
	PaidCount              int    `json:"paid_count"`
	TotalBaseSalary        Money  `json:"total_base_salary"`
	TotalEarnings          Money  `json:"total_earnings"`
	TotalLegalDeductions   Money  `json:"total_legal_deductions"`
	TotalSpecialDeductions Money  `json:"total_special_deductions"`
	TotalNetPay            Money  `json:"total_net_pay"`
}

type MarkPaidFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type MarkPaidResponse struct {
	Paid   []string          `json:"paid"`
	Failed []MarkPaidFailure `json:"failed"`
}

type ImportRowFailure struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportLineItemsResponse struct {
	Rows      int                `json:"rows"`
	Imported  int                `json:"imported"`
	Employees int                `json:"employees"`
	Failed    []ImportRowFailure `json:"failed"`
}

func NewStatementResponse(employeeID string, p period.Period, s Statement) StatementResponse {
	return StatementResponse{
		EmployeeID:        employeeID,
		Period:            p.String(),
		BaseSalary:        s.BaseSalary,
		HourlyRate:        s.HourlyRate,
		WorkedHours:       s.WorkedHours,
		WorkedDays:        s.WorkedDays,
		LeaveDays:         s.LeaveDays,
		UsedFallback:      s.UsedFallback,
		Earnings:          nonNil(s.Earnings),
		Deductions:        nonNil(s.Deductions),
		TotalEarnings:     s.TotalEarnings,
		LegalDeductions:   s.LegalDeductions,
		SpecialDeductions: s.SpecialDeductions,
		TotalDeductions:   s.TotalDeductions,
		HourlyPayment:     s.HourlyPayment,
		NetPay:            s.NetPay,
	}
}

func NewPayrollRecordResponse(r PayrollRecord) PayrollRecordResponse {
	resp := PayrollRecordResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		EmployeeName:      r.EmployeeName,
		Period:            r.Period.String(),
		BaseSalary:        r.BaseSalary,
		HourlyRate:        r.HourlyRate,
		WorkedHours:       r.WorkedHours,
		WorkedDays:        r.WorkedDays,
		LeaveDays:         r.LeaveDays,
		EarningsDetails:   nonNil(r.EarningsDetails),
		DeductionsDetails: nonNil(r.DeductionsDetails),
		TotalEarnings:     r.TotalEarnings,
		LegalDeductions:   r.LegalDeductions,
		SpecialDeductions: r.SpecialDeductions,
		TotalDeductions:   r.TotalDeductions,
		HourlyPayment:     r.HourlyPayment,
		NetPay:            r.NetPay,
		Status:            string(r.Status),
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
	if r.PaidAt != nil {
		paidAt := r.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

func NewPayrollSummaryResponse(s PayrollSummary) PayrollSummaryResponse {
	return PayrollSummaryResponse{
		Period:                 s.Period.String(),
		TotalRecords:           s.TotalRecords,
		PendingCount:           s.PendingCount,
		PaidCount:              s.PaidCount,
		TotalBaseSalary:        s.TotalBaseSalary,
		TotalEarnings:          s.TotalEarnings,
		TotalLegalDeductions:   s.TotalLegalDeductions,
		TotalSpecialDeductions: s.TotalSpecialDeductions,
		TotalNetPay:            s.TotalNetPay,
	}
}

func nonNil(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return items
}
