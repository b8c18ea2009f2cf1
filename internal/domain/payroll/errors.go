package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrPayrollRecordNotFound    = errors.New("payroll record not found")
	ErrPayrollRecordAlreadyPaid = errors.New("payroll record already paid, cannot modify")
	ErrNoActiveEmployees        = errors.New("no active employees to process")
	ErrInvalidLineItem          = errors.New("invalid line item")
	ErrInvalidImportFile        = errors.New("invalid line item import file")
	ErrStorage                  = errors.New("payroll storage failure")
)

// ComputationError is returned when a single employee's inputs cannot be
// turned into a statement. A batch run records it and moves on.
type ComputationError struct {
	EmployeeID string
	Reason     string
	Err        error
}

func (e *ComputationError) Error() string {
	msg := "payroll computation failed"
	if e.EmployeeID != "" {
		msg += " for employee " + e.EmployeeID
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
