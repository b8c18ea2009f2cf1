package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

// PayrollRepository defines data access methods for payroll records.
type PayrollRepository interface {
	// ProcessedEmployeeIDs returns the employees that already have a record for the period.
	ProcessedEmployeeIDs(ctx context.Context, p period.Period) (map[string]struct{}, error)

	// InsertBatch writes all records atomically. A record whose (employee, period)
	// already exists is not written and is reported in skipped instead.
	// Any other failure leaves the store unchanged.
	InsertBatch(ctx context.Context, records []PayrollRecord) (inserted int, skipped []string, err error)

	GetByID(ctx context.Context, id string) (PayrollRecord, error)
	List(ctx context.Context, filter PayrollFilter) ([]PayrollRecord, int64, error)

	// UpdateComputed overwrites the line items and computed totals of a pending record.
	UpdateComputed(ctx context.Context, record PayrollRecord) error

	// MarkPaid moves one pending record to paid.
	// Returns ErrPayrollRecordAlreadyPaid if it is already paid.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error

	Summary(ctx context.Context, p period.Period) (PayrollSummary, error)
}

// LineItemRepository stores the recurring earnings and deductions of employees.
type LineItemRepository interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]EmployeeLineItem, error)
	Create(ctx context.Context, items []EmployeeLineItem) error
}
