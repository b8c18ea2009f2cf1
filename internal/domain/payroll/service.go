package payroll

import (
	"context"
	"io"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

// PayrollService defines business logic for payroll runs and records
type PayrollService interface {
	// RunForPeriod generates records for every active employee that has none yet
	RunForPeriod(ctx context.Context, req RunPayrollRequest) (BatchResult, error)

	// Preview computes a statement for one employee without persisting it
	Preview(ctx context.Context, req PreviewRequest) (StatementResponse, error)

	GetRecord(ctx context.Context, id string) (PayrollRecordResponse, error)
	ListRecords(ctx context.Context, filter PayrollFilter) (ListPayrollRecordResponse, error)

	// UpdateLineItems replaces the items of a pending record and recomputes its totals
	UpdateLineItems(ctx context.Context, req UpdateLineItemsRequest) (PayrollRecordResponse, error)

	// MarkPaid settles each record independently and reports per-record outcomes
	MarkPaid(ctx context.Context, req MarkPaidRequest) (MarkPaidResponse, error)

	Summary(ctx context.Context, p period.Period) (PayrollSummaryResponse, error)

	// Recurring line items
	AddEmployeeLineItems(ctx context.Context, req AddEmployeeLineItemsRequest) error
	ImportLineItems(ctx context.Context, filename string, r io.Reader) (ImportLineItemsResponse, error)
}
