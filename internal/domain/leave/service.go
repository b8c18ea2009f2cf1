package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

type LeaveService interface {
	// Create registers a pending leave request. Decisions are made by the external manager flow.
	Create(ctx context.Context, req CreateLeaveRequest) (LeaveRequestResponse, error)
	Decide(ctx context.Context, req DecideLeaveRequest) (LeaveRequestResponse, error)

	// ApprovedLeavesForPeriod returns approved leaves intersecting the period with clipped day counts
	ApprovedLeavesForPeriod(ctx context.Context, employeeID string, p period.Period) ([]PeriodLeave, error)
}
