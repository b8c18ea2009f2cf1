package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)

	// UpdateStatus moves a pending request to approved or rejected.
	// Returns ErrLeaveRequestAlreadyProcessed when the request is no longer pending.
	UpdateStatus(ctx context.Context, id string, status LeaveRequestStatus, decidedAt time.Time) error

	// ListApprovedOverlapping returns approved requests with start_date <= to AND end_date >= from.
	ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveRequest, error)
}
