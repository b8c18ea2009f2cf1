package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending  LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected LeaveRequestStatus = "rejected"
)

func (s LeaveRequestStatus) IsValid() bool {
	switch s {
	case LeaveRequestStatusPending, LeaveRequestStatusApproved, LeaveRequestStatusRejected:
		return true
	}
	return false
}

// LeaveRequest entity. StartDate and EndDate are inclusive calendar dates.
type LeaveRequest struct {
	ID         string
	EmployeeID string
	LeaveType  string
	StartDate  time.Time
	EndDate    time.Time
	// Days is an optional precomputed span supplied by the leave registry.
	Days      *int
	Reason    string
	Status    LeaveRequestStatus
	DecidedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalDays is the full span of the request regardless of any period.
func (l LeaveRequest) TotalDays() int {
	if l.Days != nil {
		return *l.Days
	}
	return period.DaysBetween(l.StartDate, l.EndDate) + 1
}

// PeriodLeave is an approved leave together with the days it contributes to
// one period after clipping.
type PeriodLeave struct {
	Leave       LeaveRequest
	OverlapDays int
}
