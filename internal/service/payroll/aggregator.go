package payroll

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

type WorkedHoursReader interface {
	WorkedHoursForPeriod(ctx context.Context, employeeID string, p period.Period) (attendance.WorkedSummary, error)
}

type ApprovedLeaveReader interface {
	ApprovedLeavesForPeriod(ctx context.Context, employeeID string, p period.Period) ([]leave.PeriodLeave, error)
}

// Aggregator combines worked time and approved leave for one employee and period.
type Aggregator struct {
	attendance WorkedHoursReader
	leaves     ApprovedLeaveReader
}

func NewAggregator(attendance WorkedHoursReader, leaves ApprovedLeaveReader) *Aggregator {
	return &Aggregator{attendance: attendance, leaves: leaves}
}

func (a *Aggregator) Aggregate(ctx context.Context, employeeID string, p period.Period) (payroll.AttendanceAggregate, error) {
	worked, err := a.attendance.WorkedHoursForPeriod(ctx, employeeID, p)
	if err != nil {
		return payroll.AttendanceAggregate{}, fmt.Errorf("worked hours for %s: %w", employeeID, err)
	}

	leaves, err := a.leaves.ApprovedLeavesForPeriod(ctx, employeeID, p)
	if err != nil {
		return payroll.AttendanceAggregate{}, fmt.Errorf("approved leaves for %s: %w", employeeID, err)
	}

	leaveDays := 0
	for _, l := range leaves {
		leaveDays += l.OverlapDays
	}
	// Overlapping requests must not push leave past the length of the month.
	if leaveDays > p.Days() {
		leaveDays = p.Days()
	}

	return payroll.AttendanceAggregate{
		WorkedHours:   worked.WorkedHours,
		WorkedDays:    worked.WorkedDays,
		LeaveDays:     leaveDays,
		HasAttendance: worked.WorkedDays > 0,
	}, nil
}
