package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// ClockIn opens a session for the employee
	ClockIn(ctx context.Context, req ClockInRequest) (AttendanceResponse, error)

	// ClockOut closes the employee's most recent open session
	ClockOut(ctx context.Context, req ClockOutRequest) (AttendanceResponse, error)

	// CloseStaleSessions closes sessions left open longer than the maximum shift
	CloseStaleSessions(ctx context.Context, now time.Time) (int, error)

	// WorkedHoursForPeriod sums closed sessions with positive hours in the period
	WorkedHoursForPeriod(ctx context.Context, employeeID string, p period.Period) (WorkedSummary, error)

	ListForPeriod(ctx context.Context, employeeID string, p period.Period) (ListAttendanceResponse, error)
}
