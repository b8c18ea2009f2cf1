package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Storage enforces at most one open session per (employee_id, work_date).
type AttendanceRepository interface {
	// Create inserts an open session. Returns ErrAlreadyOpen on a uniqueness conflict.
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetOpenSession returns the most recent open session of the employee regardless of date.
	GetOpenSession(ctx context.Context, employeeID string) (Attendance, error)

	// Close sets clock-out fields on a session that is still open.
	// Returns ErrNoOpenSession if another caller closed it first.
	Close(ctx context.Context, attendance Attendance) (Attendance, error)

	// ListByEmployeeBetween returns sessions with work_date in [from, to], oldest first.
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)

	// ListOpenBefore returns open sessions that clocked in before the cutoff.
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]Attendance, error)
}
