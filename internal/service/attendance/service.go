package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	location *time.Location
	maxShift time.Duration
	now      func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	location *time.Location,
	maxShift time.Duration,
) attendance.AttendanceService {
	if location == nil {
		location = time.UTC
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		location:             location,
		maxShift:             maxShift,
		now:                  time.Now,
	}
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := a.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !emp.IsActive() {
		return attendance.AttendanceResponse{}, employee.ErrEmployeeNotActive
	}

	workDate := period.DateIn(req.At, a.location)

	// Storage rejects a second open session on the same date; this check also
	// covers a shift that started yesterday and is still within the maximum shift.
	open, err := a.AttendanceRepository.GetOpenSession(ctx, req.EmployeeID)
	switch {
	case err == nil:
		if open.WorkDate.Equal(workDate) || req.At.Sub(open.ClockIn) < a.maxShift {
			return attendance.AttendanceResponse{}, attendance.ErrAlreadyOpen
		}
	case errors.Is(err, attendance.ErrNoOpenSession):
	default:
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check open session: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	nowUTC := a.now().UTC()

	created, err := a.AttendanceRepository.Create(ctx, attendance.Attendance{
		ID:          id.String(),
		EmployeeID:  req.EmployeeID,
		WorkDate:    workDate,
		ClockIn:     req.At.UTC(),
		WorkedHours: decimal.Zero,
		CreatedAt:   nowUTC,
		UpdatedAt:   nowUTC,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.NewAttendanceResponse(created), nil
}

// ClockOut closes the most recent open session regardless of its date, so a
// shift crossing midnight stays on its clock-in date.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	open, err := a.AttendanceRepository.GetOpenSession(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if req.At.Before(open.ClockIn) {
		return attendance.AttendanceResponse{}, attendance.ErrClockOutBeforeIn
	}

	clockOut := req.At.UTC()
	open.ClockOut = &clockOut
	open.WorkedHours = attendance.HoursBetween(open.ClockIn, clockOut)
	open.UpdatedAt = a.now().UTC()

	closed, err := a.AttendanceRepository.Close(ctx, open)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return attendance.NewAttendanceResponse(closed), nil
}

// CloseStaleSessions closes sessions open longer than the maximum shift with
// zero hours so they never count as worked days.
func (a *AttendanceServiceImpl) CloseStaleSessions(ctx context.Context, now time.Time) (int, error) {
	stale, err := a.AttendanceRepository.ListOpenBefore(ctx, now.Add(-a.maxShift))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	closedCount := 0
	for _, session := range stale {
		clockOut := session.ClockIn.Add(a.maxShift).UTC()
		session.ClockOut = &clockOut
		session.WorkedHours = decimal.Zero
		session.AutoClosed = true
		session.UpdatedAt = now.UTC()

		if _, err := a.AttendanceRepository.Close(ctx, session); err != nil {
			if errors.Is(err, attendance.ErrNoOpenSession) {
				continue
			}
			return closedCount, fmt.Errorf("failed to close session %s: %w", session.ID, err)
		}
		slog.Info("Attendance session auto-closed",
			"attendance_id", session.ID,
			"employee_id", session.EmployeeID,
			"work_date", session.WorkDate.Format(period.DateLayout))
		closedCount++
	}

	return closedCount, nil
}

func (a *AttendanceServiceImpl) WorkedHoursForPeriod(ctx context.Context, employeeID string, p period.Period) (attendance.WorkedSummary, error) {
	records, err := a.AttendanceRepository.ListByEmployeeBetween(ctx, employeeID, p.Start(), p.End())
	if err != nil {
		return attendance.WorkedSummary{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	summary := attendance.WorkedSummary{
		EmployeeID:  employeeID,
		Period:      p,
		WorkedHours: decimal.Zero,
		Records:     len(records),
	}
	days := make(map[time.Time]struct{})
	for _, r := range records {
		if r.IsOpen() || !r.WorkedHours.IsPositive() || !p.Contains(r.WorkDate) {
			continue
		}
		summary.WorkedHours = summary.WorkedHours.Add(r.WorkedHours)
		days[period.Date(r.WorkDate)] = struct{}{}
	}
	summary.WorkedDays = len(days)

	return summary, nil
}

func (a *AttendanceServiceImpl) ListForPeriod(ctx context.Context, employeeID string, p period.Period) (attendance.ListAttendanceResponse, error) {
	records, err := a.AttendanceRepository.ListByEmployeeBetween(ctx, employeeID, p.Start(), p.End())
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	resp := attendance.ListAttendanceResponse{
		Period:      p.String(),
		Attendances: make([]attendance.AttendanceResponse, 0, len(records)),
	}
	for _, r := range records {
		resp.Attendances = append(resp.Attendances, attendance.NewAttendanceResponse(r))
	}
	return resp, nil
}
