package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
)

type attendanceRepositoryImpl struct {
	mu      sync.RWMutex
	records map[string]attendance.Attendance
}

func NewAttendanceRepository() attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{records: make(map[string]attendance.Attendance)}
}

// Create enforces one open session per (employee_id, work_date).
func (r *attendanceRepositoryImpl) Create(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.EmployeeID == a.EmployeeID && existing.IsOpen() && existing.WorkDate.Equal(a.WorkDate) {
			return attendance.Attendance{}, attendance.ErrAlreadyOpen
		}
	}
	r.records[a.ID] = a
	return a, nil
}

func (r *attendanceRepositoryImpl) GetOpenSession(_ context.Context, employeeID string) (attendance.Attendance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		latest attendance.Attendance
		found  bool
	)
	for _, a := range r.records {
		if a.EmployeeID != employeeID || !a.IsOpen() {
			continue
		}
		if !found || a.ClockIn.After(latest.ClockIn) {
			latest, found = a, true
		}
	}
	if !found {
		return attendance.Attendance{}, attendance.ErrNoOpenSession
	}
	return latest, nil
}

func (r *attendanceRepositoryImpl) Close(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[a.ID]
	if !ok || !existing.IsOpen() {
		return attendance.Attendance{}, attendance.ErrNoOpenSession
	}
	existing.ClockOut = a.ClockOut
	existing.WorkedHours = a.WorkedHours
	existing.AutoClosed = a.AutoClosed
	existing.UpdatedAt = a.UpdatedAt
	r.records[a.ID] = existing
	return existing, nil
}

func (r *attendanceRepositoryImpl) ListByEmployeeBetween(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []attendance.Attendance
	for _, a := range r.records {
		if a.EmployeeID == employeeID && !a.WorkDate.Before(from) && !a.WorkDate.After(to) {
			result = append(result, a)
		}
	}
	sortByClockIn(result)
	return result, nil
}

func (r *attendanceRepositoryImpl) ListOpenBefore(_ context.Context, cutoff time.Time) ([]attendance.Attendance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []attendance.Attendance
	for _, a := range r.records {
		if a.IsOpen() && a.ClockIn.Before(cutoff) {
			result = append(result, a)
		}
	}
	sortByClockIn(result)
	return result, nil
}

func sortByClockIn(records []attendance.Attendance) {
	sort.Slice(records, func(i, j int) bool { return records[i].ClockIn.Before(records[j].ClockIn) })
}
