package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

type attendanceRepositoryImpl struct {
	db *DB
}

func NewAttendanceRepository(db *DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const attendanceColumns = `id, employee_id, work_date, clock_in, clock_out, worked_hours, auto_closed, created_at, updated_at`

func (r *attendanceRepositoryImpl) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendances (`+attendanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID, formatDate(a.WorkDate), formatTime(a.ClockIn), formatNullTime(a.ClockOut),
		a.WorkedHours.String(), a.AutoClosed, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyOpen
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return a, nil
}

func (r *attendanceRepositoryImpl) GetOpenSession(ctx context.Context, employeeID string) (attendance.Attendance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+attendanceColumns+` FROM attendances
		WHERE employee_id = ? AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1`, employeeID)

	a, err := scanAttendance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrNoOpenSession
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get open session: %w", err)
	}
	return a, nil
}

func (r *attendanceRepositoryImpl) Close(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendances
		SET clock_out = ?, worked_hours = ?, auto_closed = ?, updated_at = ?
		WHERE id = ? AND clock_out IS NULL`,
		formatNullTime(a.ClockOut), a.WorkedHours.String(), a.AutoClosed, formatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to close attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to close attendance: %w", err)
	}
	if n == 0 {
		return attendance.Attendance{}, attendance.ErrNoOpenSession
	}
	return a, nil
}

func (r *attendanceRepositoryImpl) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	return r.list(ctx, `
		SELECT `+attendanceColumns+` FROM attendances
		WHERE employee_id = ? AND work_date BETWEEN ? AND ?
		ORDER BY work_date, clock_in`,
		employeeID, formatDate(from), formatDate(to))
}

func (r *attendanceRepositoryImpl) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]attendance.Attendance, error) {
	return r.list(ctx, `
		SELECT `+attendanceColumns+` FROM attendances
		WHERE clock_out IS NULL AND clock_in < ?
		ORDER BY clock_in`,
		formatTime(cutoff))
}

func (r *attendanceRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]attendance.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var result []attendance.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanAttendance(row rowScanner) (attendance.Attendance, error) {
	var (
		a                    attendance.Attendance
		workDate, clockIn    string
		clockOut             sql.NullString
		hours                string
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.EmployeeID, &workDate, &clockIn, &clockOut, &hours, &a.AutoClosed, &createdAt, &updatedAt); err != nil {
		return attendance.Attendance{}, err
	}

	var err error
	if a.WorkDate, err = parseDate(workDate); err != nil {
		return attendance.Attendance{}, err
	}
	if a.ClockIn, err = parseTime(clockIn); err != nil {
		return attendance.Attendance{}, err
	}
	if a.ClockOut, err = parseNullTime(clockOut); err != nil {
		return attendance.Attendance{}, err
	}
	if a.WorkedHours, err = decimal.NewFromString(hours); err != nil {
		return attendance.Attendance{}, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return attendance.Attendance{}, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return attendance.Attendance{}, err
	}
	return a, nil
}
