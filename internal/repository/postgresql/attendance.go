package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const attendanceColumns = `id, employee_id, work_date, clock_in, clock_out, worked_hours, auto_closed, created_at, updated_at`

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (` + attendanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.Exec(ctx, query,
		newAttendance.ID, newAttendance.EmployeeID, newAttendance.WorkDate, newAttendance.ClockIn,
		newAttendance.ClockOut, newAttendance.WorkedHours, newAttendance.AutoClosed,
		newAttendance.CreatedAt, newAttendance.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyOpen
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetOpenSession implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) GetOpenSession(ctx context.Context, employeeID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrNoOpenSession
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get open session: %w", err)
	}

	return att, nil
}

// Close implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) Close(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET clock_out = $2, worked_hours = $3, auto_closed = $4, updated_at = $5
		WHERE id = $1 AND clock_out IS NULL
	`
	tag, err := q.Exec(ctx, query, att.ID, att.ClockOut, att.WorkedHours, att.AutoClosed, att.UpdatedAt)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to close attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.Attendance{}, attendance.ErrNoOpenSession
	}

	return att, nil
}

func (a *attendanceRepositoryImpl) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND work_date BETWEEN $2 AND $3
		ORDER BY work_date, clock_in
	`
	return a.list(ctx, query, employeeID, from, to)
}

func (a *attendanceRepositoryImpl) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE clock_out IS NULL
		  AND clock_in < $1
		ORDER BY clock_in
	`
	return a.list(ctx, query, cutoff)
}

func (a *attendanceRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var attendances []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	return attendances, rows.Err()
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.WorkDate, &att.ClockIn, &att.ClockOut,
		&att.WorkedHours, &att.AutoClosed, &att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}
