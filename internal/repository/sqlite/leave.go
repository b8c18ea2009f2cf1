package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
)

type leaveRequestRepositoryImpl struct {
	db *DB
}

func NewLeaveRequestRepository(db *DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveColumns = `id, employee_id, leave_type, start_date, end_date, days, reason, status, decided_at, created_at, updated_at`

func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	var days sql.NullInt64
	if req.Days != nil {
		days = sql.NullInt64{Int64: int64(*req.Days), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leave_requests (`+leaveColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeID, req.LeaveType, formatDate(req.StartDate), formatDate(req.EndDate), days,
		req.Reason, string(req.Status), formatNullTime(req.DecidedAt), formatTime(req.CreatedAt), formatTime(req.UpdatedAt),
	)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return req, nil
}

func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = ?`, id)
	req, err := scanLeaveRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return req, nil
}

func (r *leaveRequestRepositoryImpl) UpdateStatus(ctx context.Context, id string, status leave.LeaveRequestStatus, decidedAt time.Time) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM leave_requests WHERE id = ?`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return leave.ErrLeaveRequestNotFound
			}
			return fmt.Errorf("failed to get leave request: %w", err)
		}
		if leave.LeaveRequestStatus(current) != leave.LeaveRequestStatusPending {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE leave_requests SET status = ?, decided_at = ?, updated_at = ?
			WHERE id = ?`,
			string(status), formatTime(decidedAt), formatTime(decidedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update leave request status: %w", err)
		}
		return nil
	})
}

func (r *leaveRequestRepositoryImpl) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leaveColumns+` FROM leave_requests
		WHERE employee_id = ? AND status = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		employeeID, string(leave.LeaveRequestStatusApproved), formatDate(to), formatDate(from))
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave requests: %w", err)
	}
	defer rows.Close()

	var result []leave.LeaveRequest
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func scanLeaveRequest(row rowScanner) (leave.LeaveRequest, error) {
	var (
		req                  leave.LeaveRequest
		start, end, status   string
		days                 sql.NullInt64
		decidedAt            sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&req.ID, &req.EmployeeID, &req.LeaveType, &start, &end, &days, &req.Reason, &status, &decidedAt, &createdAt, &updatedAt); err != nil {
		return leave.LeaveRequest{}, err
	}

	var err error
	req.Status = leave.LeaveRequestStatus(status)
	if days.Valid {
		d := int(days.Int64)
		req.Days = &d
	}
	if req.StartDate, err = parseDate(start); err != nil {
		return leave.LeaveRequest{}, err
	}
	if req.EndDate, err = parseDate(end); err != nil {
		return leave.LeaveRequest{}, err
	}
	if req.DecidedAt, err = parseNullTime(decidedAt); err != nil {
		return leave.LeaveRequest{}, err
	}
	if req.CreatedAt, err = parseTime(createdAt); err != nil {
		return leave.LeaveRequest{}, err
	}
	if req.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return leave.LeaveRequest{}, err
	}
	return req, nil
}
