package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/google/uuid"
)

type LeaveServiceImpl struct {
	leave.LeaveRequestRepository
	employee.EmployeeRepository
	now func() time.Time
}

func NewLeaveService(leaveRepo leave.LeaveRequestRepository, employeeRepo employee.EmployeeRepository) leave.LeaveService {
	return &LeaveServiceImpl{
		LeaveRequestRepository: leaveRepo,
		EmployeeRepository:     employeeRepo,
		now:                    time.Now,
	}
}

// Create implements leave.LeaveService.
func (l *LeaveServiceImpl) Create(ctx context.Context, req leave.CreateLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if _, err := l.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	start, _ := period.ParseDate(req.StartDate)
	end, _ := period.ParseDate(req.EndDate)
	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to generate leave request id: %w", err)
	}
	nowUTC := l.now().UTC()

	created, err := l.LeaveRequestRepository.Create(ctx, leave.LeaveRequest{
		ID:         id.String(),
		EmployeeID: req.EmployeeID,
		LeaveType:  req.LeaveType,
		StartDate:  start,
		EndDate:    end,
		Days:       req.Days,
		Reason:     req.Reason,
		Status:     leave.LeaveRequestStatusPending,
		CreatedAt:  nowUTC,
		UpdatedAt:  nowUTC,
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return leave.NewLeaveRequestResponse(created), nil
}

// Decide records the manager's approval or rejection of a pending request.
func (l *LeaveServiceImpl) Decide(ctx context.Context, req leave.DecideLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	if err := l.LeaveRequestRepository.UpdateStatus(ctx, req.ID, leave.LeaveRequestStatus(req.Status), l.now().UTC()); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	updated, err := l.LeaveRequestRepository.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return leave.NewLeaveRequestResponse(updated), nil
}

// ApprovedLeavesForPeriod implements leave.LeaveService.
func (l *LeaveServiceImpl) ApprovedLeavesForPeriod(ctx context.Context, employeeID string, p period.Period) ([]leave.PeriodLeave, error) {
	requests, err := l.LeaveRequestRepository.ListApprovedOverlapping(ctx, employeeID, p.Start(), p.End())
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leaves: %w", err)
	}

	result := make([]leave.PeriodLeave, 0, len(requests))
	for _, r := range requests {
		if r.Status != leave.LeaveRequestStatusApproved {
			continue
		}
		days := p.OverlapDays(r.StartDate, r.EndDate)
		if days == 0 {
			continue
		}
		result = append(result, leave.PeriodLeave{Leave: r, OverlapDays: days})
	}
	return result, nil
}
