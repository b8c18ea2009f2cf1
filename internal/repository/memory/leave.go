package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
)

type leaveRequestRepositoryImpl struct {
	mu       sync.RWMutex
	requests map[string]leave.LeaveRequest
}

func NewLeaveRequestRepository() leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{requests: make(map[string]leave.LeaveRequest)}
}

func (r *leaveRequestRepositoryImpl) Create(_ context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests[req.ID] = req
	return req, nil
}

func (r *leaveRequestRepositoryImpl) GetByID(_ context.Context, id string) (leave.LeaveRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (r *leaveRequestRepositoryImpl) UpdateStatus(_ context.Context, id string, status leave.LeaveRequestStatus, decidedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	if req.Status != leave.LeaveRequestStatusPending {
		return leave.ErrLeaveRequestAlreadyProcessed
	}
	req.Status = status
	req.DecidedAt = &decidedAt
	req.UpdatedAt = decidedAt
	r.requests[id] = req
	return nil
}

func (r *leaveRequestRepositoryImpl) ListApprovedOverlapping(_ context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []leave.LeaveRequest
	for _, req := range r.requests {
		if req.EmployeeID != employeeID || req.Status != leave.LeaveRequestStatusApproved {
			continue
		}
		if !req.StartDate.After(to) && !req.EndDate.Before(from) {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}
