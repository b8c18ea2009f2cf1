package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

type CreateLeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	LeaveType  string `json:"leave_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Days       *int   `json:"days,omitempty"`
	Reason     string `json:"reason"`
}

func (r *CreateLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.LeaveType) {
		errs = append(errs, validator.ValidationError{Field: "leave_type", Message: "leave_type is required"})
	}
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be formatted as YYYY-MM-DD"})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be formatted as YYYY-MM-DD"})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be on or after start_date"})
	}
	if r.Days != nil && *r.Days <= 0 {
		errs = append(errs, validator.ValidationError{Field: "days", Message: "must be greater than zero"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DecideLeaveRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

func (r *DecideLeaveRequest) Validate() error {
	s := LeaveRequestStatus(r.Status)
	if s != LeaveRequestStatusApproved && s != LeaveRequestStatusRejected {
		return validator.ValidationErrors{{Field: "status", Message: "must be 'approved' or 'rejected'"}}
	}
	return nil
}

type LeaveRequestResponse struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	LeaveType  string  `json:"leave_type"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	TotalDays  int     `json:"total_days"`
	Reason     string  `json:"reason"`
	Status     string  `json:"status"`
	DecidedAt  *string `json:"decided_at,omitempty"`
}

type PeriodLeaveResponse struct {
	LeaveRequestResponse
	OverlapDays int `json:"overlap_days"`
}

type ApprovedLeavesResponse struct {
	EmployeeID string                `json:"employee_id"`
	Period     string                `json:"period"`
	LeaveDays  int                   `json:"leave_days"`
	Leaves     []PeriodLeaveResponse `json:"leaves"`
}

func NewLeaveRequestResponse(l LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:         l.ID,
		EmployeeID: l.EmployeeID,
		LeaveType:  l.LeaveType,
		StartDate:  l.StartDate.Format(period.DateLayout),
		EndDate:    l.EndDate.Format(period.DateLayout),
		TotalDays:  l.TotalDays(),
		Reason:     l.Reason,
		Status:     string(l.Status),
	}
	if l.DecidedAt != nil {
		decided := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &decided
	}
	return resp
}

func NewApprovedLeavesResponse(employeeID string, p period.Period, leaves []PeriodLeave) ApprovedLeavesResponse {
	resp := ApprovedLeavesResponse{
		EmployeeID: employeeID,
		Period:     p.String(),
		Leaves:     make([]PeriodLeaveResponse, 0, len(leaves)),
	}
	for _, pl := range leaves {
		resp.LeaveDays += pl.OverlapDays
		resp.Leaves = append(resp.Leaves, PeriodLeaveResponse{
			LeaveRequestResponse: NewLeaveRequestResponse(pl.Leave),
			OverlapDays:          pl.OverlapDays,
		})
	}
	return resp
}
