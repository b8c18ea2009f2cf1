package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	CreateRequest(w http.ResponseWriter, r *http.Request)
	DecideRequest(w http.ResponseWriter, r *http.Request)
	ListApproved(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	leaveService leave.LeaveService
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &leaveHandlerImpl{leaveService: leaveService}
}

// CreateRequest files a pending leave request. Employees file for themselves;
// admins may name any employee.
func (h *leaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req leave.CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateLeaveRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if req.EmployeeID == "" {
		req.EmployeeID = claims.EmployeeID
	}
	if req.EmployeeID != claims.EmployeeID && !claims.IsAdmin {
		response.HandleError(w, jwt.ErrAdminPrivilegeRequired)
		return
	}

	resp, err := h.leaveService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request created", resp)
}

// DecideRequest implements LeaveHandler.
func (h *leaveHandlerImpl) DecideRequest(w http.ResponseWriter, r *http.Request) {
	var req leave.DecideLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	resp, err := h.leaveService.Decide(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request "+resp.Status, resp)
}

// ListApproved returns approved leaves overlapping ?period= for ?employee_id=.
func (h *leaveHandlerImpl) ListApproved(w http.ResponseWriter, r *http.Request) {
	q := attendance.PeriodQuery{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Period:     r.URL.Query().Get("period"),
	}
	p, err := q.Validate()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	leaves, err := h.leaveService.ApprovedLeavesForPeriod(r.Context(), q.EmployeeID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, leave.NewApprovedLeavesResponse(q.EmployeeID, p, leaves))
}
