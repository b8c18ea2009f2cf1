package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	GetWorkedSummary(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	now               func() time.Time
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		now:               time.Now,
	}
}

// clockRequest is the optional body of clock-in and clock-out. Only admins may
// act on behalf of another employee.
type clockRequest struct {
	EmployeeID string `json:"employee_id"`
}

func (h *attendanceHandlerImpl) resolveEmployee(r *http.Request) (string, error) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		return "", err
	}

	var req clockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", errInvalidBody
	}
	if req.EmployeeID == "" || req.EmployeeID == claims.EmployeeID {
		return claims.EmployeeID, nil
	}
	if !claims.IsAdmin {
		return "", jwt.ErrAdminPrivilegeRequired
	}
	return req.EmployeeID, nil
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.resolveEmployee(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	resp, err := h.attendanceService.ClockIn(r.Context(), attendance.ClockInRequest{
		EmployeeID: employeeID,
		At:         h.now(),
	})
	if err != nil {
		slog.Warn("Clock-in rejected", "employee_id", employeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clocked in successfully", resp)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	employeeID, err := h.resolveEmployee(r)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	resp, err := h.attendanceService.ClockOut(r.Context(), attendance.ClockOutRequest{
		EmployeeID: employeeID,
		At:         h.now(),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clocked out successfully", resp)
}

// GetMyAttendance lists the caller's sessions for ?period=, defaulting to the
// current month.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	p := period.Of(h.now())
	if raw := r.URL.Query().Get("period"); raw != "" {
		q := attendance.PeriodQuery{EmployeeID: claims.EmployeeID, Period: raw}
		if p, err = q.Validate(); err != nil {
			response.HandleError(w, err)
			return
		}
	}

	resp, err := h.attendanceService.ListForPeriod(r.Context(), claims.EmployeeID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// GetWorkedSummary implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetWorkedSummary(w http.ResponseWriter, r *http.Request) {
	q := attendance.PeriodQuery{
		EmployeeID: r.URL.Query().Get("employee_id"),
		Period:     r.URL.Query().Get("period"),
	}
	p, err := q.Validate()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.attendanceService.WorkedHoursForPeriod(r.Context(), q.EmployeeID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewWorkedSummaryResponse(summary))
}
