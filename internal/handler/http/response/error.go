package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var computationErr *payroll.ComputationError
	if errors.As(err, &computationErr) {
		writeError(w, http.StatusUnprocessableEntity, "COMPUTATION_ERROR", computationErr.Error(),
			map[string]string{"employee_id": computationErr.EmployeeID})
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, jwt.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeCodeExists):
		Conflict(w, "Employee code already exists")
	case errors.Is(err, employee.ErrEmployeeNotActive):
		Conflict(w, "Employee is not active")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyOpen):
		Conflict(w, "An attendance session is already open")
	case errors.Is(err, attendance.ErrNoOpenSession):
		Conflict(w, "No open attendance session")
	case errors.Is(err, attendance.ErrClockOutBeforeIn):
		BadRequest(w, "Clock-out is before clock-in", nil)

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
		Conflict(w, "Payroll record already paid")
	case errors.Is(err, payroll.ErrNoActiveEmployees):
		UnprocessableEntity(w, "No active employees to process")
	case errors.Is(err, payroll.ErrInvalidLineItem), errors.Is(err, payroll.ErrInvalidImportFile):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrStorage):
		slog.Error("Storage failure", "error", err)
		ServiceUnavailable(w, "Storage is unavailable, nothing was written")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
