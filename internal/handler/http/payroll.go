package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// maxImportSize caps the multipart body of a line item import.
const maxImportSize = 10 << 20

type PayrollHandler interface {
	Preview(w http.ResponseWriter, r *http.Request)
	Run(w http.ResponseWriter, r *http.Request)

	ListRecords(w http.ResponseWriter, r *http.Request)
	GetRecord(w http.ResponseWriter, r *http.Request)
	UpdateLineItems(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)

	AddLineItems(w http.ResponseWriter, r *http.Request)
	ImportLineItems(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== RUNS ==========

// Preview implements PayrollHandler.
func (h *payrollHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	var req payroll.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.payrollService.Preview(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// Run implements PayrollHandler.
func (h *payrollHandlerImpl) Run(w http.ResponseWriter, r *http.Request) {
	var req payroll.RunPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.RunForPeriod(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Created == 0 {
		response.SuccessWithMessage(w, result.Message, result)
		return
	}
	response.Created(w, result.Message, result)
}

// ========== RECORDS ==========

// ListRecords implements PayrollHandler.
func (h *payrollHandlerImpl) ListRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := payroll.PayrollFilter{
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 20),
	}

	var errs validator.ValidationErrors
	if raw := query.Get("period"); raw != "" {
		p, err := period.Parse(raw)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "period", Message: "must be formatted as YYYY-MM"})
		} else {
			filter.Period = &p
		}
	}
	if raw := query.Get("status"); raw != "" {
		status := payroll.PayrollStatus(raw)
		if !status.IsValid() {
			errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'pending' or 'paid'"})
		} else {
			filter.Status = &status
		}
	}
	if raw := query.Get("employee_id"); raw != "" {
		filter.EmployeeID = &raw
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	resp, err := h.payrollService.ListRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// GetRecord implements PayrollHandler.
func (h *payrollHandlerImpl) GetRecord(w http.ResponseWriter, r *http.Request) {
	resp, err := h.payrollService.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, resp)
}

// UpdateLineItems implements PayrollHandler.
func (h *payrollHandlerImpl) UpdateLineItems(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpdateLineItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	resp, err := h.payrollService.UpdateLineItems(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record recomputed", resp)
}

// MarkPaid implements PayrollHandler.
func (h *payrollHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req payroll.MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.payrollService.MarkPaid(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// Summary implements PayrollHandler.
func (h *payrollHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	p, err := period.Parse(r.URL.Query().Get("period"))
	if err != nil {
		response.HandleError(w, validator.ValidationErrors{{Field: "period", Message: "must be formatted as YYYY-MM"}})
		return
	}

	resp, err := h.payrollService.Summary(r.Context(), p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// ========== RECURRING LINE ITEMS ==========

// AddLineItems implements PayrollHandler.
func (h *payrollHandlerImpl) AddLineItems(w http.ResponseWriter, r *http.Request) {
	var req payroll.AddEmployeeLineItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.payrollService.AddEmployeeLineItems(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Line items added", nil)
}

// ImportLineItems reads a CSV or XLSX sheet from the multipart field "file".
func (h *payrollHandlerImpl) ImportLineItems(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Field 'file' is required", nil)
		return
	}
	defer file.Close()

	resp, err := h.payrollService.ImportLineItems(r.Context(), header.Filename, file)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Line items imported", resp)
}
