package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/employee"
	leaveService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Error   *response.ErrorDetail `json:"error"`
}

type testServer struct {
	router     *chi.Mux
	jwt        jwt.Service
	employees  employee.EmployeeRepository
	clock      time.Time
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	employeeRepo := memory.NewEmployeeRepository()
	attendanceRepo := memory.NewAttendanceRepository()
	leaveRepo := memory.NewLeaveRequestRepository()
	payrollRepo := memory.NewPayrollRepository()
	lineItemRepo := memory.NewLineItemRepository()

	attSvc := attendanceService.NewAttendanceService(attendanceRepo, employeeRepo, time.UTC, 16*time.Hour)
	leaveSvc := leaveService.NewLeaveService(leaveRepo, employeeRepo)
	empSvc := employeeService.NewEmployeeService(employeeRepo)

	classifier := payrollService.NewClassifier(payrollService.DefaultRules())
	calculator := payrollService.NewCalculator(classifier, decimal.NewFromInt(160), 20)
	aggregator := payrollService.NewAggregator(attSvc, leaveSvc)
	runner := payrollService.NewBatchRunner(employeeRepo, payrollRepo, lineItemRepo, aggregator, calculator, decimal.Zero)
	paySvc := payrollService.NewPayrollService(runner, calculator, payrollService.NewImporter(classifier), payrollRepo, lineItemRepo, employeeRepo)

	ts := &testServer{
		jwt:       jwt.NewJWTService(handlerTestSecret, time.Hour),
		employees: employeeRepo,
		clock:     time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
	}
	attHandler := &attendanceHandlerImpl{
		attendanceService: attSvc,
		now:               func() time.Time { return ts.clock },
	}
	ts.router = NewRouter(ts.jwt, attHandler, NewLeaveHandler(leaveSvc), NewEmployeeHandler(empSvc), NewPayrollHandler(paySvc), RouterOptions{Env: "test"})
	ts.adminToken = ts.token(t, "admin-1", true)
	return ts
}

func (ts *testServer) token(t *testing.T, employeeID string, isAdmin bool) string {
	t.Helper()
	token, _, err := ts.jwt.GenerateAccessToken(employeeID, isAdmin)
	require.NoError(t, err)
	return token
}

func (ts *testServer) seedEmployee(t *testing.T, id string, annual int64) {
	t.Helper()
	now := time.Now().UTC()
	_, err := ts.employees.Create(context.Background(), employee.Employee{
		ID:               id,
		EmployeeCode:     "EMP-" + id,
		FullName:         "Employee " + id,
		EmploymentStatus: employee.EmploymentStatusActive,
		AnnualSalary:     decimal.NewFromInt(annual),
		HireDate:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	require.NoError(t, err)
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.serve(t, req)
}

func (ts *testServer) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestRouter_Auth(t *testing.T) {
	ts := newTestServer(t)
	ts.seedEmployee(t, "emp-1", 96000)

	t.Run("missing token", func(t *testing.T) {
		status, env := ts.do(t, http.MethodGet, "/api/v1/attendance/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.False(t, env.Success)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := jwt.NewJWTService("another-secret", time.Hour)
		token, _, err := other.GenerateAccessToken("emp-1", true)
		require.NoError(t, err)

		status, _ := ts.do(t, http.MethodGet, "/api/v1/attendance/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("employee cannot reach admin routes", func(t *testing.T) {
		token := ts.token(t, "emp-1", false)
		status, env := ts.do(t, http.MethodPost, "/api/v1/payroll/runs", token, map[string]string{"period": "2024-03"})
		assert.Equal(t, http.StatusForbidden, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "FORBIDDEN", env.Error.Code)
	})
}

func TestAttendanceHandler_ClockInOut(t *testing.T) {
	ts := newTestServer(t)
	ts.seedEmployee(t, "emp-1", 96000)
	token := ts.token(t, "emp-1", false)

	status, env := ts.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, nil)
	require.Equal(t, http.StatusCreated, status, string(env.Data))

	status, env = ts.do(t, http.MethodPost, "/api/v1/attendance/clock-in", token, nil)
	assert.Equal(t, http.StatusConflict, status)

	ts.clock = ts.clock.Add(8*time.Hour + 30*time.Minute)
	status, env = ts.do(t, http.MethodPost, "/api/v1/attendance/clock-out", token, nil)
	require.Equal(t, http.StatusOK, status)

	var closed struct {
		WorkedHours decimal.Decimal `json:"worked_hours"`
		ClockOut    *string         `json:"clock_out"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &closed))
	assert.True(t, closed.WorkedHours.Equal(decimal.RequireFromString("8.5")))
	assert.NotNil(t, closed.ClockOut)

	status, _ = ts.do(t, http.MethodPost, "/api/v1/attendance/clock-out", token, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/attendance/summary?employee_id=emp-1&period=2024-03", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var summary struct {
		WorkedHours decimal.Decimal `json:"worked_hours"`
		WorkedDays  int             `json:"worked_days"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.True(t, summary.WorkedHours.Equal(decimal.RequireFromString("8.5")))
	assert.Equal(t, 1, summary.WorkedDays)
}

func TestAttendanceHandler_OnBehalfOf(t *testing.T) {
	ts := newTestServer(t)
	ts.seedEmployee(t, "emp-1", 96000)
	ts.seedEmployee(t, "emp-2", 96000)

	status, _ := ts.do(t, http.MethodPost, "/api/v1/attendance/clock-in", ts.token(t, "emp-2", false), map[string]string{"employee_id": "emp-1"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = ts.do(t, http.MethodPost, "/api/v1/attendance/clock-in", ts.adminToken, map[string]string{"employee_id": "emp-1"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestAttendanceHandler_InvalidPeriod(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodGet, "/api/v1/attendance/summary?employee_id=emp-1&period=2024-13", ts.adminToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "period")
}

func TestLeaveHandler_CreateAndDecide(t *testing.T) {
	ts := newTestServer(t)
	ts.seedEmployee(t, "emp-1", 96000)
	token := ts.token(t, "emp-1", false)

	status, env := ts.do(t, http.MethodPost, "/api/v1/leaves", token, map[string]string{
		"leave_type": "annual",
		"start_date": "2024-02-28",
		"end_date":   "2024-03-02",
		"reason":     "family",
	})
	require.Equal(t, http.StatusCreated, status, string(env.Data))

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)

	status, _ = ts.do(t, http.MethodPut, "/api/v1/leaves/"+created.ID+"/decision", token, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = ts.do(t, http.MethodPut, "/api/v1/leaves/"+created.ID+"/decision", ts.adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodPut, "/api/v1/leaves/"+created.ID+"/decision", ts.adminToken, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusConflict, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/leaves/approved?employee_id=emp-1&period=2024-03", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var approved struct {
		LeaveDays int `json:"leave_days"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	assert.Equal(t, 2, approved.LeaveDays)
}

func TestEmployeeHandler(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{
		"employee_code": "EMP-100",
		"full_name":     "Ayşe Yılmaz",
		"annual_salary": "120000",
		"hire_date":     "2023-06-01",
	}
	status, env := ts.do(t, http.MethodPost, "/api/v1/employees", ts.adminToken, body)
	require.Equal(t, http.StatusCreated, status, string(env.Data))

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, _ = ts.do(t, http.MethodPost, "/api/v1/employees", ts.adminToken, body)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = ts.do(t, http.MethodPut, "/api/v1/employees/"+created.ID+"/status", ts.adminToken, map[string]string{"status": "resigned"})
	require.Equal(t, http.StatusOK, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/employees", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(env.Data))

	status, _ = ts.do(t, http.MethodGet, "/api/v1/employees/missing", ts.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPayrollHandler_Preview(t *testing.T) {
	ts := newTestServer(t)
	ts.seedEmployee(t, "emp-1", 96000)

	status, env := ts.do(t, http.MethodPost, "/api/v1/payroll/preview", ts.adminToken, map[string]any{
		"employee_id": "emp-1",
		"period":      "2024-03",
		"earnings":    []map[string]string{{"name": "Bonus", "type": "fixed", "value": "500"}},
	})
	require.Equal(t, http.StatusOK, status, string(env.Data))

	var statement struct {
		BaseSalary   string `json:"base_salary"`
		NetPay       string `json:"net_pay"`
		UsedFallback bool   `json:"used_fallback"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &statement))
	assert.Equal(t, "8000.00", statement.BaseSalary)
	assert.Equal(t, "8500.00", statement.NetPay)
	assert.True(t, statement.UsedFallback)

	status, _ = ts.do(t, http.MethodPost, "/api/v1/payroll/preview", ts.adminToken, map[string]any{
		"employee_id": "missing",
		"period":      "2024-03",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPayrollHandler_RunListAndPay(t *testing.T) {
	ts := newTestServer(t)
	ts.seedEmployee(t, "emp-1", 96000)
	ts.seedEmployee(t, "emp-2", 120000)

	status, env := ts.do(t, http.MethodPost, "/api/v1/payroll/runs", ts.adminToken, map[string]string{"period": "2024-03"})
	require.Equal(t, http.StatusCreated, status, string(env.Data))

	status, env = ts.do(t, http.MethodPost, "/api/v1/payroll/runs", ts.adminToken, map[string]string{"period": "2024-03"})
	require.Equal(t, http.StatusOK, status)
	var rerun struct {
		Created          int `json:"created"`
		AlreadyProcessed int `json:"already_processed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rerun))
	assert.Equal(t, 0, rerun.Created)
	assert.Equal(t, 2, rerun.AlreadyProcessed)

	status, env = ts.do(t, http.MethodGet, "/api/v1/payroll/records?period=2024-03&status=pending", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		TotalCount int64 `json:"total_count"`
		Records    []struct {
			ID string `json:"id"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Records, 2)
	assert.Equal(t, int64(2), list.TotalCount)

	status, env = ts.do(t, http.MethodPost, "/api/v1/payroll/records/pay", ts.adminToken, map[string]any{
		"payroll_record_ids": []string{list.Records[0].ID, "missing"},
	})
	require.Equal(t, http.StatusOK, status)
	var paid struct {
		Paid   []string `json:"paid"`
		Failed []struct {
			ID string `json:"id"`
		} `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &paid))
	assert.Equal(t, []string{list.Records[0].ID}, paid.Paid)
	require.Len(t, paid.Failed, 1)
	assert.Equal(t, "missing", paid.Failed[0].ID)

	status, _ = ts.do(t, http.MethodPut, "/api/v1/payroll/records/"+list.Records[0].ID+"/line-items", ts.adminToken, map[string]any{
		"earnings":   []any{},
		"deductions": []any{},
	})
	assert.Equal(t, http.StatusConflict, status)

	status, env = ts.do(t, http.MethodGet, "/api/v1/payroll/summary?period=2024-03", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var summary struct {
		TotalRecords int `json:"total_records"`
		PaidCount    int `json:"paid_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.TotalRecords)
	assert.Equal(t, 1, summary.PaidCount)

	status, _ = ts.do(t, http.MethodGet, "/api/v1/payroll/records?status=settled", ts.adminToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestPayrollHandler_RunWithoutEmployees(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, http.MethodPost, "/api/v1/payroll/runs", ts.adminToken, map[string]string{"period": "2024-03"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
}

func TestPayrollHandler_ImportLineItems(t *testing.T) {
	ts := newTestServer(t)
	ts.seedEmployee(t, "emp-1", 96000)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "items.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("employee_id,kind,name,type,value\nemp-1,earning,Bonus,fixed,500\nghost,deduction,Union,fixed,10\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/line-items/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.adminToken)

	status, env := ts.serve(t, req)
	require.Equal(t, http.StatusCreated, status, string(env.Data))

	var result struct {
		Rows     int `json:"rows"`
		Imported int `json:"imported"`
		Failed   []struct {
			Row int `json:"row"`
		} `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Failed, 1)
}
