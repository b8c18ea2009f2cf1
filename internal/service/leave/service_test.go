package leave

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeaveService(t *testing.T) leave.LeaveService {
	t.Helper()
	employeeRepo := memory.NewEmployeeRepository()
	_, err := employeeRepo.Create(context.Background(), employee.Employee{
		ID:               "emp-1",
		EmployeeCode:     "EMP-1",
		FullName:         "Employee One",
		EmploymentStatus: employee.EmploymentStatusActive,
	})
	require.NoError(t, err)

	svc := NewLeaveService(memory.NewLeaveRequestRepository(), employeeRepo).(*LeaveServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func createApproved(t *testing.T, svc leave.LeaveService, start, end string) leave.LeaveRequestResponse {
	t.Helper()
	ctx := context.Background()
	created, err := svc.Create(ctx, leave.CreateLeaveRequest{
		EmployeeID: "emp-1",
		LeaveType:  "annual",
		StartDate:  start,
		EndDate:    end,
	})
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, leave.DecideLeaveRequest{ID: created.ID, Status: "approved"})
	require.NoError(t, err)
	return decided
}

func TestLeaveService_CreateAndDecide(t *testing.T) {
	ctx := context.Background()
	svc := newTestLeaveService(t)

	created, err := svc.Create(ctx, leave.CreateLeaveRequest{
		EmployeeID: "emp-1",
		LeaveType:  "sick",
		StartDate:  "2024-03-11",
		EndDate:    "2024-03-12",
		Reason:     "flu",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", created.Status)
	assert.Nil(t, created.DecidedAt)

	decided, err := svc.Decide(ctx, leave.DecideLeaveRequest{ID: created.ID, Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, "rejected", decided.Status)
	assert.NotNil(t, decided.DecidedAt)

	_, err = svc.Decide(ctx, leave.DecideLeaveRequest{ID: created.ID, Status: "approved"})
	assert.ErrorIs(t, err, leave.ErrLeaveRequestAlreadyProcessed)

	_, err = svc.Decide(ctx, leave.DecideLeaveRequest{ID: "ghost", Status: "approved"})
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)

	_, err = svc.Decide(ctx, leave.DecideLeaveRequest{ID: created.ID, Status: "pending"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestLeaveService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestLeaveService(t)

	_, err := svc.Create(ctx, leave.CreateLeaveRequest{
		EmployeeID: "emp-1",
		LeaveType:  "annual",
		StartDate:  "2024-03-12",
		EndDate:    "2024-03-11",
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "end_date")

	_, err = svc.Create(ctx, leave.CreateLeaveRequest{
		EmployeeID: "ghost",
		LeaveType:  "annual",
		StartDate:  "2024-03-11",
		EndDate:    "2024-03-11",
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestLeaveService_ApprovedLeavesForPeriod(t *testing.T) {
	ctx := context.Background()
	svc := newTestLeaveService(t)

	createApproved(t, svc, "2024-02-27", "2024-03-03")
	createApproved(t, svc, "2024-03-20", "2024-03-20")
	createApproved(t, svc, "2024-03-30", "2024-04-02")
	createApproved(t, svc, "2024-04-10", "2024-04-12")
	_, err := svc.Create(ctx, leave.CreateLeaveRequest{
		EmployeeID: "emp-1",
		LeaveType:  "annual",
		StartDate:  "2024-03-25",
		EndDate:    "2024-03-26",
	})
	require.NoError(t, err)

	march := period.MustParse("2024-03")
	leaves, err := svc.ApprovedLeavesForPeriod(ctx, "emp-1", march)
	require.NoError(t, err)
	require.Len(t, leaves, 3)

	days := []int{leaves[0].OverlapDays, leaves[1].OverlapDays, leaves[2].OverlapDays}
	assert.Equal(t, []int{3, 1, 2}, days)

	resp := leave.NewApprovedLeavesResponse("emp-1", march, leaves)
	assert.Equal(t, 6, resp.LeaveDays)

	none, err := svc.ApprovedLeavesForPeriod(ctx, "emp-2", march)
	require.NoError(t, err)
	assert.Empty(t, none)
}
