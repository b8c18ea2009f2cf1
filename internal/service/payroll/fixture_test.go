package payroll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store is down")

type fixture struct {
	employees   employee.EmployeeRepository
	attendances attendance.AttendanceRepository
	leaves      leave.LeaveRequestRepository
	records     payroll.PayrollRepository
	lineItems   payroll.LineItemRepository
	classifier  *Classifier
	calculator  *Calculator
	aggregator  *Aggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		employees:   memory.NewEmployeeRepository(),
		attendances: memory.NewAttendanceRepository(),
		leaves:      memory.NewLeaveRequestRepository(),
		records:     memory.NewPayrollRepository(),
		lineItems:   memory.NewLineItemRepository(),
		classifier:  NewClassifier(DefaultRules()),
	}
	f.calculator = NewCalculator(f.classifier, decimal.NewFromInt(160), 20)
	f.aggregator = NewAggregator(
		attendanceService.NewAttendanceService(f.attendances, f.employees, time.UTC, 16*time.Hour),
		leaveService.NewLeaveService(f.leaves, f.employees),
	)
	return f
}

func (f *fixture) runner(records payroll.PayrollRepository, taxRate int64) *BatchRunner {
	if records == nil {
		records = f.records
	}
	return NewBatchRunner(f.employees, records, f.lineItems, f.aggregator, f.calculator, decimal.NewFromInt(taxRate))
}

func (f *fixture) addEmployee(t *testing.T, id string, annual string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := f.employees.Create(context.Background(), employee.Employee{
		ID:               id,
		EmployeeCode:     "EMP-" + id,
		FullName:         "Employee " + id,
		EmploymentStatus: employee.EmploymentStatusActive,
		AnnualSalary:     decimal.RequireFromString(annual),
		HireDate:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	require.NoError(t, err)
}

// addShift stores a closed session on day of March 2024.
func (f *fixture) addShift(t *testing.T, employeeID string, day int, hours float64) {
	t.Helper()
	in := time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC)
	out := in.Add(time.Duration(hours * float64(time.Hour)))
	_, err := f.attendances.Create(context.Background(), attendance.Attendance{
		ID:          fmt.Sprintf("%s-%d", employeeID, day),
		EmployeeID:  employeeID,
		WorkDate:    period.Date(in),
		ClockIn:     in,
		ClockOut:    &out,
		WorkedHours: attendance.HoursBetween(in, out),
		CreatedAt:   in,
		UpdatedAt:   out,
	})
	require.NoError(t, err)
}

func (f *fixture) addLineItem(t *testing.T, employeeID string, kind payroll.ItemKind, item payroll.LineItem) {
	t.Helper()
	err := f.lineItems.Create(context.Background(), []payroll.EmployeeLineItem{{
		ID:         fmt.Sprintf("%s-%s-%s", employeeID, kind, item.Name),
		EmployeeID: employeeID,
		Kind:       kind,
		Item:       item,
		CreatedAt:  time.Now().UTC(),
	}})
	require.NoError(t, err)
}

// failingInsertRepository fails every batch insert.
type failingInsertRepository struct {
	payroll.PayrollRepository
}

func (r failingInsertRepository) InsertBatch(context.Context, []payroll.PayrollRecord) (int, []string, error) {
	return 0, nil, errStoreDown
}

// staleReadRepository hides existing records from ProcessedEmployeeIDs, as if a
// concurrent run inserted them after the read.
type staleReadRepository struct {
	payroll.PayrollRepository
}

func (r staleReadRepository) ProcessedEmployeeIDs(context.Context, period.Period) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

// addAutoClosedShift stores a session the scheduler closed with zero hours.
func (f *fixture) addAutoClosedShift(t *testing.T, employeeID string, day int) {
	t.Helper()
	in := time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC)
	out := in.Add(16 * time.Hour)
	_, err := f.attendances.Create(context.Background(), attendance.Attendance{
		ID:          fmt.Sprintf("%s-%d-auto", employeeID, day),
		EmployeeID:  employeeID,
		WorkDate:    period.Date(in),
		ClockIn:     in,
		ClockOut:    &out,
		WorkedHours: decimal.Zero,
		AutoClosed:  true,
		CreatedAt:   in,
		UpdatedAt:   out,
	})
	require.NoError(t, err)
}
