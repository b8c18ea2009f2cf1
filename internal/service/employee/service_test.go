package employee

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeService(t *testing.T) {
	ctx := context.Background()
	svc := NewEmployeeService(memory.NewEmployeeRepository())

	rate := decimal.NewFromInt(75)
	created, err := svc.Create(ctx, employee.CreateEmployeeRequest{
		EmployeeCode: "EMP-001",
		FullName:     "Mehmet Demir",
		AnnualSalary: decimal.NewFromInt(96000),
		HourlyRate:   &rate,
		HireDate:     "2023-09-01",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "active", created.EmploymentStatus)
	assert.Equal(t, "2023-09-01", created.HireDate)

	_, err = svc.Create(ctx, employee.CreateEmployeeRequest{
		EmployeeCode: "EMP-001",
		FullName:     "Duplicate",
		HireDate:     "2023-09-01",
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeExists)

	_, err = svc.Create(ctx, employee.CreateEmployeeRequest{AnnualSalary: decimal.NewFromInt(-1)})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.ToMap()
	for _, f := range []string{"employee_code", "full_name", "annual_salary", "hire_date"} {
		assert.Contains(t, fields, f)
	}

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, svc.UpdateStatus(ctx, employee.UpdateStatusRequest{ID: created.ID, Status: "terminated"}))
	active, err = svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	err = svc.UpdateStatus(ctx, employee.UpdateStatusRequest{ID: created.ID, Status: "retired"})
	assert.ErrorAs(t, err, &verrs)

	err = svc.UpdateStatus(ctx, employee.UpdateStatusRequest{ID: "ghost", Status: "active"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.Get(ctx, "ghost")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
