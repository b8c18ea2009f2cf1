package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *DB
}

func NewEmployeeRepository(db *DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `id, employee_code, full_name, employment_status, annual_salary, hourly_rate, hire_date, created_at, updated_at`

func (r *employeeRepositoryImpl) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	var hourlyRate sql.NullString
	if e.HourlyRate != nil {
		hourlyRate = sql.NullString{String: e.HourlyRate.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.EmployeeCode, e.FullName, string(e.EmploymentStatus), e.AnnualSalary.String(),
		hourlyRate, formatDate(e.HireDate), formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return e, nil
}

func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

func (r *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+employeeColumns+` FROM employees
		WHERE employment_status = ?
		ORDER BY employee_code`, string(employee.EmploymentStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var result []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *employeeRepositoryImpl) UpdateStatus(ctx context.Context, id string, status employee.EmploymentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE employees SET employment_status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update employee status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var (
		e                        employee.Employee
		status, annual, hireDate string
		createdAt, updatedAt     string
		hourlyRate               sql.NullString
	)
	if err := row.Scan(&e.ID, &e.EmployeeCode, &e.FullName, &status, &annual, &hourlyRate, &hireDate, &createdAt, &updatedAt); err != nil {
		return employee.Employee{}, err
	}

	var err error
	e.EmploymentStatus = employee.EmploymentStatus(status)
	if e.AnnualSalary, err = decimal.NewFromString(annual); err != nil {
		return employee.Employee{}, err
	}
	if hourlyRate.Valid {
		rate, err := decimal.NewFromString(hourlyRate.String)
		if err != nil {
			return employee.Employee{}, err
		}
		e.HourlyRate = &rate
	}
	if e.HireDate, err = parseDate(hireDate); err != nil {
		return employee.Employee{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return employee.Employee{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}
