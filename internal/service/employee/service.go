package employee

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/google/uuid"
)

type EmployeeServiceImpl struct {
	employee.EmployeeRepository
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository) employee.EmployeeService {
	return &EmployeeServiceImpl{EmployeeRepository: employeeRepo}
}

func (s *EmployeeServiceImpl) Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	hireDate, _ := period.ParseDate(req.HireDate)
	id, err := uuid.NewV7()
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to generate employee id: %w", err)
	}
	now := time.Now().UTC()

	created, err := s.EmployeeRepository.Create(ctx, employee.Employee{
		ID:               id.String(),
		EmployeeCode:     req.EmployeeCode,
		FullName:         req.FullName,
		EmploymentStatus: employee.EmploymentStatusActive,
		AnnualSalary:     req.AnnualSalary,
		HourlyRate:       req.HourlyRate,
		HireDate:         hireDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.NewEmployeeResponse(created), nil
}

func (s *EmployeeServiceImpl) Get(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	emp, err := s.EmployeeRepository.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.NewEmployeeResponse(emp), nil
}

func (s *EmployeeServiceImpl) ListActive(ctx context.Context) ([]employee.EmployeeResponse, error) {
	employees, err := s.EmployeeRepository.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	resp := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		resp = append(resp, employee.NewEmployeeResponse(e))
	}
	return resp, nil
}

func (s *EmployeeServiceImpl) UpdateStatus(ctx context.Context, req employee.UpdateStatusRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.EmployeeRepository.UpdateStatus(ctx, req.ID, employee.EmploymentStatus(req.Status))
}
