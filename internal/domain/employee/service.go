package employee

import "context"

// EmployeeService seeds and maintains the directory records payroll reads.
type EmployeeService interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	Get(ctx context.Context, id string) (EmployeeResponse, error)
	ListActive(ctx context.Context) ([]EmployeeResponse, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) error
}
