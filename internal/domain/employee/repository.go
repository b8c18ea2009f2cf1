package employee

import "context"

// EmployeeRepository is the read side of the employee directory plus the
// writes needed to seed it.
type EmployeeRepository interface {
	Create(ctx context.Context, employee Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	UpdateStatus(ctx context.Context, id string, status EmploymentStatus) error
}
