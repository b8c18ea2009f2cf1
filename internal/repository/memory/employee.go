// Package memory provides in-memory repositories for tests and local runs.
// They enforce the same uniqueness rules as the SQL schemas.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
)

type employeeRepositoryImpl struct {
	mu        sync.RWMutex
	employees map[string]employee.Employee
}

func NewEmployeeRepository() employee.EmployeeRepository {
	return &employeeRepositoryImpl{employees: make(map[string]employee.Employee)}
}

func (r *employeeRepositoryImpl) Create(_ context.Context, e employee.Employee) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.employees {
		if existing.EmployeeCode == e.EmployeeCode {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
	}
	r.employees[e.ID] = e
	return e, nil
}

func (r *employeeRepositoryImpl) GetByID(_ context.Context, id string) (employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepositoryImpl) ListActive(_ context.Context) ([]employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []employee.Employee
	for _, e := range r.employees {
		if e.IsActive() {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeCode < result[j].EmployeeCode })
	return result, nil
}

func (r *employeeRepositoryImpl) UpdateStatus(_ context.Context, id string, status employee.EmploymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.employees[id]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	e.EmploymentStatus = status
	r.employees[id] = e
	return nil
}
