package employee

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrEmployeeNotActive  = errors.New("employee is not active")
	ErrEmployeeCodeExists = errors.New("employee code already exists")
)
