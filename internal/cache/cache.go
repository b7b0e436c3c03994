package cache

import (
	"context"
	"errors"

	"github.com/antonio-alexander/go-employee-admin/internal/data"
)

var ErrEmployeeNotCached = errors.New("employee not cached")

// Cache holds employees by id; it never holds pages since every mutation can
// reorder them.
type Cache interface {
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesWrite(ctx context.Context, employees ...*data.Employee) error
	EmployeesDelete(ctx context.Context, ids ...int64) error
}

func copyEmployee(e *data.Employee) *data.Employee {
	employee := &data.Employee{}
	*employee = *e
	return employee
}
