package logic

import (
	"context"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/cache"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/sql"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"
)

const counterEmployeeRead string = "employee_read"

type Logic interface {
	EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeesList(ctx context.Context, search data.EmployeeSearch) (*data.EmployeePage, error)
	EmployeesSearch(ctx context.Context, search data.EmployeeSearch) (*data.EmployeePage, error)
	EmployeeUpdate(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
}

type logic struct {
	sync.RWMutex
	sql.Sql
	cache   cache.Cache
	counter utilities.Counter
	utilities.Logger
	config struct {
		cacheEnabled   bool
		mutateDisabled bool
	}
}

func NewLogic(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Logic
} {
	l := &logic{Logger: utilities.NewNopLogger()}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case sql.Sql:
			l.Sql = v
		case cache.Cache:
			l.cache = v
		case utilities.Counter:
			l.counter = v
		case utilities.Logger:
			l.Logger = v
		}
	}
	return l
}

func (l *logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if cacheEnabled, ok := envs["LOGIC_CACHE_ENABLED"]; ok {
		l.config.cacheEnabled, _ = strconv.ParseBool(cacheEnabled)
	}
	if mutateDisabled, ok := envs["MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	return nil
}

func (l *logic) Open(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.config.cacheEnabled && l.cache == nil {
		l.Info(ctx, "cache enabled, but no cache provided; disabling")
		l.config.cacheEnabled = false
	}
	if l.config.cacheEnabled {
		l.Info(ctx, "cache enabled")
	}
	if l.config.mutateDisabled {
		l.Info(ctx, "mutation disabled")
	}
	return nil
}

func (l *logic) Close(ctx context.Context) error {
	return nil
}

func (l *logic) cacheEnabled() bool {
	l.RLock()
	defer l.RUnlock()
	return l.config.cacheEnabled
}

func (l *logic) mutateDisabled() bool {
	l.RLock()
	defer l.RUnlock()
	return l.config.mutateDisabled
}

func (l *logic) evict(ctx context.Context, id int64) {
	if !l.cacheEnabled() {
		return
	}
	if err := l.cache.EmployeesDelete(ctx, id); err != nil {
		l.Error(ctx, "error while deleting employee (%d) from cache: %s", id, err)
	}
}

func (l *logic) EmployeeCreate(ctx context.Context, employee data.Employee) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutateDisabled
	}
	return l.Sql.EmployeeCreate(ctx, employee)
}

func (l *logic) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	if l.cacheEnabled() {
		employee, err := l.cache.EmployeeRead(ctx, id)
		if err == nil {
			if l.counter != nil {
				l.counter.IncrementHit(counterEmployeeRead)
			}
			return employee, nil
		}
		if l.counter != nil {
			l.counter.IncrementMiss(counterEmployeeRead)
		}
		l.Trace(ctx, "employee (%d) not read from cache: %s", id, err)
	}
	employee, err := l.Sql.EmployeeRead(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.cacheEnabled() {
		if err := l.cache.EmployeesWrite(ctx, employee); err != nil {
			l.Error(ctx, "error while writing employee (%d) to cache: %s", id, err)
		}
	}
	return employee, nil
}

// EmployeesList pages through every employee, the search term is ignored.
func (l *logic) EmployeesList(ctx context.Context, search data.EmployeeSearch) (*data.EmployeePage, error) {
	search.Term = ""
	return l.Sql.EmployeesPage(ctx, search)
}

func (l *logic) EmployeesSearch(ctx context.Context, search data.EmployeeSearch) (*data.EmployeePage, error) {
	return l.Sql.EmployeesPage(ctx, search)
}

func (l *logic) EmployeeUpdate(ctx context.Context, id int64, employee data.Employee) (*data.Employee, error) {
	if l.mutateDisabled() {
		return nil, data.ErrMutateDisabled
	}
	employeeUpdated, err := l.Sql.EmployeeUpdate(ctx, id, employee)
	if err != nil {
		return nil, err
	}
	l.evict(ctx, id)
	return employeeUpdated, nil
}

func (l *logic) EmployeeDelete(ctx context.Context, id int64) error {
	if l.mutateDisabled() {
		return data.ErrMutateDisabled
	}
	if err := l.Sql.EmployeeDelete(ctx, id); err != nil {
		return err
	}
	l.evict(ctx, id)
	return nil
}
