package logic_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/cache"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/logic"
	"github.com/antonio-alexander/go-employee-admin/internal/sql"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	envs = map[string]string{
		//sql
		"DATABASE_CREATE_TABLES": "true",
		//logic
		"LOGIC_CACHE_ENABLED": "true",
		"MUTATE_DISABLED":     "false",
	}
)

func init() {
	envs = internal.EnvsFromEnviron(os.Environ(), envs)
}

type logicTest struct {
	sql interface {
		internal.Configurer
		internal.Opener
		sql.Sql
	}
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}
	logic interface {
		internal.Configurer
		internal.Opener
		logic.Logic
	}
	counter utilities.Counter
}

func newLogicTest() *logicTest {
	sql := sql.NewSqlite()
	c := cache.NewMemory()
	counter := utilities.NewCounter()
	return &logicTest{
		sql:     sql,
		cache:   c,
		counter: counter,
		logic:   logic.NewLogic(sql, c, counter),
	}
}

func (l *logicTest) Configure(envs map[string]string) error {
	if err := l.sql.Configure(envs); err != nil {
		return err
	}
	if err := l.cache.Configure(envs); err != nil {
		return err
	}
	return l.logic.Configure(envs)
}

func (l *logicTest) Open(ctx context.Context) error {
	if err := l.sql.Open(ctx); err != nil {
		return err
	}
	if err := l.cache.Open(ctx); err != nil {
		return err
	}
	return l.logic.Open(ctx)
}

func (l *logicTest) Close(ctx context.Context) error {
	if err := l.logic.Close(ctx); err != nil {
		return err
	}
	if err := l.cache.Close(ctx); err != nil {
		return err
	}
	return l.sql.Close(ctx)
}

func (l *logicTest) TestLogic(t *testing.T) {
	ctx := context.TODO()

	// create employee
	employee := data.Employee{
		Name:   "Asha Kim",
		Email:  "asha@x.com",
		Dob:    time.Date(1990, time.April, 12, 0, 0, 0, 0, time.UTC),
		Salary: 50000,
	}
	employeeCreated, err := l.logic.EmployeeCreate(ctx, employee)
	require.Nil(t, err)
	id := employeeCreated.Id

	// first read misses, second hits
	employeeRead, err := l.logic.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)
	employeeRead, err = l.logic.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)
	hits, misses := l.counter.Read("employee_read")
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	// list and search
	page, err := l.logic.EmployeesList(ctx, data.EmployeeSearch{Term: "nobody", Page: 1})
	assert.Nil(t, err)
	assert.Contains(t, page.Employees, employeeCreated)
	page, err = l.logic.EmployeesSearch(ctx, data.EmployeeSearch{Term: "asha", Page: 1})
	assert.Nil(t, err)
	assert.Equal(t, []*data.Employee{employeeCreated}, page.Employees)

	// update evicts the cached copy
	employee.Name = "Asha Kim-Lee"
	employeeUpdated, err := l.logic.EmployeeUpdate(ctx, id, employee)
	assert.Nil(t, err)
	_, err = l.cache.EmployeeRead(ctx, id)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
	employeeRead, err = l.logic.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeUpdated, employeeRead)

	// delete evicts too
	err = l.logic.EmployeeDelete(ctx, id)
	assert.Nil(t, err)
	_, err = l.logic.EmployeeRead(ctx, id)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	page, err = l.logic.EmployeesSearch(ctx, data.EmployeeSearch{Term: "asha"})
	assert.Nil(t, err)
	assert.Empty(t, page.Employees)
}

func TestLogic(t *testing.T) {
	c := newLogicTest()

	ctx := context.TODO()
	err := c.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure logicTest")
	}
	err = c.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open logicTest")
	}
	defer func() {
		if err := c.Close(ctx); err != nil {
			t.Logf("error while closing logicTest: %s", err)
		}
	}()
	t.Run("Logic", c.TestLogic)
}

func TestLogicMutateDisabled(t *testing.T) {
	ctx := context.TODO()
	sql := sql.NewSqlite()
	_ = sql.Configure(map[string]string{})
	require.Nil(t, sql.Open(ctx))
	defer sql.Close(ctx)
	l := logic.NewLogic(sql)
	_ = l.Configure(map[string]string{"MUTATE_DISABLED": "true"})
	require.Nil(t, l.Open(ctx))

	_, err := l.EmployeeCreate(ctx, data.Employee{Name: "Asha Kim"})
	assert.ErrorIs(t, err, data.ErrMutateDisabled)
	_, err = l.EmployeeUpdate(ctx, 1, data.Employee{Name: "Asha Kim"})
	assert.ErrorIs(t, err, data.ErrMutateDisabled)
	assert.ErrorIs(t, l.EmployeeDelete(ctx, 1), data.ErrMutateDisabled)
}
