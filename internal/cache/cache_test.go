package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/cache"
	"github.com/antonio-alexander/go-employee-admin/internal/data"

	"github.com/stretchr/testify/assert"
)

var envs = map[string]string{
	"REDIS_ADDRESS":        "localhost",
	"REDIS_PORT":           "6379",
	"REDIS_TIMEOUT":        "10",
	"CACHE_PRUNE_INTERVAL": "1",
}

func init() {
	envs = internal.EnvsFromEnviron(os.Environ(), envs)
}

type cacheTest struct {
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		cache.Cache
	}
}

func newCacheTest(cacheType string) *cacheTest {
	c := &cacheTest{}
	switch cacheType {
	case "memory":
		c.cache = cache.NewMemory()
	case "redis":
		c.cache = cache.NewRedis()
	}
	return c
}

func (c *cacheTest) TestCache(t *testing.T) {
	ctx := context.TODO()

	employees := []*data.Employee{
		{Id: 1, Name: internal.GenerateId(), Email: "one@x.com", Salary: 1},
		{Id: 2, Name: internal.GenerateId(), Email: "two@x.com", Salary: 2},
		{Id: 3, Name: internal.GenerateId(), Email: "three@x.com", Salary: 3},
	}

	// read before write
	_, err := c.cache.EmployeeRead(ctx, 1)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)

	// write and read back
	err = c.cache.EmployeesWrite(ctx, employees...)
	assert.Nil(t, err)
	for _, employee := range employees {
		employeeRead, err := c.cache.EmployeeRead(ctx, employee.Id)
		assert.Nil(t, err)
		assert.Equal(t, employee.Name, employeeRead.Name)
		assert.Equal(t, employee.Email, employeeRead.Email)
	}

	// mutating the returned copy doesn't change the cache
	employeeRead, err := c.cache.EmployeeRead(ctx, 1)
	assert.Nil(t, err)
	employeeRead.Name = "changed"
	employeeRead, err = c.cache.EmployeeRead(ctx, 1)
	assert.Nil(t, err)
	assert.Equal(t, employees[0].Name, employeeRead.Name)

	// delete
	err = c.cache.EmployeesDelete(ctx, 1, 2)
	assert.Nil(t, err)
	_, err = c.cache.EmployeeRead(ctx, 1)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
	_, err = c.cache.EmployeeRead(ctx, 3)
	assert.Nil(t, err)

	// clear
	err = c.cache.Clear(ctx)
	assert.Nil(t, err)
	_, err = c.cache.EmployeeRead(ctx, 3)
	assert.ErrorIs(t, err, cache.ErrEmployeeNotCached)
}

func testCache(t *testing.T, cacheType string, envs map[string]string) {
	c := newCacheTest(cacheType)

	ctx := context.TODO()
	err := c.cache.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure cache")
	}
	err = c.cache.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open cache")
	}
	defer func() {
		_ = c.cache.Close(ctx)
	}()
	t.Run("Cache", c.TestCache)
}

func TestCacheMemory(t *testing.T) {
	testCache(t, "memory", envs)
}

func TestCacheMemoryExpiry(t *testing.T) {
	ctx := context.TODO()
	c := cache.NewMemory()
	_ = c.Configure(map[string]string{
		"CACHE_TTL":            "1",
		"CACHE_PRUNE_INTERVAL": "1",
	})
	assert.Nil(t, c.Open(ctx))
	defer c.Close(ctx)

	assert.Nil(t, c.EmployeesWrite(ctx, &data.Employee{Id: 1}))
	_, err := c.EmployeeRead(ctx, 1)
	assert.Nil(t, err)
	assert.Eventually(t, func() bool {
		_, err := c.EmployeeRead(ctx, 1)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestCacheRedis(t *testing.T) {
	if os.Getenv("TEST_REDIS") == "" {
		t.Skip("TEST_REDIS not set")
	}
	testCache(t, "redis", envs)
}
