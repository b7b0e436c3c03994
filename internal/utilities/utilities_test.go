package utilities_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := utilities.NewLogger(buffer)
	err := logger.Configure(map[string]string{"LOG_LEVEL": "info"})
	assert.Nil(t, err)

	ctx := internal.CtxWithCorrelationId(context.TODO(), "abc")
	logger.Info(ctx, "created employee %d", 1)
	logger.Debug(ctx, "hidden")
	assert.Contains(t, buffer.String(), "[info] (abc) created employee 1")
	assert.NotContains(t, buffer.String(), "hidden")
}

func TestCounter(t *testing.T) {
	counter := utilities.NewCounter()
	counter.IncrementHit("employee_read")
	counter.IncrementHit("employee_read")
	counter.IncrementMiss("employee_read")
	hits, misses := counter.Read("employee_read")
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 2, counter.ReadAll().CounterHits["employee_read"])
	counter.Reset()
	hits, misses = counter.Read("employee_read")
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestTimers(t *testing.T) {
	timers := utilities.NewTimers()
	index := timers.Start("employee_read")
	assert.GreaterOrEqual(t, timers.Stop("employee_read", index), int64(0))
	assert.Equal(t, int64(-1), timers.Stop("employee_read", index+1))
	assert.Equal(t, int64(-1), timers.Stop("unknown", 0))
	_ = timers.Start("employee_read")
	all := timers.ReadAll()
	assert.Contains(t, all.Totals, "employee_read")
	assert.Contains(t, all.Averages, "employee_read")
	timers.Clear()
	assert.Empty(t, timers.ReadAll().Totals)
}
