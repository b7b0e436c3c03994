package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"
)

type memoryEntry struct {
	employee *data.Employee
	written  int64 //unix nano
}

type memoryCache struct {
	sync.RWMutex
	sync.WaitGroup
	employees map[int64]*memoryEntry //map[id]entry
	config    struct {
		pruneInterval time.Duration
		ttl           time.Duration
	}
	ctx       context.Context
	ctxCancel context.CancelFunc
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &memoryCache{
		employees: make(map[int64]*memoryEntry),
		Logger:    utilities.NewNopLogger(),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *memoryCache) expired(entry *memoryEntry) bool {
	return c.config.ttl > 0 &&
		time.Since(time.Unix(0, entry.written)) > c.config.ttl
}

func (c *memoryCache) launchPrune() {
	started := make(chan struct{})
	c.Add(1)
	go func() {
		defer c.Done()

		pruneFx := func() {
			c.Lock()
			defer c.Unlock()

			for id, entry := range c.employees {
				if c.expired(entry) {
					delete(c.employees, id)
				}
			}
		}
		tPrune := time.NewTicker(c.config.pruneInterval)
		defer tPrune.Stop()
		close(started)
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-tPrune.C:
				pruneFx()
			}
		}
	}()
	<-started
}

func (c *memoryCache) Configure(envs map[string]string) error {
	if s, ok := envs["CACHE_PRUNE_INTERVAL"]; ok {
		pruneInterval, _ := strconv.Atoi(s)
		c.config.pruneInterval = time.Second * time.Duration(pruneInterval)
	}
	if c.config.pruneInterval <= 0 {
		c.config.pruneInterval = 10 * time.Second
	}
	if s, ok := envs["CACHE_TTL"]; ok {
		ttl, _ := strconv.Atoi(s)
		c.config.ttl = time.Second * time.Duration(ttl)
	}
	return nil
}

func (c *memoryCache) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[int64]*memoryEntry)
	if c.config.ttl > 0 {
		if c.config.pruneInterval <= 0 {
			c.config.pruneInterval = 10 * time.Second
		}
		c.ctx, c.ctxCancel = context.WithCancel(context.Background())
		c.launchPrune()
	}
	return nil
}

func (c *memoryCache) Close(ctx context.Context) error {
	if c.ctxCancel != nil {
		c.ctxCancel()
		c.Wait()
	}
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees = make(map[int64]*memoryEntry)
	c.Trace(ctx, "cleared memory cache")
	return nil
}

func (c *memoryCache) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	c.RLock()
	defer c.RUnlock()

	entry, ok := c.employees[id]
	if !ok || c.expired(entry) {
		return nil, ErrEmployeeNotCached
	}
	return copyEmployee(entry.employee), nil
}

func (c *memoryCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	tNow := time.Now().UnixNano()
	for _, e := range employees {
		c.employees[e.Id] = &memoryEntry{
			employee: copyEmployee(e),
			written:  tNow,
		}
	}
	return nil
}

func (c *memoryCache) EmployeesDelete(ctx context.Context, ids ...int64) error {
	c.Lock()
	defer c.Unlock()

	for _, id := range ids {
		delete(c.employees, id)
	}
	return nil
}
