package cache

import (
	"context"
	"sync"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// InMemoryCache is a mutex-guarded keyed map with no expiry. The TTL argument
// is accepted and ignored. Safe for concurrent use: the HTTP handlers and the
// scheduled jobs share one instance.
type InMemoryCache struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{tasks: make(map[string]model.Task)}
}

func (c *InMemoryCache) Get(ctx context.Context, key string) (*model.Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	task, ok := c.tasks[key]
	if !ok {
		return nil, nil
	}
	out := task.Clone()
	return &out, nil
}

func (c *InMemoryCache) GetAll(ctx context.Context) ([]model.Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tasks := make([]model.Task, 0, len(c.tasks))
	for _, task := range c.tasks {
		tasks = append(tasks, task.Clone())
	}
	return tasks, nil
}

func (c *InMemoryCache) Set(ctx context.Context, key string, task model.Task, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks[key] = task.Clone()
	return nil
}

func (c *InMemoryCache) SetMany(ctx context.Context, tasks map[string]model.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, task := range tasks {
		c.tasks[key] = task.Clone()
	}
	return nil
}

func (c *InMemoryCache) Invalidate(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tasks[key]; !ok {
		return false, nil
	}
	delete(c.tasks, key)
	return true, nil
}

func (c *InMemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = make(map[string]model.Task)
	return nil
}
