package cache

import (
	"context"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// Cache holds the task snapshot the service layer reads from. Get returns
// (nil, nil) on a miss. TTL is advisory; implementations may ignore it.
type Cache interface {
	Get(ctx context.Context, key string) (*model.Task, error)
	GetAll(ctx context.Context) ([]model.Task, error)
	Set(ctx context.Context, key string, task model.Task, ttl time.Duration) error
	SetMany(ctx context.Context, tasks map[string]model.Task) error
	Invalidate(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
}
