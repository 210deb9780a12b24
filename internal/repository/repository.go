package repository

import (
	"context"
	"errors"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

var (
	// ErrNotFound is returned when a task is absent from the store.
	ErrNotFound = errors.New("task not found")
	// ErrDuplicate is returned when creating a task whose ID already exists.
	ErrDuplicate = errors.New("task already exists")
)

// TaskRepository is the persistence contract shared by the in-memory store,
// the SQLite store and the Notion adapter. GetByID returns (nil, nil) when the
// task does not exist; absence is not an error on the read path.
type TaskRepository interface {
	GetByID(ctx context.Context, id model.TaskID) (*model.Task, error)
	ListTasks(ctx context.Context, filter *model.TaskFilter) ([]model.Task, error)
	Create(ctx context.Context, task model.Task) (*model.Task, error)
	Update(ctx context.Context, task model.Task) (*model.Task, error)
	Delete(ctx context.Context, id model.TaskID) (bool, error)
	Exists(ctx context.Context, id model.TaskID) (bool, error)
}
