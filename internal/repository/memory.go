package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// InMemoryTaskRepository is a map-backed store. Listing preserves insertion
// order. Guarded by a mutex: HTTP handlers and scheduled jobs share one
// instance.
type InMemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]model.Task
	order []model.TaskID
}

func NewInMemoryTaskRepository() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{tasks: make(map[model.TaskID]model.Task)}
}

func (r *InMemoryTaskRepository) GetByID(ctx context.Context, id model.TaskID) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	out := task.Clone()
	return &out, nil
}

func (r *InMemoryTaskRepository) ListTasks(ctx context.Context, filter *model.TaskFilter) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]model.Task, 0, len(r.order))
	for _, id := range r.order {
		if task, ok := r.tasks[id]; ok {
			tasks = append(tasks, task.Clone())
		}
	}
	return filter.Apply(tasks), nil
}

func (r *InMemoryTaskRepository) Create(ctx context.Context, task model.Task) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; ok {
		return nil, fmt.Errorf("create task %s: %w", task.ID, ErrDuplicate)
	}
	r.tasks[task.ID] = task.Clone()
	r.order = append(r.order, task.ID)
	out := task.Clone()
	return &out, nil
}

func (r *InMemoryTaskRepository) Update(ctx context.Context, task model.Task) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return nil, fmt.Errorf("update task %s: %w", task.ID, ErrNotFound)
	}
	r.tasks[task.ID] = task.Clone()
	out := task.Clone()
	return &out, nil
}

func (r *InMemoryTaskRepository) Delete(ctx context.Context, id model.TaskID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *InMemoryTaskRepository) Exists(ctx context.Context, id model.TaskID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tasks[id]
	return ok, nil
}
