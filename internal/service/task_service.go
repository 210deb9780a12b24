package service

import (
	"context"
	"fmt"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/cache"
	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/repository"
)

// SyncCounts reports how many tasks each bulk cache refresh loaded.
type SyncCounts struct {
	TeamTasks     int `json:"team_tasks"`
	PersonalTasks int `json:"personal_tasks"`
}

// TaskService is a read-through cache facade over the team and personal
// repositories. Listing reads exclusively from the cache snapshot; SyncFrom*
// are the only paths that refresh it from the stores.
type TaskService struct {
	teamRepo     repository.TaskRepository
	personalRepo repository.TaskRepository
	cache        cache.Cache
	now          func() time.Time
}

func NewTaskService(teamRepo, personalRepo repository.TaskRepository, c cache.Cache) *TaskService {
	return &TaskService{
		teamRepo:     teamRepo,
		personalRepo: personalRepo,
		cache:        c,
		now:          time.Now,
	}
}

// WithClock overrides the time source. Tests use a fixed clock.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// GetTask returns the task from cache, falling back to the team then the
// personal repository. A repository hit populates the cache. A total miss
// returns (nil, nil).
func (s *TaskService) GetTask(ctx context.Context, id model.TaskID) (*model.Task, error) {
	cached, err := s.cache.Get(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	task, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		task, err = s.personalRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	if task != nil {
		if err := s.cache.Set(ctx, string(id), *task, 0); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// ListTasks filters the cache snapshot. A nil filter returns the unfiltered,
// unsliced snapshot. Repositories are never consulted; callers wanting fresh
// data sync first.
func (s *TaskService) ListTasks(ctx context.Context, filter *model.TaskFilter) ([]model.Task, error) {
	tasks, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return tasks, nil
	}
	return filter.Apply(tasks), nil
}

// CreateTask writes the task to the personal or team repository per the flag
// and mirrors the created value into the cache.
func (s *TaskService) CreateTask(ctx context.Context, task model.Task, personal bool) (*model.Task, error) {
	repo := s.teamRepo
	if personal {
		repo = s.personalRepo
	}
	created, err := repo.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, string(created.ID), *created, 0); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTask routes the update to whichever repository holds the task,
// probing team first. Not found in either fails with ErrNotFound.
func (s *TaskService) UpdateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	var updated *model.Task

	inTeam, err := s.teamRepo.Exists(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	switch {
	case inTeam:
		updated, err = s.teamRepo.Update(ctx, task)
	default:
		var inPersonal bool
		inPersonal, err = s.personalRepo.Exists(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		if !inPersonal {
			return nil, fmt.Errorf("task %s: %w", task.ID, repository.ErrNotFound)
		}
		updated, err = s.personalRepo.Update(ctx, task)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, string(updated.ID), *updated, 0); err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateTaskStatus loads the task, replaces its status, bumps UpdatedAt and
// delegates to UpdateTask.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, id model.TaskID, status model.Status) (*model.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", id, repository.ErrNotFound)
	}

	updated := task.Clone()
	updated.Status = status
	updated.UpdatedAt = s.now()
	return s.UpdateTask(ctx, updated)
}

// DeleteTask tries the team repository first, then the personal one. Either
// success also invalidates the cache entry. Both missing yields false.
func (s *TaskService) DeleteTask(ctx context.Context, id model.TaskID) (bool, error) {
	deleted, err := s.teamRepo.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		deleted, err = s.personalRepo.Delete(ctx, id)
		if err != nil {
			return false, err
		}
	}
	if deleted {
		if _, err := s.cache.Invalidate(ctx, string(id)); err != nil {
			return false, err
		}
	}
	return deleted, nil
}

// SyncFromTeam bulk-loads the team repository into the cache. Entries for
// tasks deleted upstream since the last sync are not removed.
func (s *TaskService) SyncFromTeam(ctx context.Context) (int, error) {
	return s.syncRepo(ctx, s.teamRepo)
}

// SyncFromPersonal bulk-loads the personal repository into the cache.
func (s *TaskService) SyncFromPersonal(ctx context.Context) (int, error) {
	return s.syncRepo(ctx, s.personalRepo)
}

func (s *TaskService) syncRepo(ctx context.Context, repo repository.TaskRepository) (int, error) {
	tasks, err := repo.ListTasks(ctx, nil)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[string(t.ID)] = t
	}
	if err := s.cache.SetMany(ctx, byID); err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// SyncAll refreshes the cache from both repositories.
func (s *TaskService) SyncAll(ctx context.Context) (SyncCounts, error) {
	teamCount, err := s.SyncFromTeam(ctx)
	if err != nil {
		return SyncCounts{}, err
	}
	personalCount, err := s.SyncFromPersonal(ctx)
	if err != nil {
		return SyncCounts{TeamTasks: teamCount}, err
	}
	return SyncCounts{TeamTasks: teamCount, PersonalTasks: personalCount}, nil
}

// GetTasksDueToday returns cached tasks whose due date is today.
func (s *TaskService) GetTasksDueToday(ctx context.Context) ([]model.Task, error) {
	all, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var due []model.Task
	for _, t := range all {
		if t.IsDueToday(now) {
			due = append(due, t)
		}
	}
	return due, nil
}

// GetOverdueTasks returns cached tasks past their due date and not done.
func (s *TaskService) GetOverdueTasks(ctx context.Context) ([]model.Task, error) {
	all, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var overdue []model.Task
	for _, t := range all {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
	}
	return overdue, nil
}
