package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/repository"
)

func newTask(id, title string) model.Task {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return model.Task{
		ID:        model.TaskID(id),
		Title:     title,
		Status:    model.StatusTodo,
		Priority:  model.PriorityMedium,
		Source:    model.SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInMemoryCreateAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()

	created, err := repo.Create(ctx, newTask("t1", "First"))
	require.NoError(t, err)
	assert.Equal(t, "First", created.Title)

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Title)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInMemoryCreateDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()

	_, err := repo.Create(ctx, newTask("t1", "First"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newTask("t1", "Again"))
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestInMemoryUpdateMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()

	_, err := repo.Update(ctx, newTask("ghost", "Ghost"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInMemoryDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()

	_, err := repo.Create(ctx, newTask("t1", "First"))
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := repo.Exists(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInMemoryListPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()

	for _, id := range []string{"c", "a", "b"} {
		_, err := repo.Create(ctx, newTask(id, id))
		require.NoError(t, err)
	}

	tasks, err := repo.ListTasks(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, model.TaskID("c"), tasks[0].ID)
	assert.Equal(t, model.TaskID("a"), tasks[1].ID)
	assert.Equal(t, model.TaskID("b"), tasks[2].ID)
}

func TestInMemoryListAppliesFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()

	done := newTask("d1", "Done")
	done.Status = model.StatusDone
	_, err := repo.Create(ctx, done)
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTask("t1", "Open"))
	require.NoError(t, err)

	tasks, err := repo.ListTasks(ctx, &model.TaskFilter{Status: []model.Status{model.StatusDone}})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskID("d1"), tasks[0].ID)
}

func TestInMemoryConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("t%d", n)
			for j := 0; j < 100; j++ {
				_, err := repo.Create(ctx, newTask(id, id))
				if err != nil {
					require.ErrorIs(t, err, repository.ErrDuplicate)
				}
				if _, err := repo.Update(ctx, newTask(id, "updated")); err != nil {
					require.ErrorIs(t, err, repository.ErrNotFound)
				}
				_, err = repo.Delete(ctx, model.TaskID(id))
				require.NoError(t, err)
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := repo.ListTasks(ctx, nil)
				require.NoError(t, err)
				_, err = repo.GetByID(ctx, model.TaskID(fmt.Sprintf("t%d", n)))
				require.NoError(t, err)
				_, err = repo.Exists(ctx, model.TaskID(fmt.Sprintf("t%d", n)))
				require.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestInMemoryReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()

	task := newTask("t1", "First")
	task.Tags = []string{"a"}
	_, err := repo.Create(ctx, task)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	got.Tags[0] = "mutated"
	got.Title = "mutated"

	again, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "First", again.Title)
	assert.Equal(t, "a", again.Tags[0])
}
