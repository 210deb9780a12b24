package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"todo", "in_progress", "done", "blocked"} {
		status, err := model.ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, model.Status(valid), status)
	}

	_, err := model.ParseStatus("finished")
	require.ErrorIs(t, err, model.ErrInvalidValue)
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"low", "medium", "high", "urgent"} {
		priority, err := model.ParsePriority(valid)
		require.NoError(t, err)
		assert.Equal(t, model.Priority(valid), priority)
	}

	_, err := model.ParsePriority("critical")
	require.ErrorIs(t, err, model.ErrInvalidValue)
	assert.True(t, errors.Is(err, model.ErrInvalidValue))
}

func TestNewTaskDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	task := model.NewTask("Write report", now)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, model.StatusTodo, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Equal(t, model.SourceManual, task.Source)
	assert.Equal(t, now, task.CreatedAt)
	assert.Equal(t, now, task.UpdatedAt)
}

func TestNotionTaskID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.TaskID("notion:abc-123"), model.NotionTaskID("abc-123"))
}

func TestIsDueToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		due  *time.Time
		want bool
	}{
		{name: "NoDueDate", due: nil, want: false},
		{name: "SameDay", due: timePtr(time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)), want: true},
		{name: "EarlierSameDay", due: timePtr(time.Date(2024, 1, 15, 0, 1, 0, 0, time.UTC)), want: true},
		{name: "Tomorrow", due: timePtr(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)), want: false},
		{name: "Yesterday", due: timePtr(time.Date(2024, 1, 14, 14, 0, 0, 0, time.UTC)), want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			task := model.Task{DueDate: tc.due}
			assert.Equal(t, tc.want, task.IsDueToday(now))
		})
	}
}

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	past := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	future := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name   string
		due    *time.Time
		status model.Status
		want   bool
	}{
		{name: "NoDueDate", due: nil, status: model.StatusTodo, want: false},
		{name: "PastDue", due: &past, status: model.StatusTodo, want: true},
		{name: "PastDueButDone", due: &past, status: model.StatusDone, want: false},
		{name: "FutureDue", due: &future, status: model.StatusTodo, want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			task := model.Task{DueDate: tc.due, Status: tc.status}
			assert.Equal(t, tc.want, task.IsOverdue(now))
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	original := model.Task{
		ID:       model.NewTaskID(),
		Title:    "Original",
		Tags:     []string{"a", "b"},
		DueDate:  &due,
		Metadata: map[string]any{"key": "value"},
	}

	clone := original.Clone()
	require.Empty(t, cmp.Diff(original, clone))

	clone.Tags[0] = "mutated"
	clone.Metadata["key"] = "mutated"
	*clone.DueDate = due.AddDate(0, 0, 1)

	assert.Equal(t, "a", original.Tags[0])
	assert.Equal(t, "value", original.Metadata["key"])
	assert.Equal(t, due, *original.DueDate)
}

func timePtr(t time.Time) *time.Time { return &t }
