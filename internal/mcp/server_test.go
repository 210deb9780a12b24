package mcp_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/GS-Bacon/claude-todo/internal/cache"
	"github.com/GS-Bacon/claude-todo/internal/mcp"
	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/repository"
	"github.com/GS-Bacon/claude-todo/internal/service"
)

func newTestServer(t *testing.T) (*mcp.Server, *repository.InMemoryTaskRepository) {
	t.Helper()
	team := repository.NewInMemoryTaskRepository()
	personal := repository.NewInMemoryTaskRepository()
	tasks := service.NewTaskService(team, personal, cache.NewInMemoryCache())
	return mcp.NewServer(tasks), team
}

// roundTrip feeds newline-delimited requests to the server and returns the
// response lines.
func roundTrip(t *testing.T, server *mcp.Server, requests ...string) []string {
	t.Helper()

	input := strings.Join(requests, "\n") + "\n"
	var out bytes.Buffer
	err := server.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	return lines
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	lines := roundTrip(t, server, `{"jsonrpc": "2.0", "id": 1, "method": "initialize"}`)

	require.Len(t, lines, 1)
	resp := lines[0]
	assert.Equal(t, "2024-11-05", gjson.Get(resp, "result.protocolVersion").String())
	assert.Equal(t, "claude-todo", gjson.Get(resp, "result.serverInfo.name").String())
}

func TestToolsList(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	lines := roundTrip(t, server, `{"jsonrpc": "2.0", "id": 2, "method": "tools/list"}`)

	require.Len(t, lines, 1)
	tools := gjson.Get(lines[0], "result.tools.#.name").Array()

	var names []string
	for _, tool := range tools {
		names = append(names, tool.String())
	}
	assert.Contains(t, names, "list_tasks")
	assert.Contains(t, names, "create_task")
	assert.Contains(t, names, "complete_task")
	assert.Contains(t, names, "sync_tasks")
	assert.Contains(t, names, "get_summary")
}

func TestUnknownMethod(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	lines := roundTrip(t, server, `{"jsonrpc": "2.0", "id": 3, "method": "bogus"}`)

	require.Len(t, lines, 1)
	assert.Equal(t, int64(-32601), gjson.Get(lines[0], "error.code").Int())
}

func TestCallCreateAndCompleteTask(t *testing.T) {
	t.Parallel()

	server, team := newTestServer(t)

	createReq := `{"jsonrpc": "2.0", "id": 4, "method": "tools/call", "params": {"name": "create_task", "arguments": {"title": "From agent", "priority": "high", "tags": ["mcp"]}}}`
	lines := roundTrip(t, server, createReq)
	require.Len(t, lines, 1)

	content := gjson.Get(lines[0], "result.content.0.text").String()
	assert.Equal(t, "From agent", gjson.Get(content, "task.title").String())
	assert.Equal(t, "high", gjson.Get(content, "task.priority").String())
	taskID := gjson.Get(content, "task.id").String()
	require.NotEmpty(t, taskID)

	tasks, err := team.ListTasks(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	completeReq := `{"jsonrpc": "2.0", "id": 5, "method": "tools/call", "params": {"name": "complete_task", "arguments": {"task_id": "` + taskID + `"}}}`
	lines = roundTrip(t, server, completeReq)
	require.Len(t, lines, 1)

	content = gjson.Get(lines[0], "result.content.0.text").String()
	assert.Equal(t, "done", gjson.Get(content, "task.status").String())
}

func TestCallUnknownTool(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	lines := roundTrip(t, server, `{"jsonrpc": "2.0", "id": 6, "method": "tools/call", "params": {"name": "nope", "arguments": {}}}`)

	require.Len(t, lines, 1)
	assert.True(t, gjson.Get(lines[0], "result.isError").Bool())
	assert.Contains(t, gjson.Get(lines[0], "result.content.0.text").String(), "unknown tool")
}

func TestCallGetTaskMissing(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	lines := roundTrip(t, server, `{"jsonrpc": "2.0", "id": 7, "method": "tools/call", "params": {"name": "get_task", "arguments": {"task_id": "ghost"}}}`)

	require.Len(t, lines, 1)
	assert.True(t, gjson.Get(lines[0], "result.isError").Bool())
}

func TestCallListTasksAfterSync(t *testing.T) {
	t.Parallel()

	server, team := newTestServer(t)
	due := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := team.Create(context.Background(), model.Task{
		ID:       "t1",
		Title:    "Seeded",
		Status:   model.StatusTodo,
		Priority: model.PriorityLow,
		DueDate:  &due,
	})
	require.NoError(t, err)

	lines := roundTrip(t, server,
		`{"jsonrpc": "2.0", "id": 8, "method": "tools/call", "params": {"name": "sync_tasks", "arguments": {}}}`,
		`{"jsonrpc": "2.0", "id": 9, "method": "tools/call", "params": {"name": "list_tasks", "arguments": {}}}`,
	)
	require.Len(t, lines, 2)

	syncContent := gjson.Get(lines[0], "result.content.0.text").String()
	assert.Equal(t, int64(1), gjson.Get(syncContent, "team_tasks_synced").Int())

	listContent := gjson.Get(lines[1], "result.content.0.text").String()
	assert.Equal(t, int64(1), gjson.Get(listContent, "total").Int())
	assert.Equal(t, "Seeded", gjson.Get(listContent, "tasks.0.title").String())
}
