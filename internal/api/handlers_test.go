package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/GS-Bacon/claude-todo/internal/api"
	"github.com/GS-Bacon/claude-todo/internal/cache"
	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/repository"
	"github.com/GS-Bacon/claude-todo/internal/service"
	"github.com/GS-Bacon/claude-todo/internal/webhook"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	team     *repository.InMemoryTaskRepository
	personal *repository.InMemoryTaskRepository
	cache    *cache.InMemoryCache
	server   *api.Server
}

func newTestEnv() *testEnv {
	team := repository.NewInMemoryTaskRepository()
	personal := repository.NewInMemoryTaskRepository()
	c := cache.NewInMemoryCache()

	tasks := service.NewTaskService(team, personal, c)
	mentions := service.NewMentionService(personal, []webhook.Parser{
		webhook.NewSlackParser(),
		webhook.NewDiscordParser(),
	})
	notifications := service.NewNotificationService(c)

	return &testEnv{
		team:     team,
		personal: personal,
		cache:    c,
		server:   api.NewServer(tasks, mentions, notifications),
	}
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Engine().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedTeam(t *testing.T, id, title string) model.Task {
	t.Helper()
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	task := model.Task{
		ID:        model.TaskID(id),
		Title:     title,
		Status:    model.StatusTodo,
		Priority:  model.PriorityMedium,
		Source:    model.SourceNotionTeam,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := e.team.Create(context.Background(), task)
	require.NoError(t, err)
	return task
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.seedTeam(t, "t1", "Review doc")

	rec := env.do(http.MethodGet, "/tasks/t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Review doc", gjson.Get(rec.Body.String(), "title").String())

	rec = env.do(http.MethodGet, "/tasks/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", gjson.Get(rec.Body.String(), "kind").String())
}

func TestListTasksReadsCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.seedTeam(t, "t1", "Synced")

	// Listing reads the cache; before a sync it is empty.
	rec := env.do(http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), gjson.Get(rec.Body.String(), "count").Int())

	rec = env.do(http.MethodPost, "/tasks/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "team_tasks").Int())

	rec = env.do(http.MethodGet, "/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "count").Int())
}

func TestListTasksInvalidStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec := env.do(http.MethodGet, "/tasks?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", gjson.Get(rec.Body.String(), "kind").String())
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec := env.do(http.MethodPost, "/tasks", map[string]any{
		"title":    "New task",
		"priority": "high",
		"tags":     []string{"api"},
		"personal": true,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "New task", gjson.Get(body, "title").String())
	assert.Equal(t, "high", gjson.Get(body, "priority").String())

	id := gjson.Get(body, "id").String()
	exists, err := env.personal.Exists(context.Background(), model.TaskID(id))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv()

	rec := env.do(http.MethodPost, "/tasks", map[string]any{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/tasks", map[string]any{"title": "x", "priority": "extreme"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", gjson.Get(rec.Body.String(), "kind").String())
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.seedTeam(t, "t1", "Before")

	rec := env.do(http.MethodPatch, "/tasks/t1", map[string]any{"title": "After"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "After", gjson.Get(rec.Body.String(), "title").String())

	rec = env.do(http.MethodPatch, "/tasks/missing", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.seedTeam(t, "t1", "Task")

	rec := env.do(http.MethodPatch, "/tasks/t1/status", map[string]any{"status": "done"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", gjson.Get(rec.Body.String(), "status").String())

	// Invalid status is a validation failure, not a 404.
	rec = env.do(http.MethodPatch, "/tasks/t1/status", map[string]any{"status": "finished"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", gjson.Get(rec.Body.String(), "kind").String())

	rec = env.do(http.MethodPatch, "/tasks/missing/status", map[string]any{"status": "done"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", gjson.Get(rec.Body.String(), "kind").String())
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.seedTeam(t, "t1", "Doomed")

	rec := env.do(http.MethodDelete, "/tasks/t1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodDelete, "/tasks/t1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDueTodayAndOverdueEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	today := time.Now().Add(time.Minute)
	past := time.Now().AddDate(0, 0, -2)
	require.NoError(t, env.cache.SetMany(ctx, map[string]model.Task{
		"due":     {ID: "due", Title: "Due", DueDate: &today, Status: model.StatusTodo},
		"overdue": {ID: "overdue", Title: "Late", DueDate: &past, Status: model.StatusTodo},
	}))

	rec := env.do(http.MethodGet, "/tasks/due/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "count").Int())

	rec = env.do(http.MethodGet, "/tasks/overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "count").Int())
}

func TestSlackURLVerification(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec := env.do(http.MethodPost, "/webhooks/slack", map[string]any{
		"type":      "url_verification",
		"challenge": "abc123",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", gjson.Get(rec.Body.String(), "challenge").String())
}

func TestSlackWebhookCreatesTask(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec := env.do(http.MethodPost, "/webhooks/slack", map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type":    "app_mention",
			"channel": "C1",
			"user":    "U1",
			"text":    "<@BOT> Prepare agenda #meeting",
			"ts":      "1705312800.000100",
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.True(t, gjson.Get(body, "handled").Bool())
	assert.Equal(t, "Prepare agenda", gjson.Get(body, "task.title").String())

	tasks, err := env.personal.ListTasks(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestDiscordPing(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec := env.do(http.MethodPost, "/webhooks/discord", map[string]any{"type": 1})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "type").Int())
}

func TestWebhookUnhandledPayload(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	rec := env.do(http.MethodPost, "/webhooks/slack", map[string]any{"type": "unknown_thing"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "handled").Bool())
}
