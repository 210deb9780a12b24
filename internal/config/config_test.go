package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GS-Bacon/claude-todo/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, "2022-06-28", cfg.Notion.APIVersion)
	assert.Equal(t, "Task Manager", cfg.Discord.Username)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "UTC", cfg.Scheduler.Timezone)
	assert.Equal(t, "*/15 * * * *", cfg.Scheduler.SyncCron)
	assert.False(t, cfg.TaskSync.Enabled)
	assert.True(t, cfg.TaskSync.SyncUpdates)
	assert.False(t, cfg.Notion.Configured())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
notion:
  api_key: secret
  team_database_id: db-team
task_sync:
  enabled: true
  assignees: [alice]
  tags: [review]
  title_prefix: "[team] "
storage:
  sqlite_path: /tmp/tasks.db
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.True(t, cfg.Notion.Configured())
	assert.Equal(t, "db-team", cfg.Notion.TeamDatabaseID)
	assert.True(t, cfg.TaskSync.Enabled)
	assert.Equal(t, []string{"alice"}, cfg.TaskSync.Assignees)
	assert.Equal(t, []string{"review"}, cfg.TaskSync.Tags)
	assert.Equal(t, "[team] ", cfg.TaskSync.TitlePrefix)
	assert.Equal(t, "/tmp/tasks.db", cfg.Storage.SQLitePath)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("TASKHUB_SERVER_PORT", "7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}
