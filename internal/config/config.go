package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig is the full application configuration, loaded from a YAML file
// with TASKHUB_* environment overrides.
type AppConfig struct {
	Server       ServerConfig       `mapstructure:"server"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Notion       NotionConfig       `mapstructure:"notion"`
	Discord      DiscordConfig      `mapstructure:"discord"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	PrintWebhook PrintWebhookConfig `mapstructure:"print_webhook"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	TaskSync     TaskSyncConfig     `mapstructure:"task_sync"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

type NotionConfig struct {
	APIKey             string `mapstructure:"api_key"`
	APIVersion         string `mapstructure:"api_version"`
	TeamDatabaseID     string `mapstructure:"team_database_id"`
	PersonalDatabaseID string `mapstructure:"personal_database_id"`
}

func (c NotionConfig) Configured() bool {
	return c.APIKey != "" && (c.TeamDatabaseID != "" || c.PersonalDatabaseID != "")
}

type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Username   string `mapstructure:"username"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

type PrintWebhookConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

type SchedulerConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Timezone       string   `mapstructure:"timezone"`
	SyncCron       string   `mapstructure:"sync_cron"`
	RulesCron      string   `mapstructure:"rules_cron"`
	DueCron        string   `mapstructure:"due_cron"`
	OverdueCron    string   `mapstructure:"overdue_cron"`
	SummaryCron    string   `mapstructure:"summary_cron"`
	NotifyChannels []string `mapstructure:"notify_channels"`
}

type TaskSyncConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Assignees   []string `mapstructure:"assignees"`
	Tags        []string `mapstructure:"tags"`
	TitlePrefix string   `mapstructure:"title_prefix"`
	SyncUpdates bool     `mapstructure:"sync_updates"`
}

// Load reads configuration from the given file path. An empty path falls
// back to config.yaml in the working directory; a missing file is not an
// error, defaults and environment variables still apply.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TASKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("notion.api_version", "2022-06-28")

	v.SetDefault("discord.username", "Task Manager")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.sync_cron", "*/15 * * * *")
	v.SetDefault("scheduler.rules_cron", "*/30 * * * *")
	v.SetDefault("scheduler.due_cron", "0 9 * * *")
	v.SetDefault("scheduler.overdue_cron", "0 10 * * *")
	v.SetDefault("scheduler.summary_cron", "0 18 * * *")

	v.SetDefault("task_sync.enabled", false)
	v.SetDefault("task_sync.sync_updates", true)
	v.SetDefault("task_sync.title_prefix", "")
}
