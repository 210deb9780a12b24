package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/cache"
	"github.com/GS-Bacon/claude-todo/internal/config"
	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/notify"
	"github.com/GS-Bacon/claude-todo/internal/repository"
	"github.com/GS-Bacon/claude-todo/internal/scheduler"
	"github.com/GS-Bacon/claude-todo/internal/service"
	"github.com/GS-Bacon/claude-todo/internal/webhook"
)

// app holds the fully wired object graph. Everything is constructed
// explicitly from the config, no global state.
type app struct {
	cfg           *config.AppConfig
	taskService   *service.TaskService
	syncService   *service.SyncService
	mentions      *service.MentionService
	notifications *service.NotificationService
	scheduler     *scheduler.Scheduler
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	teamRepo, personalRepo, err := buildRepositories(cfg)
	if err != nil {
		return nil, err
	}

	taskCache := cache.NewInMemoryCache()
	taskService := service.NewTaskService(teamRepo, personalRepo, taskCache)

	mentions := service.NewMentionService(personalRepo, []webhook.Parser{
		webhook.NewSlackParser(),
		webhook.NewDiscordParser(),
	})

	notifications := service.NewNotificationService(taskCache, buildSenders(cfg)...)

	syncService := service.NewSyncService(teamRepo, personalRepo, "team", "personal")
	if cfg.TaskSync.Enabled {
		syncService.AddRule(buildSyncRule(cfg.TaskSync))
	}

	sched, err := buildScheduler(cfg, taskService, syncService, notifications)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:           cfg,
		taskService:   taskService,
		syncService:   syncService,
		mentions:      mentions,
		notifications: notifications,
		scheduler:     sched,
	}, nil
}

// buildRepositories selects backing stores from the config. Notion wins when
// configured; the personal side falls back to SQLite when a path is set so
// locally created tasks survive restarts.
func buildRepositories(cfg *config.AppConfig) (team, personal repository.TaskRepository, err error) {
	var client *repository.NotionClient
	if cfg.Notion.Configured() {
		client = repository.NewNotionClient(cfg.Notion.APIKey, cfg.Notion.APIVersion, "")
	}

	if client != nil && cfg.Notion.TeamDatabaseID != "" {
		team = repository.NewNotionTaskRepository(client, cfg.Notion.TeamDatabaseID,
			model.SourceNotionTeam, repository.DefaultNotionSchema())
	} else {
		team = repository.NewInMemoryTaskRepository()
	}

	switch {
	case client != nil && cfg.Notion.PersonalDatabaseID != "":
		personal = repository.NewNotionTaskRepository(client, cfg.Notion.PersonalDatabaseID,
			model.SourceNotionPersonal, repository.DefaultNotionSchema())
	case cfg.Storage.SQLitePath != "":
		db, dbErr := repository.NewDB(cfg.Storage.SQLitePath)
		if dbErr != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", dbErr)
		}
		personal = repository.NewSQLiteTaskRepository(db)
	default:
		personal = repository.NewInMemoryTaskRepository()
	}
	return team, personal, nil
}

func buildSenders(cfg *config.AppConfig) []notify.Sender {
	var senders []notify.Sender
	if cfg.Discord.WebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Discord.WebhookURL, cfg.Discord.Username))
	}
	if cfg.PrintWebhook.URL != "" {
		senders = append(senders, notify.NewPrintWebhookSender(cfg.PrintWebhook.URL, cfg.PrintWebhook.APIKey))
	}
	if cfg.Telegram.Token != "" {
		sender, err := notify.NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Printf("telegram sender disabled: %v", err)
		} else {
			senders = append(senders, sender)
		}
	}
	return senders
}

func buildSyncRule(cfg config.TaskSyncConfig) service.SyncRule {
	var filters []service.TaskPredicate
	for _, assignee := range cfg.Assignees {
		filters = append(filters, service.AssigneeFilter(assignee))
	}
	for _, tag := range cfg.Tags {
		filters = append(filters, service.TagFilter(tag))
	}

	// No criteria means replicate everything.
	filter := service.TaskPredicate(func(model.Task) bool { return true })
	if len(filters) > 0 {
		filter = service.CombineFilters(service.CombineOr, filters...)
	}

	rule := service.NewSyncRule("configured", filter)
	rule.SyncUpdates = cfg.SyncUpdates
	if cfg.TitlePrefix != "" {
		rule.FieldMapper = service.PrefixTitleMapper(cfg.TitlePrefix)
	}
	return rule
}

func buildScheduler(cfg *config.AppConfig, tasks *service.TaskService, syncSvc *service.SyncService, notifications *service.NotificationService) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}

	sched := scheduler.New(scheduler.NewRegistry(), loc)
	channels := cfg.Scheduler.NotifyChannels

	jobs := []*scheduler.Job{
		{
			Name:        "sync_tasks",
			Cron:        cfg.Scheduler.SyncCron,
			Description: "Refresh the cache from the team and personal repositories",
			Enabled:     true,
			Run: func(ctx context.Context) error {
				counts, err := tasks.SyncAll(ctx)
				if err != nil {
					return err
				}
				log.Printf("sync: %d team, %d personal", counts.TeamTasks, counts.PersonalTasks)
				return nil
			},
		},
		{
			Name:        "run_sync_rules",
			Cron:        cfg.Scheduler.RulesCron,
			Description: "Replicate filtered team tasks into the personal repository",
			Enabled:     cfg.TaskSync.Enabled,
			Run: func(ctx context.Context) error {
				for _, result := range syncSvc.Sync(ctx, "") {
					log.Printf("rule %s: created=%d updated=%d skipped=%d errors=%d",
						result.RuleName, result.Created, result.Updated, result.Skipped, len(result.Errors))
				}
				return nil
			},
		},
		{
			Name:        "send_due_notifications",
			Cron:        cfg.Scheduler.DueCron,
			Description: "Notify about tasks due today",
			Enabled:     true,
			Run: func(ctx context.Context) error {
				_, err := notifications.SendDueNotifications(ctx, channels)
				return err
			},
		},
		{
			Name:        "send_overdue_notifications",
			Cron:        cfg.Scheduler.OverdueCron,
			Description: "Notify about overdue tasks",
			Enabled:     true,
			Run: func(ctx context.Context) error {
				_, err := notifications.SendOverdueNotifications(ctx, channels)
				return err
			},
		},
		{
			Name:        "send_daily_summary",
			Cron:        cfg.Scheduler.SummaryCron,
			Description: "Send the daily task summary",
			Enabled:     true,
			Run: func(ctx context.Context) error {
				_, err := notifications.SendDailySummary(ctx, channels)
				return err
			},
		},
	}

	for _, job := range jobs {
		if err := sched.Schedule(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func formatTaskLine(t model.Task) string {
	due := "-"
	if t.DueDate != nil {
		due = t.DueDate.Format("2006-01-02")
	}
	tags := "-"
	if len(t.Tags) > 0 {
		tags = strings.Join(t.Tags, ",")
	}
	return fmt.Sprintf("%-38s  %-12s  %-8s  %-10s  %s", t.ID, t.Status, t.Priority, due, tags)
}
