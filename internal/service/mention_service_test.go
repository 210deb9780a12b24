package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/repository"
	"github.com/GS-Bacon/claude-todo/internal/service"
	"github.com/GS-Bacon/claude-todo/internal/webhook"
)

func TestExtractTaskDetails(t *testing.T) {
	t.Parallel()

	details := service.ExtractTaskDetails("<@U123> Review PR !high due:2024-01-15 #review")

	assert.Equal(t, "Review PR", details.Title)
	assert.Equal(t, model.PriorityHigh, details.Priority)
	require.NotNil(t, details.DueDate)
	assert.Equal(t, "2024-01-15", details.DueDate.Format("2006-01-02"))
	assert.Equal(t, []string{"review"}, details.Tags)
}

func TestExtractTaskDetailsDefaults(t *testing.T) {
	t.Parallel()

	details := service.ExtractTaskDetails("Just a plain message")

	assert.Equal(t, "Just a plain message", details.Title)
	assert.Equal(t, model.PriorityMedium, details.Priority)
	assert.Nil(t, details.DueDate)
	assert.Empty(t, details.Tags)
}

func TestExtractTaskDetailsMalformedDue(t *testing.T) {
	t.Parallel()

	details := service.ExtractTaskDetails("Ship release due:tomorrow")

	assert.Nil(t, details.DueDate)
	// The malformed token is still stripped from the title.
	assert.Equal(t, "Ship release", details.Title)
}

func TestExtractTaskDetailsEmptyAfterStripping(t *testing.T) {
	t.Parallel()

	details := service.ExtractTaskDetails("<@U123> !urgent #ops")

	assert.Equal(t, service.DefaultMentionTitle, details.Title)
	assert.Equal(t, model.PriorityUrgent, details.Priority)
	assert.Equal(t, []string{"ops"}, details.Tags)
}

func TestExtractTaskDetailsCaseInsensitivePriority(t *testing.T) {
	t.Parallel()

	details := service.ExtractTaskDetails("Do the thing !URGENT")
	assert.Equal(t, model.PriorityUrgent, details.Priority)
}

func TestProcessMentionCreatesTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewInMemoryTaskRepository()
	svc := service.NewMentionService(repo, nil).WithClock(fixedClock)

	mention := model.Mention{
		Platform:    "slack",
		ChannelID:   "C1",
		ChannelName: "general",
		UserID:      "U1",
		UserName:    "alice",
		MessageText: "<@U9> Fix login !high #auth",
		MessageURL:  "https://slack.com/archives/C1/p1",
	}

	task, err := svc.ProcessMention(ctx, mention)
	require.NoError(t, err)

	assert.Equal(t, "Fix login", task.Title)
	assert.Equal(t, model.SourceSlackMention, task.Source)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.Equal(t, []string{"auth"}, task.Tags)
	assert.Contains(t, task.Description, "From slack by alice:")
	assert.Equal(t, "C1", task.Metadata["source_channel"])
	assert.Equal(t, "alice", task.Metadata["source_user_name"])
	assert.Equal(t, "https://slack.com/archives/C1/p1", task.Metadata["message_url"])
	assert.Equal(t, fixedNow, task.CreatedAt)

	stored, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestProcessMentionDiscordSource(t *testing.T) {
	t.Parallel()

	repo := repository.NewInMemoryTaskRepository()
	svc := service.NewMentionService(repo, nil).WithClock(fixedClock)

	task, err := svc.ProcessMention(context.Background(), model.Mention{
		Platform:    "discord",
		MessageText: "Deploy tonight",
	})
	require.NoError(t, err)
	assert.Equal(t, model.SourceDiscordMention, task.Source)
}

func TestProcessWebhookNoParser(t *testing.T) {
	t.Parallel()

	repo := repository.NewInMemoryTaskRepository()
	svc := service.NewMentionService(repo, []webhook.Parser{webhook.NewSlackParser()})

	task, err := svc.ProcessWebhook(context.Background(), []byte(`{"unknown": true}`))
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestProcessWebhookSlackEvent(t *testing.T) {
	t.Parallel()

	repo := repository.NewInMemoryTaskRepository()
	svc := service.NewMentionService(repo, []webhook.Parser{
		webhook.NewSlackParser(),
		webhook.NewDiscordParser(),
	}).WithClock(fixedClock)

	payload := []byte(`{
		"type": "event_callback",
		"event": {
			"type": "app_mention",
			"channel": "C42",
			"user": "U7",
			"text": "<@BOT> Write minutes #meeting",
			"ts": "1705312800.000100"
		}
	}`)

	task, err := svc.ProcessWebhook(context.Background(), payload)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "Write minutes", task.Title)
	assert.Equal(t, model.SourceSlackMention, task.Source)
	assert.Equal(t, []string{"meeting"}, task.Tags)
}
