package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/repository"
	"github.com/GS-Bacon/claude-todo/internal/webhook"
)

// DefaultMentionTitle is used when stripping all recognized tokens leaves an
// empty title.
const DefaultMentionTitle = "Task from mention"

var (
	priorityPattern       = regexp.MustCompile(`(?i)!(low|medium|high|urgent)`)
	duePattern            = regexp.MustCompile(`due:(\d{4}-\d{2}-\d{2})`)
	dueTokenPattern       = regexp.MustCompile(`due:\S+`)
	tagPattern            = regexp.MustCompile(`#(\w+)`)
	slackMentionPattern   = regexp.MustCompile(`<@\w+>`)
	discordMentionPattern = regexp.MustCompile(`<@!\d+>`)
)

// TaskDetails are the structured attributes extracted from mention text.
type TaskDetails struct {
	Title    string
	Priority model.Priority
	DueDate  *time.Time
	Tags     []string
}

// MentionService turns chat-platform webhook events into tasks in the
// personal repository.
type MentionService struct {
	repo    repository.TaskRepository
	parsers []webhook.Parser
	now     func() time.Time
}

func NewMentionService(personalRepo repository.TaskRepository, parsers []webhook.Parser) *MentionService {
	return &MentionService{
		repo:    personalRepo,
		parsers: parsers,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use a fixed clock.
func (s *MentionService) WithClock(now func() time.Time) *MentionService {
	s.now = now
	return s
}

// FindParser returns the first parser that accepts the payload, or nil.
func (s *MentionService) FindParser(payload []byte) webhook.Parser {
	for _, p := range s.parsers {
		if p.CanParse(payload) {
			return p
		}
	}
	return nil
}

// ExtractTaskDetails parses free-text mention content. Recognized tokens:
// !low/!medium/!high/!urgent (first match wins), due:YYYY-MM-DD (malformed
// dates are ignored), #tag. All tokens and user-mention syntax are stripped
// from the title.
func ExtractTaskDetails(text string) TaskDetails {
	details := TaskDetails{Priority: model.PriorityMedium}

	if m := priorityPattern.FindStringSubmatch(text); m != nil {
		if p, err := model.ParsePriority(strings.ToLower(m[1])); err == nil {
			details.Priority = p
		}
	}

	if m := duePattern.FindStringSubmatch(text); m != nil {
		if due, err := time.Parse("2006-01-02", m[1]); err == nil {
			details.DueDate = &due
		}
	}

	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		details.Tags = append(details.Tags, m[1])
	}

	title := text
	title = priorityPattern.ReplaceAllString(title, "")
	title = dueTokenPattern.ReplaceAllString(title, "")
	title = tagPattern.ReplaceAllString(title, "")
	title = slackMentionPattern.ReplaceAllString(title, "")
	title = discordMentionPattern.ReplaceAllString(title, "")
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		title = DefaultMentionTitle
	}
	details.Title = title

	return details
}

// ProcessMention creates a task from a normalized mention, keeping the chat
// context in metadata for audit.
func (s *MentionService) ProcessMention(ctx context.Context, mention model.Mention) (*model.Task, error) {
	details := ExtractTaskDetails(mention.MessageText)

	source := model.SourceDiscordMention
	if mention.Platform == "slack" {
		source = model.SourceSlackMention
	}

	now := s.now()
	task := model.Task{
		ID:    model.NewTaskID(),
		Title: details.Title,
		Description: fmt.Sprintf("From %s by %s:\n\n%s",
			mention.Platform, mention.UserName, mention.MessageText),
		Status:    model.StatusTodo,
		Priority:  details.Priority,
		Source:    source,
		DueDate:   details.DueDate,
		Tags:      details.Tags,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata: map[string]any{
			"source_platform":     mention.Platform,
			"source_channel":      mention.ChannelID,
			"source_channel_name": mention.ChannelName,
			"source_user_id":      mention.UserID,
			"source_user_name":    mention.UserName,
			"message_url":         mention.MessageURL,
			"original_message":    mention.MessageText,
			"thread_context":      mention.ThreadContext,
		},
	}

	return s.repo.Create(ctx, task)
}

// ProcessWebhook parses a raw payload and creates a task from it. Returns
// (nil, nil) when no parser accepts the payload.
func (s *MentionService) ProcessWebhook(ctx context.Context, payload []byte) (*model.Task, error) {
	parser := s.FindParser(payload)
	if parser == nil {
		return nil, nil
	}
	mention, err := parser.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", parser.Platform(), err)
	}
	return s.ProcessMention(ctx, *mention)
}
