package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/cache"
	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/notify"
)

// NotificationService fans notifications out to the registered delivery
// channels and builds due/overdue/summary reports from the cache snapshot.
// Delivery failure is recorded per channel; there is no retry.
type NotificationService struct {
	cache   cache.Cache
	senders []notify.Sender
	now     func() time.Time
}

func NewNotificationService(c cache.Cache, senders ...notify.Sender) *NotificationService {
	return &NotificationService{
		cache:   c,
		senders: senders,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use a fixed clock.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

// Senders returns the registered senders.
func (s *NotificationService) Senders() []notify.Sender {
	return append([]notify.Sender(nil), s.senders...)
}

// AddSender registers another delivery channel.
func (s *NotificationService) AddSender(sender notify.Sender) {
	s.senders = append(s.senders, sender)
}

// RemoveSender drops a sender by channel name.
func (s *NotificationService) RemoveSender(channelName string) bool {
	for i, sender := range s.senders {
		if sender.ChannelName() == channelName {
			s.senders = append(s.senders[:i], s.senders[i+1:]...)
			return true
		}
	}
	return false
}

// SendNotification delivers n to the named channels, or to every sender when
// channels is nil. Returns per-channel success.
func (s *NotificationService) SendNotification(ctx context.Context, n model.Notification, channels []string) map[string]bool {
	results := make(map[string]bool)
	for _, sender := range s.senders {
		if channels != nil && !containsString(channels, sender.ChannelName()) {
			continue
		}
		results[sender.ChannelName()] = sender.Send(ctx, n)
	}
	return results
}

// SendTaskReminder sends a reminder for one task.
func (s *NotificationService) SendTaskReminder(ctx context.Context, task model.Task, message string, channels []string) map[string]bool {
	if message == "" {
		message = s.buildReminderMessage(task)
	}
	n := s.taskToNotification(task, "Task Reminder: "+task.Title, message)
	return s.SendNotification(ctx, n, channels)
}

// SendDueNotifications notifies about every cached task due today that is
// not done. Returns per-channel counts of successful sends.
func (s *NotificationService) SendDueNotifications(ctx context.Context, channels []string) (map[string]int, error) {
	all, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	counts := s.initCounts(channels)
	for _, task := range all {
		if !task.IsDueToday(now) || task.Status == model.StatusDone {
			continue
		}
		n := s.taskToNotification(task, "Due Today: "+task.Title, s.buildDueTodayMessage(task))
		for channel, ok := range s.SendNotification(ctx, n, channels) {
			if ok {
				counts[channel]++
			}
		}
	}
	return counts, nil
}

// SendOverdueNotifications notifies about every cached overdue task.
func (s *NotificationService) SendOverdueNotifications(ctx context.Context, channels []string) (map[string]int, error) {
	all, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	counts := s.initCounts(channels)
	for _, task := range all {
		if !task.IsOverdue(now) {
			continue
		}
		n := s.taskToNotification(task, "Overdue: "+task.Title, s.buildOverdueMessage(task, now))
		for channel, ok := range s.SendNotification(ctx, n, channels) {
			if ok {
				counts[channel]++
			}
		}
	}
	return counts, nil
}

// SendDailySummary sends one summary notification with status counts,
// completions today, and due/overdue totals.
func (s *NotificationService) SendDailySummary(ctx context.Context, channels []string) (map[string]bool, error) {
	all, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var todo, inProgress, doneToday, dueToday, overdue int
	for _, task := range all {
		switch task.Status {
		case model.StatusTodo:
			todo++
		case model.StatusInProgress:
			inProgress++
		case model.StatusDone:
			if sameDay(task.UpdatedAt, now) {
				doneToday++
			}
		}
		if task.IsDueToday(now) && task.Status != model.StatusDone {
			dueToday++
		}
		if task.IsOverdue(now) {
			overdue++
		}
	}

	lines := []string{
		fmt.Sprintf("Daily Task Summary - %s", now.Format("2006-01-02")),
		"",
		fmt.Sprintf("TODO: %d", todo),
		fmt.Sprintf("In Progress: %d", inProgress),
		fmt.Sprintf("Completed Today: %d", doneToday),
	}
	if dueToday > 0 {
		lines = append(lines, fmt.Sprintf("Due Today: %d", dueToday))
	}
	if overdue > 0 {
		lines = append(lines, fmt.Sprintf("Overdue: %d", overdue))
	}

	n := model.Notification{
		Title:     "Daily Task Summary",
		Message:   strings.Join(lines, "\n"),
		CreatedAt: now,
	}
	return s.SendNotification(ctx, n, channels), nil
}

func (s *NotificationService) initCounts(channels []string) map[string]int {
	counts := make(map[string]int)
	for _, sender := range s.senders {
		if channels == nil || containsString(channels, sender.ChannelName()) {
			counts[sender.ChannelName()] = 0
		}
	}
	return counts
}

func (s *NotificationService) taskToNotification(task model.Task, title, message string) model.Notification {
	var sourceInfo string
	platform, _ := task.Metadata["source_platform"].(string)
	user, _ := task.Metadata["source_user_name"].(string)
	if platform != "" && user != "" {
		sourceInfo = platform + " - " + user
	}
	taskURL, _ := task.Metadata["message_url"].(string)

	return model.Notification{
		Title:      title,
		Message:    message,
		Priority:   task.Priority,
		DueDate:    task.DueDate,
		TaskURL:    taskURL,
		SourceInfo: sourceInfo,
		CreatedAt:  s.now(),
	}
}

func (s *NotificationService) buildReminderMessage(task model.Task) string {
	lines := []string{descriptionOrDefault(task)}
	if task.DueDate != nil {
		lines = append(lines, "", "Due: "+task.DueDate.Format("2006-01-02 15:04"))
	}
	if len(task.Tags) > 0 {
		lines = append(lines, "Tags: "+strings.Join(task.Tags, ", "))
	}
	return strings.Join(lines, "\n")
}

func (s *NotificationService) buildDueTodayMessage(task model.Task) string {
	lines := []string{"This task is due today!", "", descriptionOrDefault(task)}
	if task.DueDate != nil {
		lines = append(lines, "", "Due at: "+task.DueDate.Format("15:04"))
	}
	return strings.Join(lines, "\n")
}

func (s *NotificationService) buildOverdueMessage(task model.Task, now time.Time) string {
	days := 0
	if task.DueDate != nil {
		days = int(now.Sub(*task.DueDate).Hours() / 24)
	}
	lines := []string{
		fmt.Sprintf("This task is overdue by %d day(s)!", days),
		"",
		descriptionOrDefault(task),
	}
	if task.DueDate != nil {
		lines = append(lines, "", "Was due: "+task.DueDate.Format("2006-01-02 15:04"))
	}
	return strings.Join(lines, "\n")
}

func descriptionOrDefault(task model.Task) string {
	if task.Description != "" {
		return task.Description
	}
	return "No description provided."
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
