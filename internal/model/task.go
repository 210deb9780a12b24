package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidValue marks a malformed enum value (unknown status or priority).
// Callers distinguish it from not-found conditions via errors.Is.
var ErrInvalidValue = errors.New("invalid value")

// Status is the lifecycle state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// ParseStatus converts a raw string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked:
		return Status(s), nil
	}
	return "", fmt.Errorf("status %q: %w", s, ErrInvalidValue)
}

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority converts a raw string into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return Priority(s), nil
	}
	return "", fmt.Errorf("priority %q: %w", s, ErrInvalidValue)
}

// Source identifies the system a task originated from.
type Source string

const (
	SourceNotionTeam     Source = "notion_team"
	SourceNotionPersonal Source = "notion_personal"
	SourceSlackMention   Source = "slack_mention"
	SourceDiscordMention Source = "discord_mention"
	SourceManual         Source = "manual"
)

// TaskID is an opaque task identifier, immutable once assigned.
type TaskID string

// NewTaskID generates a fresh locally-unique identifier.
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}

// NotionTaskID derives an identifier from a Notion page ID, keeping the
// provenance visible in the value.
func NotionTaskID(pageID string) TaskID {
	return TaskID("notion:" + pageID)
}

// Task is the central entity mirrored between stores. Mutations use
// full-replace semantics: callers construct a new value and hand it to a
// repository, bumping UpdatedAt themselves.
type Task struct {
	ID          TaskID
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Source      Source
	DueDate     *time.Time
	Assignee    string
	Tags        []string
	ExternalID  string // Notion page ID when backed by a remote page
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask builds a manual task with defaults applied.
func NewTask(title string, now time.Time) Task {
	return Task{
		ID:        NewTaskID(),
		Title:     title,
		Status:    StatusTodo,
		Priority:  PriorityMedium,
		Source:    SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDueToday reports whether the due date falls on the same calendar day as now.
func (t Task) IsDueToday(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	y1, m1, d1 := t.DueDate.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsOverdue reports whether the due date is strictly in the past. Done tasks
// are never overdue.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone {
		return false
	}
	return t.DueDate.Before(now)
}

// Clone returns a deep copy. Tags and Metadata are duplicated so that
// transforms applied to the copy never leak back into the original.
func (t Task) Clone() Task {
	out := t
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.Metadata != nil {
		out.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return out
}
