package model

import "time"

// Notification is an outbound message fanned out to delivery channels.
type Notification struct {
	Title      string
	Message    string
	CreatedAt  time.Time
	Priority   Priority // empty when not tied to a task
	DueDate    *time.Time
	TaskURL    string
	SourceInfo string
	Channels   []string
	// ScheduledAt is accepted but unused by the current dispatch path.
	ScheduledAt *time.Time
}
