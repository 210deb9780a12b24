package model

import (
	"encoding/json"
	"time"
)

// Mention is a normalized chat-platform message event that may trigger task
// creation. RawPayload keeps the original event for audit.
type Mention struct {
	Platform      string // "slack" or "discord"
	ChannelID     string
	ChannelName   string
	UserID        string
	UserName      string
	MessageText   string
	Timestamp     time.Time
	MessageURL    string
	ThreadContext string
	RawPayload    json.RawMessage
}
