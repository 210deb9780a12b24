package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// SlackParser handles Slack Events API callbacks (app_mention and message).
type SlackParser struct{}

func NewSlackParser() *SlackParser { return &SlackParser{} }

func (p *SlackParser) Platform() string { return "slack" }

func (p *SlackParser) CanParse(payload []byte) bool {
	if gjson.GetBytes(payload, "type").String() != "event_callback" {
		return false
	}
	eventType := gjson.GetBytes(payload, "event.type").String()
	return eventType == "app_mention" || eventType == "message"
}

func (p *SlackParser) Parse(payload []byte) (*model.Mention, error) {
	event := gjson.GetBytes(payload, "event")
	if !event.Exists() {
		return nil, fmt.Errorf("slack payload has no event")
	}

	ts := event.Get("ts").String()
	timestamp := time.Now()
	if secs, err := strconv.ParseFloat(ts, 64); err == nil {
		timestamp = time.Unix(int64(secs), 0)
	}

	// Archive permalink: https://slack.com/archives/<channel>/p<ts without dot>
	var messageURL string
	teamID := gjson.GetBytes(payload, "team_id").String()
	channelID := event.Get("channel").String()
	if teamID != "" && channelID != "" && ts != "" {
		messageURL = fmt.Sprintf("https://slack.com/archives/%s/p%s",
			channelID, strings.ReplaceAll(ts, ".", ""))
	}

	return &model.Mention{
		Platform:      "slack",
		ChannelID:     channelID,
		ChannelName:   event.Get("channel_name").String(),
		UserID:        event.Get("user").String(),
		UserName:      event.Get("user_name").String(),
		MessageText:   event.Get("text").String(),
		Timestamp:     timestamp,
		MessageURL:    messageURL,
		ThreadContext: event.Get("thread_ts").String(),
		RawPayload:    json.RawMessage(payload),
	}, nil
}
