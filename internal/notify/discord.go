package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// Discord embed colors per priority.
var discordPriorityColors = map[model.Priority]int{
	model.PriorityLow:    0x2ECC71,
	model.PriorityMedium: 0x3498DB,
	model.PriorityHigh:   0xF39C12,
	model.PriorityUrgent: 0xE74C3C,
}

const discordDefaultColor = 0x808080

// DiscordSender posts notifications to a Discord webhook as embeds.
type DiscordSender struct {
	webhookURL string
	username   string
	avatarURL  string
	httpClient *http.Client
}

func NewDiscordSender(webhookURL, username string) *DiscordSender {
	if username == "" {
		username = "Task Manager"
	}
	return &DiscordSender{
		webhookURL: webhookURL,
		username:   username,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *DiscordSender) ChannelName() string { return "discord" }

func (s *DiscordSender) Send(ctx context.Context, n model.Notification) bool {
	payload := s.buildPayload(n)
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("discord: marshal payload: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		log.Printf("discord: build request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("discord: send: %v", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent
}

func (s *DiscordSender) buildPayload(n model.Notification) map[string]any {
	color := discordDefaultColor
	if c, ok := discordPriorityColors[n.Priority]; ok {
		color = c
	}

	fields := []map[string]any{}
	if n.Priority != "" {
		fields = append(fields, map[string]any{
			"name": "Priority", "value": string(n.Priority), "inline": true,
		})
	}
	if n.DueDate != nil {
		fields = append(fields, map[string]any{
			"name": "Due Date", "value": n.DueDate.Format("2006-01-02 15:04"), "inline": true,
		})
	}
	if n.SourceInfo != "" {
		fields = append(fields, map[string]any{
			"name": "Source", "value": n.SourceInfo, "inline": true,
		})
	}

	embed := map[string]any{
		"title":       n.Title,
		"description": n.Message,
		"color":       color,
		"fields":      fields,
		"timestamp":   n.CreatedAt.Format(time.RFC3339),
	}
	if n.TaskURL != "" {
		embed["url"] = n.TaskURL
	}

	payload := map[string]any{
		"username": s.username,
		"embeds":   []any{embed},
	}
	if s.avatarURL != "" {
		payload["avatar_url"] = s.avatarURL
	}
	return payload
}
