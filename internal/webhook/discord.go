package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// DiscordParser handles Discord message-create and interaction events.
type DiscordParser struct{}

func NewDiscordParser() *DiscordParser { return &DiscordParser{} }

func (p *DiscordParser) Platform() string { return "discord" }

func (p *DiscordParser) CanParse(payload []byte) bool {
	if !gjson.GetBytes(payload, "type").Exists() {
		return false
	}
	return gjson.GetBytes(payload, "guild_id").Exists() ||
		gjson.GetBytes(payload, "channel_id").Exists()
}

func (p *DiscordParser) Parse(payload []byte) (*model.Mention, error) {
	data := gjson.ParseBytes(payload)
	if !data.Exists() {
		return nil, fmt.Errorf("discord payload is not valid JSON")
	}

	timestamp := time.Now()
	if raw := data.Get("timestamp").String(); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			timestamp = parsed
		}
	}

	guildID := data.Get("guild_id").String()
	channelID := data.Get("channel_id").String()
	messageID := data.Get("id").String()
	var messageURL string
	if guildID != "" && channelID != "" && messageID != "" {
		messageURL = fmt.Sprintf("https://discord.com/channels/%s/%s/%s",
			guildID, channelID, messageID)
	}

	return &model.Mention{
		Platform:      "discord",
		ChannelID:     channelID,
		ChannelName:   data.Get("channel.name").String(),
		UserID:        data.Get("author.id").String(),
		UserName:      data.Get("author.username").String(),
		MessageText:   data.Get("content").String(),
		Timestamp:     timestamp,
		MessageURL:    messageURL,
		ThreadContext: data.Get("message_reference.message_id").String(),
		RawPayload:    json.RawMessage(payload),
	}, nil
}
