package notify

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// TelegramSender delivers notifications as HTML-formatted messages to a
// single chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSender) ChannelName() string { return "telegram" }

func (s *TelegramSender) Send(ctx context.Context, n model.Notification) bool {
	msg := tgbotapi.NewMessage(s.chatID, s.formatMessage(n))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		log.Printf("telegram: send: %v", err)
		return false
	}
	return true
}

func (s *TelegramSender) formatMessage(n model.Notification) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(n.Title)))
	sb.WriteString(html.EscapeString(n.Message))

	if n.Priority != "" {
		sb.WriteString(fmt.Sprintf("\n\nPriority: %s", n.Priority))
	}
	if n.DueDate != nil {
		sb.WriteString(fmt.Sprintf("\nDue: %s", n.DueDate.Format("2006-01-02 15:04")))
	}
	if n.TaskURL != "" {
		sb.WriteString(fmt.Sprintf("\n<a href=%q>Open task</a>", n.TaskURL))
	}
	return sb.String()
}
