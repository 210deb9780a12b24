package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// PrintWebhookSender forwards notifications to a print server over HTTP.
// Besides the structured fields it includes a pre-formatted text block the
// print server can render verbatim.
type PrintWebhookSender struct {
	webhookURL string
	apiKey     string
	httpClient *http.Client
}

func NewPrintWebhookSender(webhookURL, apiKey string) *PrintWebhookSender {
	return &PrintWebhookSender{
		webhookURL: webhookURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *PrintWebhookSender) ChannelName() string { return "print" }

func (s *PrintWebhookSender) Send(ctx context.Context, n model.Notification) bool {
	payload := map[string]any{
		"title":          n.Title,
		"message":        n.Message,
		"timestamp":      n.CreatedAt.Format(time.RFC3339),
		"formatted_text": formatForPrint(n),
	}
	if n.Priority != "" {
		payload["priority"] = string(n.Priority)
	}
	if n.DueDate != nil {
		payload["due_date"] = n.DueDate.Format(time.RFC3339)
	}
	if n.TaskURL != "" {
		payload["task_url"] = n.TaskURL
	}
	if n.SourceInfo != "" {
		payload["source"] = n.SourceInfo
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("print-webhook: marshal payload: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		log.Printf("print-webhook: build request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("print-webhook: send: %v", err)
		return false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return true
	}
	return false
}

func formatForPrint(n model.Notification) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 40)
	thin := strings.Repeat("-", 40)

	sb.WriteString(rule + "\n")
	sb.WriteString(n.Title + "\n")
	sb.WriteString(thin + "\n")
	sb.WriteString(n.Message + "\n")

	if n.Priority != "" {
		sb.WriteString(fmt.Sprintf("Priority: %s\n", strings.ToUpper(string(n.Priority))))
	}
	if n.DueDate != nil {
		sb.WriteString(fmt.Sprintf("Due: %s\n", n.DueDate.Format("2006-01-02 15:04")))
	}
	if n.SourceInfo != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", n.SourceInfo))
	}

	sb.WriteString(thin + "\n")
	sb.WriteString(fmt.Sprintf("Time: %s\n", n.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(rule)
	return sb.String()
}
