package webhook

import "github.com/GS-Bacon/claude-todo/internal/model"

// Parser turns a raw chat-platform webhook payload into a normalized Mention.
type Parser interface {
	// Platform returns the platform name this parser handles.
	Platform() string
	// CanParse reports whether the payload looks like this platform's event.
	CanParse(payload []byte) bool
	// Parse extracts a Mention from the payload.
	Parse(payload []byte) (*model.Mention, error)
}
