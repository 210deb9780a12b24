package notify

import (
	"context"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// Sender delivers a notification to one channel. Send reports success as a
// bool and never returns an error: transport failures are caught inside the
// implementation and surface as false.
type Sender interface {
	ChannelName() string
	Send(ctx context.Context, n model.Notification) bool
}
