package notify

import (
	"context"
	"log/slog"
)

// LogBackend writes notifications to the structured log. Always available;
// used as the fallback when no real delivery channel works.
type LogBackend struct{}

func NewLogBackend() *LogBackend { return &LogBackend{} }

func (b *LogBackend) Name() string { return "log" }

func (b *LogBackend) Available() bool { return true }

func (b *LogBackend) Send(ctx context.Context, n Notification) error {
	slog.Info("notification", "title", n.Title, "body", n.Body)
	return nil
}
