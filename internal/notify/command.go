package notify

import (
	"context"
	"fmt"
	"os/exec"
)

// CommandBackend shells out to a desktop notifier (notify-send or
// compatible). Available only when the binary is on PATH.
type CommandBackend struct {
	command string
	path    string
}

func NewCommandBackend(command string) *CommandBackend {
	if command == "" {
		command = "notify-send"
	}
	path, err := exec.LookPath(command)
	if err != nil {
		path = ""
	}
	return &CommandBackend{command: command, path: path}
}

func (b *CommandBackend) Name() string { return "command(" + b.command + ")" }

func (b *CommandBackend) Available() bool { return b.path != "" }

func (b *CommandBackend) Send(ctx context.Context, n Notification) error {
	cmd := exec.CommandContext(ctx, b.path, n.Title, n.Body)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", b.command, err)
	}
	return nil
}
