// Package notify formats alerts and dispatches them to an operator channel.
package notify

import (
	"context"

	"sentinel/internal/logger"
)

// Notifier sends one formatted message to a destination.
type Notifier interface {
	Send(ctx context.Context, destination, text string) error
}

// LogNotifier writes messages to the process log instead of a channel.
type LogNotifier struct{}

// Send logs the message.
func (LogNotifier) Send(ctx context.Context, destination, text string) error {
	logger.With("destination", destination).Infof("Notification:\n%s", text)
	return nil
}
