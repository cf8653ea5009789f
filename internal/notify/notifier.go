// Package notify emails submitters about their verification results.
package notify

import (
	"context"
	"log/slog"
)

// Message is one outgoing email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers messages
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of sending them
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs through logger (nil uses slog.Default)
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the message
func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Info("email", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML))
	n.logger.Debug("email body", "html", msg.HTML)
	return nil
}
