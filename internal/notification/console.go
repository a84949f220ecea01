package notification

import (
	"context"
	"log/slog"
)

// ConsoleMailer writes outbound messages to the structured log instead of a
// real channel. Useful for development and for environments where the mail
// relay is not provisioned yet.
type ConsoleMailer struct {
	logger *slog.Logger
}

func NewConsoleMailer(logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("outbound message",
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}
