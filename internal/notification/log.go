package notification

import (
	"context"
	"log/slog"
)

// LogSender writes mail metadata to the log instead of delivering it. The
// body is left out because it carries the code.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender for development setups.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the name of this sender.
func (s *LogSender) Name() string { return "log" }

// Send logs the recipient and subject.
func (s *LogSender) Send(ctx context.Context, email *Email) error {
	s.logger.InfoContext(ctx, "email suppressed by log sender",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
	)
	return nil
}
