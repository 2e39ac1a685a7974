package notifications

import (
	"context"

	"go.uber.org/zap"
)

// LogChannel writes notifications to the log. It backs development
// environments where no SMTP server is available.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel creates a log-backed notification channel.
func NewLogChannel(logger *zap.Logger) *LogChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Type() string {
	return "log"
}

func (c *LogChannel) Send(_ context.Context, recipient string, message Message) error {
	c.logger.Info("notification",
		zap.String("recipient", recipient),
		zap.String("subject", message.Subject),
		zap.Any("metadata", message.Metadata),
	)
	return nil
}
