package lognotify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier writes notifications to the log. It is used when no chat is
// configured.
type Notifier struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Notify(_ context.Context, message string) error {
	n.logger.Info("Notification", zap.String("message", message))
	return nil
}
