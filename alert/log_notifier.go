package alert

import (
	"context"
	"log/slog"
)

// LogNotifier writes alerts to a logger instead of delivering them. The
// monitor falls back to it when no SMS credentials are configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, message string) error {
	n.Logger.WarnContext(ctx, "alert (no SMS transport configured)", slog.String("message", message))
	return nil
}
