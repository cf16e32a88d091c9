// Package notify holds the notification collaborators. Dispatch is
// best-effort: failures are logged by the caller and never propagate into
// the reservation path.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers attendee-facing notifications.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, userID, eventID string) error
	CheckedIn(ctx context.Context, userID, eventID string) error
}

// LogNotifier writes notifications to the service log. Default when no
// broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) ReservationConfirmed(_ context.Context, userID, eventID string) error {
	n.log.Info("notify reservation confirmed",
		zap.String("user_id", userID),
		zap.String("event_id", eventID),
	)
	return nil
}

func (n *LogNotifier) CheckedIn(_ context.Context, userID, eventID string) error {
	n.log.Info("notify checked in",
		zap.String("user_id", userID),
		zap.String("event_id", eventID),
	)
	return nil
}
