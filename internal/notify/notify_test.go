package notify

import (
	"context"
	"io"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// The api holds the publisher as a Notifier and closes it on shutdown;
// both contracts are load-bearing for cmd/api.
var (
	_ Notifier  = (*AMQPPublisher)(nil)
	_ io.Closer = (*AMQPPublisher)(nil)
	_ Notifier  = (*LogNotifier)(nil)
)

func TestLogNotifier_WritesStructuredEntries(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))
	ctx := context.Background()

	if err := n.ReservationConfirmed(ctx, "user-1", "event-1"); err != nil {
		t.Fatalf("reservation confirmed: %v", err)
	}
	if err := n.CheckedIn(ctx, "user-1", "event-1"); err != nil {
		t.Fatalf("checked in: %v", err)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	for _, entry := range entries {
		fields := entry.ContextMap()
		if fields["user_id"] != "user-1" || fields["event_id"] != "event-1" {
			t.Fatalf("unexpected fields in %q: %+v", entry.Message, fields)
		}
	}
	if entries[0].Message != "notify reservation confirmed" {
		t.Fatalf("unexpected first message %q", entries[0].Message)
	}
	if entries[1].Message != "notify checked in" {
		t.Fatalf("unexpected second message %q", entries[1].Message)
	}
}
