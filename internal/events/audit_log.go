package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// RunAuditLog consumes events from topic and logs each one until ctx is done.
// It is the in-process consumer used when no broker is configured.
func RunAuditLog(ctx context.Context, subscriber message.Subscriber, topic string, logger *slog.Logger) error {
	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	go func() {
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logger.Warn("Dropping unreadable event", "message_uuid", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			logger.Info("Domain event",
				"event_id", event.ID,
				"event_type", event.Type,
				"timestamp", event.Timestamp,
				"data", event.Data,
			)
			msg.Ack()
		}
	}()

	return nil
}
