package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	id "wellfile/pkg/domain"
	audit "wellfile/pkg/platform/audit"
)

// EventWriter is the materialization half of the audit store.
type EventWriter interface {
	AppendEvent(ctx context.Context, eventID id.EventID, event audit.Event) error
}

// Consumer materializes relayed events into the queryable audit trail.
type Consumer struct {
	store  EventWriter
	logger *slog.Logger
}

// NewConsumer creates a consumer writing through store.
func NewConsumer(store EventWriter, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Consumer{store: store, logger: logger}
}

// Handle processes one Kafka record. Malformed records are logged and
// dropped, since redelivery would not fix them. Store failures propagate so
// the offset stays uncommitted and the record is redelivered.
func (c *Consumer) Handle(ctx context.Context, record *kgo.Record) error {
	var event audit.Event
	if err := json.Unmarshal(record.Value, &event); err != nil {
		c.logger.ErrorContext(ctx, "malformed audit record dropped",
			"topic", record.Topic, "offset", record.Offset, "error", err)
		return nil
	}

	eventID, err := id.ParseEventID(string(record.Key))
	if err != nil {
		c.logger.ErrorContext(ctx, "audit record with invalid key dropped",
			"topic", record.Topic, "offset", record.Offset, "error", err)
		return nil
	}

	if err := c.store.AppendEvent(ctx, eventID, event); err != nil {
		return fmt.Errorf("materialize audit event %s: %w", eventID, err)
	}
	return nil
}
