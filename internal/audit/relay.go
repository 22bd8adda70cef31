// Package audit moves events along the pipeline. The relay drains the
// Postgres outbox into Kafka; the consumer materializes the topics back into
// the queryable trail. Both halves are idempotent, so crashes at any point
// cause redelivery rather than loss.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	id "wellfile/pkg/domain"
	audit "wellfile/pkg/platform/audit"
)

// Outbox is the slice of the audit store the relay drains.
type Outbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, eventIDs []id.EventID, at time.Time) error
}

// Producer publishes one record and reports the broker outcome.
type Producer interface {
	ProduceSync(ctx context.Context, topic string, key, value []byte) error
}

// Relay periodically drains unpublished outbox entries to Kafka. Each
// category gets its own topic so retention can differ; compliance events
// outlive security and operations noise.
type Relay struct {
	outbox   Outbox
	producer Producer
	prefix   string
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// NewRelay wires a relay over the outbox. interval and batch fall back to
// one second and 100 entries when unset.
func NewRelay(outbox Outbox, producer Producer, prefix string, interval time.Duration, batch int, logger *slog.Logger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Relay{
		outbox:   outbox,
		producer: producer,
		prefix:   prefix,
		interval: interval,
		batch:    batch,
		logger:   logger,
	}
}

// Topic returns the topic name for one category.
func Topic(prefix string, category audit.EventCategory) string {
	return prefix + "." + string(category)
}

// Topics returns the topic names for all categories under prefix. Startup
// passes these to EnsureTopics before the relay and consumer begin.
func Topics(prefix string) []string {
	return []string{
		Topic(prefix, audit.CategoryCompliance),
		Topic(prefix, audit.CategorySecurity),
		Topic(prefix, audit.CategoryOperations),
	}
}

// Run drains on a ticker until ctx is cancelled. Drain failures are logged
// and retried next tick; the outbox holds the events meanwhile.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch immediately. Also called directly by tests and
// for a final flush during shutdown.
func (r *Relay) Drain(ctx context.Context) error {
	entries, err := r.outbox.ListUnpublished(ctx, r.batch)
	if err != nil {
		return fmt.Errorf("list unpublished: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	published := make([]id.EventID, 0, len(entries))
	for _, entry := range entries {
		topic := Topic(r.prefix, entry.Category)
		if err := r.producer.ProduceSync(ctx, topic, []byte(entry.ID.String()), entry.Payload); err != nil {
			// Publication order within the batch matters; stop at the first
			// failure and retry from it next tick.
			r.logger.WarnContext(ctx, "outbox publish failed", "topic", topic, "event_id", entry.ID, "error", err)
			break
		}
		published = append(published, entry.ID)
	}

	if len(published) == 0 {
		return nil
	}
	if err := r.outbox.MarkPublished(ctx, published, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	r.logger.DebugContext(ctx, "outbox drained", "published", len(published))
	return nil
}
