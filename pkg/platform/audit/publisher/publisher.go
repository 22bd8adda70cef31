// Package publisher delivers audit events to a store, synchronously or
// through a buffered worker. The server wires the synchronous mode so the
// Postgres store's outbox write joins the caller's transaction; async mode
// suits fire-and-forget trails where losing an event under pressure is
// acceptable.
package publisher

import (
	"context"
	"sync"

	audit "wellfile/pkg/platform/audit"
	"wellfile/pkg/requestcontext"
)

// Publisher stamps events with defaults and hands them to the store.
type Publisher struct {
	store audit.Store

	async bool
	inbox chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures the publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous delivery through a
// buffer of the given size. When the buffer is full events are dropped
// rather than blocking the caller.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.async = true
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// NewPublisher creates a publisher over store. Without options, Emit writes
// through synchronously and reports store errors to the caller.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records one event. Missing timestamp, category, and request ID are
// filled from the action and the context before delivery.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if !p.async {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
	default:
		// Bounded buffer: drop rather than stall the request path.
	}
	return nil
}

// List returns the stored events for one well, oldest first.
func (p *Publisher) List(ctx context.Context, naturalKey string) ([]audit.Event, error) {
	return p.store.ListByNaturalKey(ctx, naturalKey)
}

// Close drains any buffered events and stops the worker. Safe to call more
// than once.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.async {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Asynchronous delivery is detached from the originating request;
		// store failures here have nowhere to surface.
		_ = p.store.Append(context.Background(), event)
	}
}
