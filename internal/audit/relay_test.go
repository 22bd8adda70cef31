package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "wellfile/pkg/domain"
	audit "wellfile/pkg/platform/audit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type stubOutbox struct {
	mu      sync.Mutex
	entries []audit.OutboxEntry
	listErr error
	markErr error
	marked  [][]id.EventID
}

func (o *stubOutbox) ListUnpublished(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.listErr != nil {
		return nil, o.listErr
	}
	if limit > len(o.entries) {
		limit = len(o.entries)
	}
	return o.entries[:limit], nil
}

func (o *stubOutbox) MarkPublished(_ context.Context, eventIDs []id.EventID, _ time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.markErr != nil {
		return o.markErr
	}
	o.marked = append(o.marked, eventIDs)
	return nil
}

type producedRecord struct {
	topic string
	key   string
	value string
}

type stubProducer struct {
	mu      sync.Mutex
	records []producedRecord
	failAt  int // 1-based call index that fails; 0 never fails
	calls   int
}

func (p *stubProducer) ProduceSync(_ context.Context, topic string, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failAt > 0 && p.calls >= p.failAt {
		return errors.New("broker unreachable")
	}
	p.records = append(p.records, producedRecord{topic: topic, key: string(key), value: string(value)})
	return nil
}

func entry(category audit.EventCategory, payload string) audit.OutboxEntry {
	return audit.OutboxEntry{
		ID:        id.NewEventID(),
		Category:  category,
		Payload:   []byte(payload),
		CreatedAt: time.Now(),
	}
}

func TestDrain_PublishesEachCategoryToItsTopic(t *testing.T) {
	compliance := entry(audit.CategoryCompliance, `{"Action":"filing_persisted"}`)
	security := entry(audit.CategorySecurity, `{"Action":"auth_failed"}`)
	outbox := &stubOutbox{entries: []audit.OutboxEntry{compliance, security}}
	producer := &stubProducer{}

	relay := NewRelay(outbox, producer, "wellfile.audit", time.Second, 100, testLogger())
	require.NoError(t, relay.Drain(context.Background()))

	require.Len(t, producer.records, 2)
	assert.Equal(t, "wellfile.audit.compliance", producer.records[0].topic)
	assert.Equal(t, compliance.ID.String(), producer.records[0].key)
	assert.Equal(t, `{"Action":"filing_persisted"}`, producer.records[0].value)
	assert.Equal(t, "wellfile.audit.security", producer.records[1].topic)

	require.Len(t, outbox.marked, 1)
	assert.Equal(t, []id.EventID{compliance.ID, security.ID}, outbox.marked[0])
}

func TestDrain_EmptyOutboxIsQuiet(t *testing.T) {
	outbox := &stubOutbox{}
	producer := &stubProducer{}

	relay := NewRelay(outbox, producer, "wellfile.audit", time.Second, 100, testLogger())
	require.NoError(t, relay.Drain(context.Background()))

	assert.Empty(t, producer.records)
	assert.Empty(t, outbox.marked)
}

func TestDrain_StopsAtFirstPublishFailure(t *testing.T) {
	first := entry(audit.CategoryCompliance, `{}`)
	second := entry(audit.CategoryCompliance, `{}`)
	third := entry(audit.CategoryCompliance, `{}`)
	outbox := &stubOutbox{entries: []audit.OutboxEntry{first, second, third}}
	producer := &stubProducer{failAt: 2}

	relay := NewRelay(outbox, producer, "wellfile.audit", time.Second, 100, testLogger())
	require.NoError(t, relay.Drain(context.Background()))

	// Only the entry that made it to the broker is marked; the rest stay
	// unpublished for the next tick.
	require.Len(t, outbox.marked, 1)
	assert.Equal(t, []id.EventID{first.ID}, outbox.marked[0])
}

func TestDrain_SurfacesOutboxErrors(t *testing.T) {
	relay := NewRelay(&stubOutbox{listErr: errors.New("db down")}, &stubProducer{}, "wellfile.audit", time.Second, 100, testLogger())
	err := relay.Drain(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list unpublished")

	outbox := &stubOutbox{entries: []audit.OutboxEntry{entry(audit.CategoryOperations, `{}`)}, markErr: errors.New("db down")}
	relay = NewRelay(outbox, &stubProducer{}, "wellfile.audit", time.Second, 100, testLogger())
	err = relay.Drain(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark published")
}

func TestRun_DrainsOnTickerUntilCancelled(t *testing.T) {
	outbox := &stubOutbox{entries: []audit.OutboxEntry{entry(audit.CategoryCompliance, `{}`)}}
	producer := &stubProducer{}
	relay := NewRelay(outbox, producer, "wellfile.audit", 5*time.Millisecond, 100, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool {
		producer.mu.Lock()
		defer producer.mu.Unlock()
		return len(producer.records) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after cancellation")
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, []string{
		"wellfile.audit.compliance",
		"wellfile.audit.security",
		"wellfile.audit.operations",
	}, Topics("wellfile.audit"))
}
