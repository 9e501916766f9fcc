package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viralforge/storefront/internal/ports"
	"github.com/viralforge/storefront/internal/testutil/memstore"
)

type recordingPublisher struct {
	mu        sync.Mutex
	failUntil int
	calls     int
	published []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failUntil {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, eventType+"/"+partitionKey)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func enqueue(t *testing.T, outbox ports.OutboxRepository, eventType, key string) {
	t.Helper()
	require.NoError(t, outbox.Enqueue(context.Background(), ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: key,
		Payload:      []byte(`{}`),
		OccurredAt:   time.Now().UTC(),
	}))
}

func TestOutboxWorkerPublishesAndMarks(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	enqueue(t, store.Outbox(), "order.placed", "order-1")
	enqueue(t, store.Outbox(), "user.registered", "user-1")

	pub := &recordingPublisher{}
	worker := NewOutboxWorker(discardLogger(), store.Outbox(), pub, OutboxWorkerConfig{BatchSize: 10})
	require.NoError(t, worker.ProcessOnce(context.Background()))

	assert.Equal(t, []string{"order.placed/order-1", "user.registered/user-1"}, pub.published)
	for _, rec := range store.Records() {
		assert.NotNil(t, rec.PublishedAt)
		assert.Nil(t, rec.ClaimToken)
	}

	require.NoError(t, worker.ProcessOnce(context.Background()))
	assert.Len(t, pub.published, 2, "published records are not resent")
}

func TestOutboxWorkerRetriesThenDeadLetters(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	enqueue(t, store.Outbox(), "order.placed", "order-2")

	pub := &recordingPublisher{failUntil: 100}
	worker := NewOutboxWorker(discardLogger(), store.Outbox(), pub, OutboxWorkerConfig{MaxRetries: 2})

	require.NoError(t, worker.ProcessOnce(context.Background()))
	recs := store.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].RetryCount)
	assert.Nil(t, recs[0].DeadLetteredAt)

	require.NoError(t, worker.ProcessOnce(context.Background()))
	recs = store.Records()
	require.NotNil(t, recs[0].DeadLetteredAt)
	require.NotNil(t, recs[0].LastError)
	assert.Equal(t, "broker unavailable", *recs[0].LastError)

	require.NoError(t, worker.ProcessOnce(context.Background()))
	assert.Equal(t, 2, pub.calls, "dead-lettered records are not retried")
}

func TestOutboxWorkerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	enqueue(t, store.Outbox(), "order.placed", "order-3")
	pub := &recordingPublisher{}
	worker := NewOutboxWorker(discardLogger(), store.Outbox(), pub, OutboxWorkerConfig{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.published) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
