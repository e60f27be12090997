package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabrela/internal/models"
	"tabrela/internal/store/memory"
	id "tabrela/pkg/domain"
)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]models.OutboundEvent
	fail    error
}

func (p *recordingPublisher) Publish(_ context.Context, events []models.OutboundEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.batches = append(p.batches, append([]models.OutboundEvent(nil), events...))
	return nil
}

func (p *recordingPublisher) delivered() []models.OutboundEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.OutboundEvent
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func seedOutbox(t *testing.T, store *memory.Store, n int) []models.OutboundEvent {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, time.March, 14, 18, 30, 0, 0, time.UTC)
	m := &models.Match{ID: id.NewMatchID(), Status: models.MatchPublished}
	var out []models.OutboundEvent
	for i := 0; i < n; i++ {
		ev := StatusChanged(m, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.AppendOutbox(ctx, ev))
		out = append(out, ev)
	}
	return out
}

func quietRelay(store RelayStore, pub Publisher, batch int) *Relay {
	return NewRelay(store, pub, 10*time.Millisecond, batch,
		WithRelayLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestDrainPublishesInBatches(t *testing.T) {
	store := memory.New()
	events := seedOutbox(t, store, 5)
	pub := &recordingPublisher{}

	n, err := quietRelay(store, pub, 2).Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, pub.batches, 3)
	assert.Equal(t, events, pub.delivered(), "events keep their order")

	pending, err := store.PendingOutbox(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDrainKeepsEventsWhenPublishFails(t *testing.T) {
	store := memory.New()
	seedOutbox(t, store, 3)
	pub := &recordingPublisher{fail: errors.New("broker unavailable")}
	relay := quietRelay(store, pub, 10)

	n, err := relay.Drain(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)

	pending, err := store.PendingOutbox(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3, "unacknowledged events stay pending")

	pub.fail = nil
	n, err = relay.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := memory.New()
	seedOutbox(t, store, 2)
	pub := &recordingPublisher{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- quietRelay(store, pub, 10).Run(ctx) }()

	assert.Eventually(t, func() bool { return len(pub.delivered()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestEventBuilders(t *testing.T) {
	now := time.Date(2025, time.March, 14, 18, 30, 0, 0, time.UTC)
	m := &models.Match{ID: id.NewMatchID(), Status: models.MatchCompleted}

	ev := ReleaseChanged(m, models.GateScores, now)
	assert.Equal(t, models.KindMatchReleaseChanged, ev.Kind)
	assert.Equal(t, "scores_released", ev.State)
	assert.Equal(t, m.ID.String(), ev.EntityID)
	assert.NotEmpty(t, ev.ID)

	a := &models.Allocation{ID: id.NewAllocationID(), MatchID: m.ID}
	ev = AllocationChanged(a, models.ActionCreated, now)
	assert.Equal(t, a.ID.String(), ev.EntityID)
	assert.Equal(t, m.ID, ev.MatchID)
	assert.Equal(t, string(models.ActionCreated), ev.State)
}
