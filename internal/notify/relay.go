package notify

import (
	"context"
	"log/slog"
	"time"

	"tabrela/internal/models"
	"tabrela/internal/platform/metrics"
)

// RelayStore is the read side of the outbox.
type RelayStore interface {
	PendingOutbox(ctx context.Context, limit int) ([]models.OutboundEvent, error)
	MarkOutboxSent(ctx context.Context, ids []string, now time.Time) error
}

// Relay drains the outbox to a Publisher on a fixed interval.
type Relay struct {
	store     RelayStore
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type RelayOption func(*Relay)

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithRelayMetrics(m *metrics.Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func NewRelay(store RelayStore, publisher Publisher, interval time.Duration, batchSize int, opts ...RelayOption) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Batch failures are logged and retried
// on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil {
				r.metrics.IncrementOutboxFailure()
				r.logger.WarnContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

// Drain publishes pending events batch by batch until the outbox is empty
// and returns how many were delivered.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	delivered := 0
	for {
		pending, err := r.store.PendingOutbox(ctx, r.batchSize)
		if err != nil {
			return delivered, err
		}
		if len(pending) == 0 {
			return delivered, nil
		}
		if err := r.publisher.Publish(ctx, pending); err != nil {
			return delivered, err
		}
		ids := make([]string, len(pending))
		for i, ev := range pending {
			ids[i] = ev.ID
		}
		if err := r.store.MarkOutboxSent(ctx, ids, time.Now()); err != nil {
			return delivered, err
		}
		delivered += len(pending)
		r.metrics.AddOutboxPublished(len(pending))
		if len(pending) < r.batchSize {
			return delivered, nil
		}
	}
}
