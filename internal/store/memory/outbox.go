package memory

import (
	"context"
	"time"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

type outboxEntry struct {
	event  models.OutboundEvent
	sentAt *time.Time
}

// AppendOutbox records an outbound event inside the caller's transaction.
func (s *Store) AppendOutbox(ctx context.Context, ev models.OutboundEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, &outboxEntry{event: ev})
	n := len(s.outbox) - 1
	s.remember(ctx, func() { s.outbox = s.outbox[:n] })
	return nil
}

// PendingOutbox returns unsent events oldest first.
func (s *Store) PendingOutbox(_ context.Context, limit int) ([]models.OutboundEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.OutboundEvent
	for _, e := range s.outbox {
		if e.sentAt != nil {
			continue
		}
		out = append(out, e.event)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, ids []string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, eventID := range ids {
		want[eventID] = true
	}
	for _, e := range s.outbox {
		if want[e.event.ID] && e.sentAt == nil {
			t := now
			e.sentAt = &t
		}
	}
	return nil
}

// CreateLedgerEntry creates the zero-point merit row unless one exists.
func (s *Store) CreateLedgerEntry(ctx context.Context, userID id.UserID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledger[userID]; ok {
		return false, nil
	}
	put(ctx, s, s.ledger, userID, now)
	return true, nil
}
