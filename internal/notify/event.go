// Package notify carries domain changes to the external notification service.
//
// Services append OutboundEvents to an outbox inside the transaction that
// makes the change. A Relay later drains the outbox to a Publisher, marking
// rows sent only after the publisher acknowledges them, so delivery is at
// least once.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

// Outbox is the transactional write side.
type Outbox interface {
	AppendOutbox(ctx context.Context, ev models.OutboundEvent) error
}

// NewEvent builds an outbound event with a fresh id.
func NewEvent(kind models.OutboundKind, entityID string, matchID id.MatchID, state string, now time.Time) models.OutboundEvent {
	return models.OutboundEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		EntityID:   entityID,
		MatchID:    matchID,
		State:      state,
		OccurredAt: now,
	}
}

// StatusChanged reports a match status transition.
func StatusChanged(m *models.Match, now time.Time) models.OutboundEvent {
	return NewEvent(models.KindMatchStatusChanged, m.ID.String(), m.ID, string(m.Status), now)
}

// ReleaseChanged reports a release gate opening; state is the gate name.
func ReleaseChanged(m *models.Match, gate models.ReleaseGate, now time.Time) models.OutboundEvent {
	return NewEvent(models.KindMatchReleaseChanged, m.ID.String(), m.ID, string(gate)+"_released", now)
}

// AllocationChanged reports an allocation action; state is the history action.
func AllocationChanged(a *models.Allocation, action models.HistoryAction, now time.Time) models.OutboundEvent {
	return NewEvent(models.KindAllocationChanged, a.ID.String(), a.MatchID, string(action), now)
}
