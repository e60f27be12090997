package memory

import (
	"context"
	"sort"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

func allocationKey(a *models.Allocation) string {
	return a.Participant.Key() + "|" + string(a.Role) + "|" + a.SpeakerRole.String()
}

// CreateAllocation mirrors the relational unique index on
// (match, participant, role, speaker role).
func (s *Store) CreateAllocation(ctx context.Context, a *models.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[a.MatchID]; !ok {
		return errNotFound
	}
	if err := s.checkAllocationUniqueLocked(a); err != nil {
		return err
	}
	put(ctx, s, s.allocations, a.ID, cloneAllocation(a))
	return nil
}

func (s *Store) UpdateAllocation(ctx context.Context, a *models.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[a.ID]; !ok {
		return errNotFound
	}
	if err := s.checkAllocationUniqueLocked(a); err != nil {
		return err
	}
	put(ctx, s, s.allocations, a.ID, cloneAllocation(a))
	return nil
}

func (s *Store) checkAllocationUniqueLocked(a *models.Allocation) error {
	key := allocationKey(a)
	for _, existing := range s.allocations {
		if existing.ID != a.ID && existing.MatchID == a.MatchID && allocationKey(existing) == key {
			return errConflict
		}
	}
	return nil
}

func (s *Store) FindAllocation(_ context.Context, allocationID id.AllocationID) (*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.allocations[allocationID]
	if !ok {
		return nil, errNotFound
	}
	return cloneAllocation(a), nil
}

func (s *Store) ListAllocations(_ context.Context, matchID id.MatchID) ([]*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Allocation
	for _, a := range s.allocations {
		if a.MatchID == matchID {
			out = append(out, cloneAllocation(a))
		}
	}
	sortAllocations(out)
	return out, nil
}

// ListSeriesAllocations returns every allocation under a series.
func (s *Store) ListSeriesAllocations(_ context.Context, seriesID id.SeriesID) ([]*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Allocation
	for _, a := range s.allocations {
		if m, ok := s.matches[a.MatchID]; ok && m.SeriesID == seriesID {
			out = append(out, cloneAllocation(a))
		}
	}
	sortAllocations(out)
	return out, nil
}

// ListUserAllocations returns a registered user's allocations, optionally
// restricted to one event.
func (s *Store) ListUserAllocations(_ context.Context, userID id.UserID, eventID *id.EventID) ([]*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Allocation
	for _, a := range s.allocations {
		uid, ok := a.Participant.UserID()
		if !ok || uid != userID {
			continue
		}
		if eventID != nil {
			m, ok := s.matches[a.MatchID]
			if !ok {
				continue
			}
			sr, ok := s.series[m.SeriesID]
			if !ok || sr.EventID != *eventID {
				continue
			}
		}
		out = append(out, cloneAllocation(a))
	}
	sortAllocations(out)
	return out, nil
}

func sortAllocations(out []*models.Allocation) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].AllocatedAt.Equal(out[j].AllocatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].AllocatedAt.Before(out[j].AllocatedAt)
	})
}

func (s *Store) DeleteAllocation(ctx context.Context, allocationID id.AllocationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[allocationID]; !ok {
		return errNotFound
	}
	s.deleteAllocationLocked(ctx, allocationID)
	return nil
}

// deleteAllocationLocked removes the allocation, its ballot and the scores
// given to it, and clears history references to it.
func (s *Store) deleteAllocationLocked(ctx context.Context, allocationID id.AllocationID) {
	for ballotID, b := range s.ballots {
		if b.AllocationID == allocationID {
			s.deleteBallotLocked(ctx, ballotID)
		}
	}
	for key, sc := range s.scores {
		if sc.AllocationID == allocationID {
			drop(ctx, s, s.scores, key)
		}
	}
	for i, h := range s.history {
		if h.AllocationID == nil || *h.AllocationID != allocationID {
			continue
		}
		prev := h
		cleared := cloneHistory(h)
		cleared.AllocationID = nil
		s.history[i] = cleared
		idx := i
		s.remember(ctx, func() { s.history[idx] = prev })
	}
	drop(ctx, s, s.allocations, allocationID)
}

func (s *Store) AppendHistory(ctx context.Context, h *models.AllocationHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, cloneHistory(h))
	n := len(s.history) - 1
	s.remember(ctx, func() { s.history = s.history[:n] })
	return nil
}

// ListHistory pages a match's audit trail oldest first and reports the total.
func (s *Store) ListHistory(_ context.Context, matchID id.MatchID, limit, offset int) ([]*models.AllocationHistory, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*models.AllocationHistory
	for _, h := range s.history {
		if h.MatchID == matchID {
			all = append(all, h)
		}
	}
	total := len(all)
	if offset >= total {
		return []*models.AllocationHistory{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	out := make([]*models.AllocationHistory, 0, end-offset)
	for _, h := range all[offset:end] {
		out = append(out, cloneHistory(h))
	}
	return out, total, nil
}
