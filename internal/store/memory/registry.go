package memory

import (
	"context"
	"sort"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return errConflict
	}
	put(ctx, s, s.events, e.ID, cloneEvent(e))
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return errNotFound
	}
	put(ctx, s, s.events, e.ID, cloneEvent(e))
	return nil
}

func (s *Store) FindEvent(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, errNotFound
	}
	return cloneEvent(e), nil
}

// ListEvents returns events newest first.
func (s *Store) ListEvents(_ context.Context) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) DeleteEvent(ctx context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return errNotFound
	}
	for seriesID, sr := range s.series {
		if sr.EventID == eventID {
			s.deleteSeriesLocked(ctx, seriesID)
		}
	}
	drop(ctx, s, s.events, eventID)
	return nil
}

func (s *Store) CreateSeries(ctx context.Context, sr *models.MatchSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[sr.EventID]; !ok {
		return errNotFound
	}
	if _, ok := s.series[sr.ID]; ok {
		return errConflict
	}
	put(ctx, s, s.series, sr.ID, cloneSeries(sr))
	return nil
}

func (s *Store) UpdateSeries(ctx context.Context, sr *models.MatchSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[sr.ID]; !ok {
		return errNotFound
	}
	put(ctx, s, s.series, sr.ID, cloneSeries(sr))
	return nil
}

func (s *Store) FindSeries(_ context.Context, seriesID id.SeriesID) (*models.MatchSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.series[seriesID]
	if !ok {
		return nil, errNotFound
	}
	return cloneSeries(sr), nil
}

// LockSeries reads a series for update. Registry-wide transactions already
// hold every shard, so no further locking is needed here.
func (s *Store) LockSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error) {
	return s.FindSeries(ctx, seriesID)
}

// ListSeries orders by round number (unnumbered last), then creation time.
func (s *Store) ListSeries(_ context.Context, eventID id.EventID) ([]*models.MatchSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.MatchSeries
	for _, sr := range s.series {
		if sr.EventID == eventID {
			out = append(out, cloneSeries(sr))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].RoundNumber, out[j].RoundNumber
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteSeries(ctx context.Context, seriesID id.SeriesID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[seriesID]; !ok {
		return errNotFound
	}
	s.deleteSeriesLocked(ctx, seriesID)
	return nil
}

func (s *Store) deleteSeriesLocked(ctx context.Context, seriesID id.SeriesID) {
	for matchID, m := range s.matches {
		if m.SeriesID == seriesID {
			s.deleteMatchLocked(ctx, matchID)
		}
	}
	drop(ctx, s, s.series, seriesID)
}

// CountSeriesAllocations counts allocations across every match of a series.
func (s *Store) CountSeriesAllocations(_ context.Context, seriesID id.SeriesID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.allocations {
		if m, ok := s.matches[a.MatchID]; ok && m.SeriesID == seriesID {
			n++
		}
	}
	return n, nil
}
