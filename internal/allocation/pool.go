package allocation

import (
	"context"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// PoolEntry is an available user and where they are already placed in the
// series.
type PoolEntry struct {
	UserID    id.UserID    `json:"user_id"`
	Allocated bool         `json:"allocated"`
	MatchIDs  []id.MatchID `json:"match_ids"`
}

// Pool lists the users available for the series' event. Availability is
// informational; allocation never requires it.
func (s *Service) Pool(ctx context.Context, seriesID id.SeriesID) ([]PoolEntry, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	sr, err := s.store.FindSeries(ctx, seriesID)
	if err != nil {
		return nil, translate(err, "series")
	}
	var available []id.UserID
	if s.availability != nil {
		available, err = s.availability.Available(ctx, sr.EventID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load availability")
		}
	}
	allocations, err := s.store.ListSeriesAllocations(ctx, seriesID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}

	placed := make(map[id.UserID][]id.MatchID)
	for _, a := range allocations {
		userID, ok := a.Participant.UserID()
		if !ok {
			continue
		}
		if !containsMatch(placed[userID], a.MatchID) {
			placed[userID] = append(placed[userID], a.MatchID)
		}
	}

	out := make([]PoolEntry, 0, len(available))
	for _, userID := range available {
		matches := placed[userID]
		if matches == nil {
			matches = []id.MatchID{}
		}
		out = append(out, PoolEntry{UserID: userID, Allocated: len(matches) > 0, MatchIDs: matches})
	}
	return out, nil
}

func containsMatch(ids []id.MatchID, matchID id.MatchID) bool {
	for _, m := range ids {
		if m == matchID {
			return true
		}
	}
	return false
}

type HistoryPage struct {
	Items  []*models.AllocationHistory `json:"items"`
	Total  int                         `json:"total"`
	Limit  int                         `json:"limit"`
	Offset int                         `json:"offset"`
}

// History pages a match's allocation audit trail, oldest first. Rows of
// deleted allocations remain.
func (s *Service) History(ctx context.Context, matchID id.MatchID, limit, offset int) (*HistoryPage, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.store.ListHistory(ctx, matchID, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocation history")
	}
	return &HistoryPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}
