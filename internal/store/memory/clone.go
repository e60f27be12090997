package memory

import (
	"context"

	"tabrela/internal/models"
	"tabrela/pkg/platform/sentinel"
)

var (
	errNotFound = sentinel.ErrNotFound
	errConflict = sentinel.ErrConflict
)

// put stores v under k and journals the previous entry. Callers hold s.mu.
func put[K comparable, V any](ctx context.Context, s *Store, m map[K]V, k K, v V) {
	prev, had := m[k]
	m[k] = v
	s.remember(ctx, func() {
		if had {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// drop removes k and journals the removed entry. Callers hold s.mu.
func drop[K comparable, V any](ctx context.Context, s *Store, m map[K]V, k K) {
	prev, had := m[k]
	if !had {
		return
	}
	delete(m, k)
	s.remember(ctx, func() {
		m[k] = prev
	})
}

func cloneEvent(e *models.Event) *models.Event {
	cp := *e
	return &cp
}

func cloneSeries(s *models.MatchSeries) *models.MatchSeries {
	cp := *s
	if s.RoundNumber != nil {
		n := *s.RoundNumber
		cp.RoundNumber = &n
	}
	return &cp
}

func cloneMatch(m *models.Match) *models.Match {
	cp := *m
	if m.ScheduledTime != nil {
		t := *m.ScheduledTime
		cp.ScheduledTime = &t
	}
	return &cp
}

func cloneTeam(t *models.MatchTeam) *models.MatchTeam {
	cp := *t
	if t.FinalRank != nil {
		r := *t.FinalRank
		cp.FinalRank = &r
	}
	if t.TotalSpeakerPoints != nil {
		p := *t.TotalSpeakerPoints
		cp.TotalSpeakerPoints = &p
	}
	return &cp
}

func cloneAllocation(a *models.Allocation) *models.Allocation {
	cp := *a
	if a.TeamID != nil {
		t := *a.TeamID
		cp.TeamID = &t
	}
	return &cp
}

func cloneHistory(h *models.AllocationHistory) *models.AllocationHistory {
	cp := *h
	if h.AllocationID != nil {
		a := *h.AllocationID
		cp.AllocationID = &a
	}
	return &cp
}

func cloneBallot(b *models.Ballot) *models.Ballot {
	cp := *b
	if b.SubmittedAt != nil {
		t := *b.SubmittedAt
		cp.SubmittedAt = &t
	}
	return &cp
}

func cloneScore(s *models.SpeakerScore) *models.SpeakerScore {
	cp := *s
	return &cp
}

func cloneRanking(r *models.TeamRanking) *models.TeamRanking {
	cp := *r
	if r.IsWinner != nil {
		w := *r.IsWinner
		cp.IsWinner = &w
	}
	return &cp
}
