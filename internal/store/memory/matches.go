package memory

import (
	"context"
	"sort"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

func (s *Store) CreateMatch(ctx context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[m.SeriesID]; !ok {
		return errNotFound
	}
	if _, ok := s.matches[m.ID]; ok {
		return errConflict
	}
	put(ctx, s, s.matches, m.ID, cloneMatch(m))
	return nil
}

func (s *Store) UpdateMatch(ctx context.Context, m *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[m.ID]; !ok {
		return errNotFound
	}
	put(ctx, s, s.matches, m.ID, cloneMatch(m))
	return nil
}

func (s *Store) FindMatch(_ context.Context, matchID id.MatchID) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, errNotFound
	}
	return cloneMatch(m), nil
}

// FindSeriesForMatch resolves the parent series of a match.
func (s *Store) FindSeriesForMatch(_ context.Context, matchID id.MatchID) (*models.MatchSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[matchID]
	if !ok {
		return nil, errNotFound
	}
	sr, ok := s.series[m.SeriesID]
	if !ok {
		return nil, errNotFound
	}
	return cloneSeries(sr), nil
}

func (s *Store) ListMatches(_ context.Context, seriesID id.SeriesID) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Match
	for _, m := range s.matches {
		if m.SeriesID == seriesID {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteMatch(ctx context.Context, matchID id.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[matchID]; !ok {
		return errNotFound
	}
	s.deleteMatchLocked(ctx, matchID)
	return nil
}

// deleteMatchLocked cascades to teams, allocations and ballots. History rows
// survive with their allocation reference cleared.
func (s *Store) deleteMatchLocked(ctx context.Context, matchID id.MatchID) {
	for ballotID, b := range s.ballots {
		if b.MatchID == matchID {
			s.deleteBallotLocked(ctx, ballotID)
		}
	}
	for allocationID, a := range s.allocations {
		if a.MatchID == matchID {
			s.deleteAllocationLocked(ctx, allocationID)
		}
	}
	for teamID, t := range s.teams {
		if t.MatchID == matchID {
			drop(ctx, s, s.teams, teamID)
		}
	}
	drop(ctx, s, s.matches, matchID)
}

func (s *Store) CreateTeam(ctx context.Context, t *models.MatchTeam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[t.MatchID]; !ok {
		return errNotFound
	}
	for _, existing := range s.teams {
		if existing.MatchID == t.MatchID && existing.Position == t.Position {
			return errConflict
		}
	}
	put(ctx, s, s.teams, t.ID, cloneTeam(t))
	return nil
}

func (s *Store) UpdateTeam(ctx context.Context, t *models.MatchTeam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.ID]; !ok {
		return errNotFound
	}
	put(ctx, s, s.teams, t.ID, cloneTeam(t))
	return nil
}

func (s *Store) FindTeam(_ context.Context, teamID id.TeamID) (*models.MatchTeam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[teamID]
	if !ok {
		return nil, errNotFound
	}
	return cloneTeam(t), nil
}

// ListTeams returns a match's teams in bench order.
func (s *Store) ListTeams(_ context.Context, matchID id.MatchID) ([]*models.MatchTeam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.MatchTeam
	for _, t := range s.teams {
		if t.MatchID == matchID {
			out = append(out, cloneTeam(t))
		}
	}
	sortTeams(out)
	return out, nil
}

func sortTeams(teams []*models.MatchTeam) {
	order := make(map[models.TeamPosition]int)
	for i, p := range models.TeamFormatTwoTeam.Positions() {
		order[p] = i
	}
	for i, p := range models.TeamFormatFourTeam.Positions() {
		order[p] = i
	}
	sort.Slice(teams, func(i, j int) bool {
		oi, oj := order[teams[i].Position], order[teams[j].Position]
		if oi != oj {
			return oi < oj
		}
		return teams[i].CreatedAt.Before(teams[j].CreatedAt)
	})
}

func (s *Store) DeleteTeam(ctx context.Context, teamID id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[teamID]; !ok {
		return errNotFound
	}
	for key, r := range s.rankings {
		if r.TeamID == teamID {
			drop(ctx, s, s.rankings, key)
		}
	}
	drop(ctx, s, s.teams, teamID)
	return nil
}

// DeleteTeamsForMatch removes every team of a match.
func (s *Store) DeleteTeamsForMatch(ctx context.Context, matchID id.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for teamID, t := range s.teams {
		if t.MatchID != matchID {
			continue
		}
		for key, r := range s.rankings {
			if r.TeamID == teamID {
				drop(ctx, s, s.rankings, key)
			}
		}
		drop(ctx, s, s.teams, teamID)
	}
	return nil
}

// SaveTeamResults writes derived rank and points onto the match's teams.
// Teams absent from results are cleared.
func (s *Store) SaveTeamResults(ctx context.Context, matchID id.MatchID, results []models.TeamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTeam := make(map[id.TeamID]models.TeamResult, len(results))
	for _, r := range results {
		byTeam[r.TeamID] = r
	}
	for teamID, t := range s.teams {
		if t.MatchID != matchID {
			continue
		}
		cp := cloneTeam(t)
		r := byTeam[teamID]
		cp.FinalRank = nil
		cp.TotalSpeakerPoints = nil
		if r.FinalRank != nil {
			rank := *r.FinalRank
			cp.FinalRank = &rank
		}
		if r.TotalSpeakerPoints != nil {
			pts := *r.TotalSpeakerPoints
			cp.TotalSpeakerPoints = &pts
		}
		put(ctx, s, s.teams, teamID, cp)
	}
	return nil
}
