package memory

import (
	"context"
	"sort"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

// CreateBallot enforces one ballot per (match, adjudicator).
func (s *Store) CreateBallot(ctx context.Context, b *models.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[b.AllocationID]; !ok {
		return errNotFound
	}
	for _, existing := range s.ballots {
		if existing.MatchID == b.MatchID && existing.AdjudicatorID == b.AdjudicatorID {
			return errConflict
		}
	}
	put(ctx, s, s.ballots, b.ID, cloneBallot(b))
	return nil
}

func (s *Store) UpdateBallot(ctx context.Context, b *models.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ballots[b.ID]; !ok {
		return errNotFound
	}
	put(ctx, s, s.ballots, b.ID, cloneBallot(b))
	return nil
}

func (s *Store) FindBallot(_ context.Context, ballotID id.BallotID) (*models.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.ballots[ballotID]
	if !ok {
		return nil, errNotFound
	}
	return cloneBallot(b), nil
}

func (s *Store) FindBallotByAdjudicator(_ context.Context, matchID id.MatchID, userID id.UserID) (*models.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.ballots {
		if b.MatchID == matchID && b.AdjudicatorID == userID {
			return cloneBallot(b), nil
		}
	}
	return nil, errNotFound
}

func (s *Store) FindBallotByAllocation(_ context.Context, allocationID id.AllocationID) (*models.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.ballots {
		if b.AllocationID == allocationID {
			return cloneBallot(b), nil
		}
	}
	return nil, errNotFound
}

func (s *Store) ListBallots(_ context.Context, matchID id.MatchID) ([]*models.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Ballot
	for _, b := range s.ballots {
		if b.MatchID == matchID {
			out = append(out, cloneBallot(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteBallot(ctx context.Context, ballotID id.BallotID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ballots[ballotID]; !ok {
		return errNotFound
	}
	s.deleteBallotLocked(ctx, ballotID)
	return nil
}

func (s *Store) deleteBallotLocked(ctx context.Context, ballotID id.BallotID) {
	for key := range s.scores {
		if key.ballot == ballotID {
			drop(ctx, s, s.scores, key)
		}
	}
	for key := range s.rankings {
		if key.ballot == ballotID {
			drop(ctx, s, s.rankings, key)
		}
	}
	drop(ctx, s, s.ballots, ballotID)
}

// UpsertScore replaces any previous score for the same (ballot, allocation).
func (s *Store) UpsertScore(ctx context.Context, sc *models.SpeakerScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ballots[sc.BallotID]; !ok {
		return errNotFound
	}
	if _, ok := s.allocations[sc.AllocationID]; !ok {
		return errNotFound
	}
	put(ctx, s, s.scores, scoreKey{ballot: sc.BallotID, allocation: sc.AllocationID}, cloneScore(sc))
	return nil
}

func (s *Store) ListScores(_ context.Context, ballotID id.BallotID) ([]*models.SpeakerScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SpeakerScore
	for key, sc := range s.scores {
		if key.ballot == ballotID {
			out = append(out, cloneScore(sc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AllocationID.String() < out[j].AllocationID.String() })
	return out, nil
}

// ListMatchScores returns every score on every ballot of a match.
func (s *Store) ListMatchScores(_ context.Context, matchID id.MatchID) ([]*models.SpeakerScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SpeakerScore
	for key, sc := range s.scores {
		if b, ok := s.ballots[key.ballot]; ok && b.MatchID == matchID {
			out = append(out, cloneScore(sc))
		}
	}
	return out, nil
}

func (s *Store) UpsertRanking(ctx context.Context, r *models.TeamRanking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ballots[r.BallotID]; !ok {
		return errNotFound
	}
	if _, ok := s.teams[r.TeamID]; !ok {
		return errNotFound
	}
	put(ctx, s, s.rankings, rankingKey{ballot: r.BallotID, team: r.TeamID}, cloneRanking(r))
	return nil
}

func (s *Store) ListRankings(_ context.Context, ballotID id.BallotID) ([]*models.TeamRanking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TeamRanking
	for key, r := range s.rankings {
		if key.ballot == ballotID {
			out = append(out, cloneRanking(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (s *Store) ListMatchRankings(_ context.Context, matchID id.MatchID) ([]*models.TeamRanking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TeamRanking
	for key, r := range s.rankings {
		if b, ok := s.ballots[key.ballot]; ok && b.MatchID == matchID {
			out = append(out, cloneRanking(r))
		}
	}
	return out, nil
}
