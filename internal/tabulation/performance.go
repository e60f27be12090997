package tabulation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/requestcontext"
)

// matchRecord is one match's data as needed for a user's statistics.
type matchRecord struct {
	match   *models.Match
	teams   map[id.TeamID]*models.MatchTeam
	format  models.TeamFormat
	ballots map[id.BallotID]*models.Ballot
	scores  []*models.SpeakerScore
}

// Performance summarizes a user's rounds, optionally within one event.
// Callers see their own statistics; admins see anyone's. Non-admins only get
// scores and ranks from matches whose results have been released.
func (s *Service) Performance(ctx context.Context, userID id.UserID, eventID *id.EventID) (*models.UserPerformance, error) {
	admin := requestcontext.IsAdmin(ctx)
	if !admin && requestcontext.UserID(ctx) != userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "performance is visible to the user and admins only")
	}
	allocations, err := s.store.ListUserAllocations(ctx, userID, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}

	var matchIDs []id.MatchID
	seen := make(map[id.MatchID]bool)
	for _, a := range allocations {
		if !seen[a.MatchID] {
			seen[a.MatchID] = true
			matchIDs = append(matchIDs, a.MatchID)
		}
	}

	records := make([]*matchRecord, len(matchIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, matchID := range matchIDs {
		g.Go(func() error {
			rec, err := s.loadRecord(gctx, matchID)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	byMatch := make(map[id.MatchID]*matchRecord, len(records))
	for _, rec := range records {
		byMatch[rec.match.ID] = rec
	}

	perf := &models.UserPerformance{UserID: userID, EventID: eventID, RankDistribution: map[int]int{}}
	var scoreSum float64
	var scoreCount int
	rankedTeams := make(map[id.TeamID]bool)
	for _, a := range allocations {
		rec := byMatch[a.MatchID]
		switch a.Role {
		case models.RoleSpeaker:
			perf.SpeakerRounds++
		case models.RoleResource:
			perf.ResourceRounds++
		default:
			perf.AdjudicatorRounds++
			if a.IsChair {
				perf.ChairedRounds++
			}
		}
		if a.Role != models.RoleSpeaker || rec.match.Status != models.MatchCompleted {
			continue
		}

		if admin || rec.match.ScoresReleased {
			scored := false
			for _, sc := range rec.scores {
				b := rec.ballots[sc.BallotID]
				if sc.AllocationID != a.ID || b == nil || !b.IsVoting || !b.IsSubmitted {
					continue
				}
				scoreSum += sc.Score
				scoreCount++
				scored = true
			}
			if scored {
				perf.ScoredRounds++
			}
		}

		if (admin || rec.match.RankingsReleased) && a.TeamID != nil && !rankedTeams[*a.TeamID] {
			t := rec.teams[*a.TeamID]
			if t == nil || t.FinalRank == nil {
				continue
			}
			rankedTeams[*a.TeamID] = true
			perf.RankDistribution[*t.FinalRank]++
			if rec.format == models.TeamFormatTwoTeam {
				if *t.FinalRank == 1 {
					perf.Wins++
				} else {
					perf.Losses++
				}
			}
		}
	}
	if scoreCount > 0 {
		avg := round2(scoreSum / float64(scoreCount))
		perf.AverageScore = &avg
	}
	return perf, nil
}

func (s *Service) loadRecord(ctx context.Context, matchID id.MatchID) (*matchRecord, error) {
	m, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, translate(err, "match")
	}
	sr, err := s.store.FindSeriesForMatch(ctx, matchID)
	if err != nil {
		return nil, translate(err, "series")
	}
	teams, err := s.store.ListTeams(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}
	ballots, err := s.store.ListBallots(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ballots")
	}
	scores, err := s.store.ListMatchScores(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scores")
	}
	rec := &matchRecord{
		match:   m,
		format:  sr.TeamFormat,
		teams:   make(map[id.TeamID]*models.MatchTeam, len(teams)),
		ballots: make(map[id.BallotID]*models.Ballot, len(ballots)),
		scores:  scores,
	}
	for _, t := range teams {
		rec.teams[t.ID] = t
	}
	for _, b := range ballots {
		rec.ballots[b.ID] = b
	}
	return rec, nil
}
