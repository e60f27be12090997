package ballot

import (
	"context"
	"fmt"
	"sort"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/requestcontext"
)

// writeScope is a ballot re-read inside its match transaction, with the
// match context its entries are validated against.
type writeScope struct {
	svc    *Service
	ballot *models.Ballot
	series *models.MatchSeries
}

// write runs fn against a ballot under the match lock and persists the
// ballot afterwards. Only the adjudicator or an admin may write.
func (s *Service) write(ctx context.Context, ballotID id.BallotID, fn func(ctx context.Context, w *writeScope) error) error {
	b, err := s.store.FindBallot(ctx, ballotID)
	if err != nil {
		return translate(err, "ballot")
	}
	if err := authorize(ctx, b); err != nil {
		return err
	}
	err = s.tx.RunInMatchTx(ctx, b.MatchID, func(ctx context.Context) error {
		b, err := s.store.FindBallot(ctx, ballotID)
		if err != nil {
			return err
		}
		if _, err := s.writableMatch(ctx, b.MatchID); err != nil {
			return err
		}
		if err := b.EnsureOpen(); err != nil {
			return err
		}
		sr, err := s.store.FindSeriesForMatch(ctx, b.MatchID)
		if err != nil {
			return translate(err, "series")
		}
		w := &writeScope{svc: s, ballot: b, series: sr}
		if err := fn(ctx, w); err != nil {
			return err
		}
		b.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateBallot(ctx, b); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update ballot")
		}
		return nil
	})
	if err != nil {
		return translate(err, "ballot")
	}
	return nil
}

func (w *writeScope) score(ctx context.Context, entry ScoreEntry) (*models.SpeakerScore, error) {
	if err := w.ballot.EnsureVoting(); err != nil {
		return nil, err
	}
	a, err := w.svc.store.FindAllocation(ctx, entry.AllocationID)
	if err != nil {
		return nil, translate(err, "speaker allocation")
	}
	if a.MatchID != w.ballot.MatchID || a.Role != models.RoleSpeaker {
		return nil, dErrors.New(dErrors.CodeValidation, "scores apply to speaker allocations of the same match")
	}
	sc, err := models.NewSpeakerScore(w.ballot.ID, a.ID, entry.Score, entry.Feedback, requestcontext.Now(ctx))
	if err != nil {
		return nil, asValidation(err)
	}
	if err := w.svc.store.UpsertScore(ctx, sc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save score")
	}
	return sc, nil
}

func (w *writeScope) rank(ctx context.Context, entry RankingEntry) (*models.TeamRanking, error) {
	if err := w.ballot.EnsureVoting(); err != nil {
		return nil, err
	}
	teams, err := w.svc.store.ListTeams(ctx, w.ballot.MatchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}
	found := false
	for _, t := range teams {
		if t.ID == entry.TeamID {
			found = true
			break
		}
	}
	if !found {
		return nil, dErrors.New(dErrors.CodeValidation, "team does not belong to this match")
	}
	r, err := models.NewTeamRanking(w.ballot.ID, entry.TeamID, w.series.TeamFormat, entry.Rank, entry.IsWinner, requestcontext.Now(ctx))
	if err != nil {
		return nil, asValidation(err)
	}
	if err := w.svc.store.UpsertRanking(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save ranking")
	}
	return r, nil
}

// finalize checks completeness of a voting ballot and flips it to submitted.
func (w *writeScope) finalize(ctx context.Context) error {
	if w.ballot.IsVoting {
		if missing, err := w.incomplete(ctx); err != nil {
			return err
		} else if len(missing) > 0 {
			return dErrors.New(dErrors.CodeValidation, "ballot is incomplete").WithDetails(missing...)
		}
	}
	return w.ballot.Finalize(requestcontext.Now(ctx))
}

// incomplete lists what keeps a voting ballot from being finalized: unscored
// speakers, unranked teams, a rank set that is not a permutation and, for
// two teams, a winner flag that does not match rank 1.
func (w *writeScope) incomplete(ctx context.Context) ([]string, error) {
	store := w.svc.store
	allocations, err := store.ListAllocations(ctx, w.ballot.MatchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}
	teams, err := store.ListTeams(ctx, w.ballot.MatchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}
	scores, err := store.ListScores(ctx, w.ballot.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scores")
	}
	rankings, err := store.ListRankings(ctx, w.ballot.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rankings")
	}

	var missing []string
	scored := make(map[id.AllocationID]bool, len(scores))
	for _, sc := range scores {
		scored[sc.AllocationID] = true
	}
	for _, a := range allocations {
		if a.Role == models.RoleSpeaker && !scored[a.ID] {
			missing = append(missing, "score:"+a.ID.String())
		}
	}

	ranked := make(map[id.TeamID]*models.TeamRanking, len(rankings))
	for _, r := range rankings {
		ranked[r.TeamID] = r
	}
	for _, t := range teams {
		if _, ok := ranked[t.ID]; !ok {
			missing = append(missing, "ranking:"+t.ID.String())
		}
	}
	if len(missing) > 0 {
		return missing, nil
	}

	ranks := make([]int, 0, len(teams))
	winners := 0
	for _, t := range teams {
		r := ranked[t.ID]
		ranks = append(ranks, r.Rank)
		if r.IsWinner != nil && *r.IsWinner {
			winners++
			if r.Rank != 1 {
				missing = append(missing, "winner_rank:"+t.ID.String())
			}
		}
	}
	sort.Ints(ranks)
	for i, r := range ranks {
		if r != i+1 {
			missing = append(missing, fmt.Sprintf("ranks:not a permutation of 1..%d", len(teams)))
			break
		}
	}
	if w.series.TeamFormat == models.TeamFormatTwoTeam && winners != 1 {
		missing = append(missing, "winner:exactly one team must win")
	}
	return missing, nil
}
