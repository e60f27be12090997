package tabulation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabrela/internal/allocation"
	"tabrela/internal/ballot"
	"tabrela/internal/enginetest"
	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/testutil"
)

type played struct {
	engine  *enginetest.Engine
	round   *enginetest.Round
	speaker id.UserID
	chair   id.UserID
}

// playMatch completes a two-team match where the government speaker scores
// 72 and 78 and wins on both ballots.
func playMatch(t *testing.T) *played {
	t.Helper()
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)
	gov := r.Team(t, models.TwoTeamSlot(models.Government))
	opp := r.Team(t, models.TwoTeamSlot(models.Opposition))
	p := &played{engine: e, round: r, speaker: id.NewUserID(), chair: id.NewUserID()}

	pm := e.Speaker(t, r, p.speaker, gov, models.TwoTeamSpeaker(models.TwoPrimeMinister))
	lo := e.Speaker(t, r, id.NewUserID(), opp, models.TwoTeamSpeaker(models.TwoLeaderOfOpposition))
	wing := id.NewUserID()
	e.Adjudicator(t, r, p.chair, true, true)
	e.Adjudicator(t, r, wing, true, false)
	e.Advance(t, r, models.MatchPublished, models.MatchInProgress)

	for judge, score := range map[id.UserID]float64{p.chair: 72, wing: 78} {
		b := e.BallotOf(t, r, judge)
		_, err := e.Ballots.Submit(testutil.UserContext(judge), b.ID, ballot.SubmitRequest{
			Scores:   []ballot.ScoreEntry{{AllocationID: pm.ID, Score: score}, {AllocationID: lo.ID, Score: 70}},
			Rankings: []ballot.RankingEntry{{TeamID: gov.ID, Rank: 1}, {TeamID: opp.ID, Rank: 2}},
			Finalize: true,
		})
		require.NoError(t, err)
	}
	e.Advance(t, r, models.MatchCompleted)
	return p
}

func TestPerformance(t *testing.T) {
	p := playMatch(t)
	e := p.engine
	self := testutil.UserContext(p.speaker)

	t.Run("hidden until released", func(t *testing.T) {
		perf, err := e.Tabulation.Performance(self, p.speaker, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, perf.SpeakerRounds)
		assert.Nil(t, perf.AverageScore)
		assert.Zero(t, perf.Wins)
		assert.Empty(t, perf.RankDistribution)
	})

	t.Run("admins see unreleased results", func(t *testing.T) {
		perf, err := e.Tabulation.Performance(e.Admin, p.speaker, nil)
		require.NoError(t, err)
		require.NotNil(t, perf.AverageScore)
		assert.Equal(t, 75.0, *perf.AverageScore)
		assert.Equal(t, 1, perf.Wins)
		assert.Equal(t, map[int]int{1: 1}, perf.RankDistribution)
	})

	t.Run("released gates open the numbers", func(t *testing.T) {
		_, err := e.Matches.SetRelease(e.Admin, p.round.Match.ID, models.GateScores, true)
		require.NoError(t, err)
		perf, err := e.Tabulation.Performance(self, p.speaker, nil)
		require.NoError(t, err)
		require.NotNil(t, perf.AverageScore)
		assert.Equal(t, 75.0, *perf.AverageScore)
		assert.Equal(t, 1, perf.ScoredRounds)
		assert.Zero(t, perf.Wins, "rankings are still held back")

		_, err = e.Matches.SetRelease(e.Admin, p.round.Match.ID, models.GateRankings, true)
		require.NoError(t, err)
		perf, err = e.Tabulation.Performance(self, p.speaker, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, perf.Wins)
		assert.Zero(t, perf.Losses)
	})

	t.Run("adjudicator rounds", func(t *testing.T) {
		perf, err := e.Tabulation.Performance(testutil.UserContext(p.chair), p.chair, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, perf.AdjudicatorRounds)
		assert.Equal(t, 1, perf.ChairedRounds)
		assert.Zero(t, perf.SpeakerRounds)
		assert.Nil(t, perf.AverageScore)
	})

	t.Run("scoped to an event", func(t *testing.T) {
		other := id.NewEventID()
		perf, err := e.Tabulation.Performance(self, p.speaker, &other)
		require.NoError(t, err)
		assert.Zero(t, perf.SpeakerRounds)

		eventID := p.round.Event.ID
		perf, err = e.Tabulation.Performance(self, p.speaker, &eventID)
		require.NoError(t, err)
		assert.Equal(t, 1, perf.SpeakerRounds)
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		_, err := e.Tabulation.Performance(testutil.UserContext(id.NewUserID()), p.speaker, nil)
		assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	})
}

func TestRecompute(t *testing.T) {
	p := playMatch(t)
	e := p.engine

	res, err := e.Tabulation.Recompute(e.Admin, p.round.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TabulationResolved, res.Status)
	assert.Equal(t, 2, res.BallotsCounted)

	_, err = e.Tabulation.Recompute(testutil.UserContext(p.chair), p.round.Match.ID)
	assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))

	draft := e.NewRound(t, models.TeamFormatTwoTeam)
	_, err = e.Tabulation.Recompute(e.Admin, draft.Match.ID)
	assert.Equal(t, dErrors.CodeInvalidState, dErrors.CodeOf(err))

	_, err = e.Tabulation.Recompute(e.Admin, id.NewMatchID())
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}
