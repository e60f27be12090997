package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabrela/internal/allocation"
	"tabrela/internal/ballot"
	"tabrela/internal/enginetest"
	"tabrela/internal/match"
	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/testutil"
)

func submitFull(t *testing.T, e *enginetest.Engine, r *enginetest.Round, judge id.UserID, scores map[id.AllocationID]float64, order []id.TeamID) {
	t.Helper()
	b := e.BallotOf(t, r, judge)
	req := ballot.SubmitRequest{Finalize: true}
	for allocationID, score := range scores {
		req.Scores = append(req.Scores, ballot.ScoreEntry{AllocationID: allocationID, Score: score})
	}
	for i, teamID := range order {
		req.Rankings = append(req.Rankings, ballot.RankingEntry{TeamID: teamID, Rank: i + 1})
	}
	_, err := e.Ballots.Submit(testutil.UserContext(judge), b.ID, req)
	require.NoError(t, err)
}

func TestMatchLifecycle(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)
	gov := r.Team(t, models.TwoTeamSlot(models.Government))
	opp := r.Team(t, models.TwoTeamSlot(models.Opposition))

	testutil.Given(t, "a new match", func(t *testing.T) {
		assert.Equal(t, models.MatchDraft, r.Match.Status)
		assert.Len(t, r.Teams, 2, "one default team per position")

		testutil.Then(t, "it cannot skip straight to in progress", func(t *testing.T) {
			_, err := e.Matches.Transition(e.Admin, r.Match.ID, models.MatchInProgress)
			assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err))
		})
	})

	judges := []id.UserID{id.NewUserID(), id.NewUserID(), id.NewUserID()}
	trainee := id.NewUserID()
	pm := e.Speaker(t, r, id.NewUserID(), gov, models.TwoTeamSpeaker(models.TwoPrimeMinister))
	lo := e.Speaker(t, r, id.NewUserID(), opp, models.TwoTeamSpeaker(models.TwoLeaderOfOpposition))
	for i, j := range judges {
		e.Adjudicator(t, r, j, true, i == 0)
	}
	e.Adjudicator(t, r, trainee, false, false)
	e.Advance(t, r, models.MatchPublished, models.MatchInProgress)

	testutil.When(t, "ballots are outstanding", func(t *testing.T) {
		submitFull(t, e, r, judges[0], map[id.AllocationID]float64{pm.ID: 72, lo.ID: 70}, []id.TeamID{gov.ID, opp.ID})

		testutil.Then(t, "completion lists the missing voting adjudicators", func(t *testing.T) {
			_, err := e.Matches.Transition(e.Admin, r.Match.ID, models.MatchCompleted)
			de, ok := dErrors.As(err)
			require.True(t, ok)
			assert.Equal(t, dErrors.CodePendingBallots, de.Code)
			assert.ElementsMatch(t, []string{judges[1].String(), judges[2].String()}, de.Details)

			m, err := e.Matches.GetMatch(e.Admin, r.Match.ID)
			require.NoError(t, err)
			assert.Equal(t, models.MatchInProgress, m.Match.Status, "status unchanged")
		})
	})

	testutil.When(t, "every voting ballot is in", func(t *testing.T) {
		submitFull(t, e, r, judges[1], map[id.AllocationID]float64{pm.ID: 78, lo.ID: 71}, []id.TeamID{gov.ID, opp.ID})
		submitFull(t, e, r, judges[2], map[id.AllocationID]float64{pm.ID: 75, lo.ID: 77}, []id.TeamID{opp.ID, gov.ID})

		m, err := e.Matches.Transition(e.Admin, r.Match.ID, models.MatchCompleted)
		require.NoError(t, err)

		testutil.Then(t, "the match completes without the trainee ballot and is tabulated", func(t *testing.T) {
			assert.Equal(t, models.MatchCompleted, m.Status)
			assert.Equal(t, models.TabulationResolved, m.Tabulation)

			view, err := e.Tabulation.View(e.Admin, r.Match.ID)
			require.NoError(t, err)
			for _, tr := range view.Teams {
				require.NotNil(t, tr.FinalRank)
				if tr.TeamID == gov.ID {
					assert.Equal(t, 1, *tr.FinalRank)
					assert.InDelta(t, 75.0, *tr.TotalSpeakerPoints, 0.001)
				}
			}
		})

		testutil.Then(t, "results stay hidden from players until released", func(t *testing.T) {
			player := testutil.UserContext(id.NewUserID())
			view, err := e.Tabulation.View(player, r.Match.ID)
			require.NoError(t, err)
			for _, tr := range view.Teams {
				assert.Nil(t, tr.FinalRank)
				assert.Nil(t, tr.TotalSpeakerPoints)
			}
			assert.Empty(t, view.Speakers)

			_, err = e.Matches.SetRelease(e.Admin, r.Match.ID, models.GateRankings, true)
			require.NoError(t, err)
			view, err = e.Tabulation.View(player, r.Match.ID)
			require.NoError(t, err)
			for _, tr := range view.Teams {
				assert.NotNil(t, tr.FinalRank)
				assert.Nil(t, tr.TotalSpeakerPoints, "scores gate is still closed")
			}
		})

		testutil.Then(t, "released gates cannot be withdrawn", func(t *testing.T) {
			_, err := e.Matches.SetRelease(e.Admin, r.Match.ID, models.GateRankings, false)
			assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err))
		})

		testutil.Then(t, "the completed match is terminal", func(t *testing.T) {
			_, err := e.Matches.Transition(e.Admin, r.Match.ID, models.MatchCancelled)
			assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err))
		})
	})
}

func TestPublishRequiresEveryPosition(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatFourTeam)
	cg := r.Team(t, models.FourTeamSlot(models.ClosingGovernment))
	require.NoError(t, e.Matches.RemoveTeam(e.Admin, cg.ID))

	_, err := e.Matches.Transition(e.Admin, r.Match.ID, models.MatchPublished)
	de, ok := dErrors.As(err)
	require.True(t, ok)
	assert.Equal(t, dErrors.CodeIncompleteSetup, de.Code)
	assert.Equal(t, []string{"closing_government"}, de.Details)

	_, err = e.Matches.AddTeam(e.Admin, r.Match.ID, models.FourTeamSlot(models.ClosingGovernment), "Hawks", "North College")
	require.NoError(t, err)
	m, err := e.Matches.Transition(e.Admin, r.Match.ID, models.MatchPublished)
	require.NoError(t, err)
	assert.Equal(t, models.MatchPublished, m.Status)
}

func TestTeamsFollowTheSeriesFormat(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)

	_, err := e.Matches.AddTeam(e.Admin, r.Match.ID, models.FourTeamSlot(models.OpeningGovernment), "", "")
	assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))

	_, err = e.Matches.AddTeam(e.Admin, r.Match.ID, models.TwoTeamSlot(models.Government), "", "")
	assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err), "position already occupied")

	gov := r.Team(t, models.TwoTeamSlot(models.Government))
	name := "  Owls "
	updated, err := e.Matches.UpdateTeam(e.Admin, gov.ID, match.UpdateTeamRequest{TeamName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Owls", updated.TeamName)
}

func TestUnresolvedMatchNeedsManualRanks(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)
	gov := r.Team(t, models.TwoTeamSlot(models.Government))
	opp := r.Team(t, models.TwoTeamSlot(models.Opposition))
	pm := e.Speaker(t, r, id.NewUserID(), gov, models.TwoTeamSpeaker(models.TwoPrimeMinister))
	lo := e.Speaker(t, r, id.NewUserID(), opp, models.TwoTeamSpeaker(models.TwoLeaderOfOpposition))
	a, b := id.NewUserID(), id.NewUserID()
	e.Adjudicator(t, r, a, true, true)
	e.Adjudicator(t, r, b, true, false)
	e.Advance(t, r, models.MatchPublished, models.MatchInProgress)

	submitFull(t, e, r, a, map[id.AllocationID]float64{pm.ID: 75, lo.ID: 75}, []id.TeamID{gov.ID, opp.ID})
	submitFull(t, e, r, b, map[id.AllocationID]float64{pm.ID: 75, lo.ID: 75}, []id.TeamID{opp.ID, gov.ID})
	e.Advance(t, r, models.MatchCompleted)
	assert.Equal(t, models.TabulationUnresolved, r.Match.Tabulation)

	_, err := e.Tabulation.ResolveManually(e.Admin, r.Match.ID, map[id.TeamID]int{gov.ID: 1, opp.ID: 1})
	assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))

	res, err := e.Tabulation.ResolveManually(e.Admin, r.Match.ID, map[id.TeamID]int{gov.ID: 2, opp.ID: 1})
	require.NoError(t, err)
	assert.Equal(t, models.TabulationResolved, res.Status)

	view, err := e.Matches.GetMatch(e.Admin, r.Match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TabulationResolved, view.Match.Tabulation)
	for _, team := range view.Teams {
		require.NotNil(t, team.FinalRank)
		if team.ID == opp.ID {
			assert.Equal(t, 1, *team.FinalRank)
		}
	}

	_, err = e.Tabulation.ResolveManually(e.Admin, r.Match.ID, map[id.TeamID]int{gov.ID: 1, opp.ID: 2})
	assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err), "already resolved")
}

func TestOutboundEventsRecorded(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)
	e.Advance(t, r, models.MatchPublished)

	pending, err := e.Store.PendingOutbox(e.Admin, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.KindMatchStatusChanged, pending[0].Kind)
	assert.Equal(t, string(models.MatchPublished), pending[0].State)
	assert.Equal(t, r.Match.ID, pending[0].MatchID)
}
