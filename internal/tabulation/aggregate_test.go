package tabulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

var computedAt = time.Date(2025, time.April, 2, 20, 0, 0, 0, time.UTC)

// fixture builds aggregation input for a match that starts with one speaker
// per team.
type fixture struct {
	in       Input
	speakers map[id.TeamID]id.AllocationID
}

func newFixture(format models.TeamFormat) *fixture {
	f := &fixture{
		in:       Input{MatchID: id.NewMatchID(), Format: format},
		speakers: map[id.TeamID]id.AllocationID{},
	}
	f.in.Teams = models.DefaultTeams(f.in.MatchID, format, computedAt)
	for i, t := range f.in.Teams {
		teamID := t.ID
		role := models.TwoTeamSpeaker(models.TwoPrimeMinister)
		if i%2 == 1 {
			role = models.TwoTeamSpeaker(models.TwoLeaderOfOpposition)
		}
		if format == models.TeamFormatFourTeam {
			role = models.FourTeamSpeaker([]models.FourTeamSpeakerRole{
				models.FourPrimeMinister, models.FourLeaderOfOpposition,
				models.FourMemberOfGovernment, models.FourMemberOfOpposition,
			}[i])
		}
		a := &models.Allocation{
			ID:          id.NewAllocationID(),
			MatchID:     f.in.MatchID,
			Participant: models.UserParticipant(id.NewUserID()),
			Role:        models.RoleSpeaker,
			TeamID:      &teamID,
			SpeakerRole: role,
		}
		f.in.Allocations = append(f.in.Allocations, a)
		f.speakers[teamID] = a.ID
	}
	return f
}

func (f *fixture) team(i int) id.TeamID { return f.in.Teams[i].ID }

// addSpeaker places a further speaker on a team.
func (f *fixture) addSpeaker(teamIdx int, role models.SpeakerRole) id.AllocationID {
	teamID := f.team(teamIdx)
	a := &models.Allocation{
		ID:          id.NewAllocationID(),
		MatchID:     f.in.MatchID,
		Participant: models.UserParticipant(id.NewUserID()),
		Role:        models.RoleSpeaker,
		TeamID:      &teamID,
		SpeakerRole: role,
	}
	f.in.Allocations = append(f.in.Allocations, a)
	return a.ID
}

// ballot adds a ballot that scores each team's speaker and ranks teams in
// the given order (first element ranked 1).
func (f *fixture) ballot(voting, submitted bool, scores map[int]float64, order ...int) {
	byAllocation := make(map[id.AllocationID]float64, len(scores))
	for teamIdx, score := range scores {
		byAllocation[f.speakers[f.team(teamIdx)]] = score
	}
	f.scored(voting, submitted, byAllocation, order...)
}

// scored adds a ballot that scores the given speaker allocations directly.
func (f *fixture) scored(voting, submitted bool, scores map[id.AllocationID]float64, order ...int) {
	b := &models.Ballot{ID: id.NewBallotID(), MatchID: f.in.MatchID, IsVoting: voting, IsSubmitted: submitted}
	f.in.Ballots = append(f.in.Ballots, b)
	for allocID, score := range scores {
		f.in.Scores = append(f.in.Scores, &models.SpeakerScore{
			BallotID:     b.ID,
			AllocationID: allocID,
			Score:        score,
		})
	}
	for rank, teamIdx := range order {
		f.in.Rankings = append(f.in.Rankings, &models.TeamRanking{BallotID: b.ID, TeamID: f.team(teamIdx), Rank: rank + 1})
	}
}

func teamResult(t *testing.T, r *models.TabulationResult, teamID id.TeamID) models.TeamResult {
	t.Helper()
	for _, tr := range r.Teams {
		if tr.TeamID == teamID {
			return tr
		}
	}
	t.Fatalf("team %s missing from result", teamID)
	return models.TeamResult{}
}

func TestAggregateAveragesSpeakerScores(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)
	f.ballot(true, true, map[int]float64{0: 72, 1: 70}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 78, 1: 71}, 0, 1)

	r := Aggregate(f.in, computedAt)

	require.Equal(t, models.TabulationResolved, r.Status)
	assert.Equal(t, 2, r.BallotsCounted)
	gov := teamResult(t, r, f.team(0))
	require.NotNil(t, gov.TotalSpeakerPoints)
	assert.InDelta(t, 75.00, *gov.TotalSpeakerPoints, 0.0001)
	require.NotNil(t, gov.FinalRank)
	assert.Equal(t, 1, *gov.FinalRank)
	opp := teamResult(t, r, f.team(1))
	assert.InDelta(t, 70.5, *opp.TotalSpeakerPoints, 0.0001)
	assert.Equal(t, 2, *opp.FinalRank)
	assert.Equal(t, computedAt, r.ComputedAt)
}

func TestAggregateMajorityWins(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)
	f.ballot(true, true, map[int]float64{0: 70, 1: 80}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 70, 1: 80}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 70, 1: 80}, 1, 0)

	r := Aggregate(f.in, computedAt)

	require.Equal(t, models.TabulationResolved, r.Status)
	assert.Equal(t, 1, *teamResult(t, r, f.team(0)).FinalRank, "two votes beat higher points")
	assert.Equal(t, 2, *teamResult(t, r, f.team(1)).FinalRank)
	assert.Equal(t, map[int]int{1: 2, 2: 1}, teamResult(t, r, f.team(0)).Votes)
}

func TestAggregatePointsBreakVoteTie(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)
	f.ballot(true, true, map[int]float64{0: 70, 1: 76}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 70, 1: 76}, 1, 0)

	r := Aggregate(f.in, computedAt)

	require.Equal(t, models.TabulationResolved, r.Status)
	assert.Equal(t, 1, *teamResult(t, r, f.team(1)).FinalRank)
}

func TestAggregateFullTieIsUnresolved(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)
	f.ballot(true, true, map[int]float64{0: 75, 1: 75}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 75, 1: 75}, 1, 0)

	r := Aggregate(f.in, computedAt)

	assert.Equal(t, models.TabulationUnresolved, r.Status)
	assert.ElementsMatch(t, []id.TeamID{f.team(0), f.team(1)}, r.TiedTeams)
	for _, tr := range r.Teams {
		assert.Nil(t, tr.FinalRank, "no rank is written while unresolved")
		assert.NotNil(t, tr.TotalSpeakerPoints)
	}
}

func TestAggregateIgnoresTraineeAndDraftBallots(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)
	f.ballot(true, true, map[int]float64{0: 74, 1: 72}, 0, 1)
	f.ballot(false, true, map[int]float64{0: 50, 1: 99}, 1, 0)
	f.ballot(true, false, map[int]float64{0: 50, 1: 99}, 1, 0)

	r := Aggregate(f.in, computedAt)

	assert.Equal(t, 1, r.BallotsCounted)
	assert.InDelta(t, 74, *teamResult(t, r, f.team(0)).TotalSpeakerPoints, 0.0001)
	assert.Equal(t, 1, *teamResult(t, r, f.team(0)).FinalRank)
}

func TestAggregateWithoutBallots(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)

	r := Aggregate(f.in, computedAt)

	assert.Equal(t, models.TabulationUnresolved, r.Status)
	assert.Len(t, r.TiedTeams, 2)
	for _, sp := range r.Speakers {
		assert.Nil(t, sp.AverageScore)
		assert.Zero(t, sp.BallotCount)
	}
}

func TestAggregateFourTeamSlotBySlot(t *testing.T) {
	f := newFixture(models.TeamFormatFourTeam)
	scores := map[int]float64{0: 70, 1: 71, 2: 72, 3: 73}
	f.ballot(true, true, scores, 2, 0, 3, 1)
	f.ballot(true, true, scores, 2, 3, 0, 1)
	f.ballot(true, true, scores, 0, 2, 3, 1)

	r := Aggregate(f.in, computedAt)

	require.Equal(t, models.TabulationResolved, r.Status)
	assert.Equal(t, 1, *teamResult(t, r, f.team(2)).FinalRank)
	// slot 2: team 0 and team 3 have one vote each, team 3 has more points.
	assert.Equal(t, 2, *teamResult(t, r, f.team(3)).FinalRank)
	assert.Equal(t, 3, *teamResult(t, r, f.team(0)).FinalRank)
	assert.Equal(t, 4, *teamResult(t, r, f.team(1)).FinalRank)
}

func TestAggregateSpeakerMeansRounded(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)
	f.ballot(true, true, map[int]float64{0: 70, 1: 70}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 70.5, 1: 70}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 71, 1: 70}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 70, 1: 70}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 70, 1: 70}, 0, 1)
	f.ballot(true, true, map[int]float64{0: 70, 1: 70}, 0, 1)

	r := Aggregate(f.in, computedAt)

	for _, sp := range r.Speakers {
		if sp.TeamID != f.team(0) {
			continue
		}
		require.NotNil(t, sp.AverageScore)
		assert.Equal(t, 70.25, *sp.AverageScore)
		assert.Equal(t, 6, sp.BallotCount)
	}
}

func TestAggregateTeamPointsRoundOnce(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)
	pm := f.speakers[f.team(0)]
	dpm := f.addSpeaker(0, models.TwoTeamSpeaker(models.TwoDeputyPrimeMinister))
	lo := f.speakers[f.team(1)]
	for _, s := range []float64{70, 70, 71} {
		f.scored(true, true, map[id.AllocationID]float64{pm: s, dpm: s, lo: 60}, 0, 1)
	}

	r := Aggregate(f.in, computedAt)

	gov := teamResult(t, r, f.team(0))
	require.NotNil(t, gov.TotalSpeakerPoints)
	assert.Equal(t, 140.67, *gov.TotalSpeakerPoints)
	for _, sp := range r.Speakers {
		if sp.TeamID == f.team(0) {
			assert.Equal(t, 70.33, *sp.AverageScore)
		}
	}
}

func TestAggregateTieBreakUsesExactPoints(t *testing.T) {
	f := newFixture(models.TeamFormatTwoTeam)
	pm := f.speakers[f.team(0)]
	dpm := f.addSpeaker(0, models.TwoTeamSpeaker(models.TwoDeputyPrimeMinister))
	lo := f.speakers[f.team(1)]
	dlo := f.addSpeaker(1, models.TwoTeamSpeaker(models.TwoDeputyLeaderOfOpposition))
	// government speakers average 70.333 each, opposition 70.33 each.
	for i, s := range []float64{70, 70, 70, 70, 70, 72} {
		order := []int{0, 1}
		if i%2 == 1 {
			order = []int{1, 0}
		}
		f.scored(true, true, map[id.AllocationID]float64{pm: s, dpm: s, lo: 70.33, dlo: 70.33}, order...)
	}

	r := Aggregate(f.in, computedAt)

	require.Equal(t, models.TabulationResolved, r.Status, "split votes are separated by exact points")
	gov := teamResult(t, r, f.team(0))
	opp := teamResult(t, r, f.team(1))
	assert.Equal(t, 1, *gov.FinalRank)
	assert.Equal(t, 2, *opp.FinalRank)
	assert.Equal(t, 140.67, *gov.TotalSpeakerPoints)
	assert.Equal(t, 140.66, *opp.TotalSpeakerPoints)
}
