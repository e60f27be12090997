package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

var now = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestMatchStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to MatchStatus
		ok       bool
	}{
		{MatchDraft, MatchPublished, true},
		{MatchPublished, MatchInProgress, true},
		{MatchInProgress, MatchCompleted, true},
		{MatchDraft, MatchInProgress, false},
		{MatchDraft, MatchCompleted, false},
		{MatchPublished, MatchDraft, false},
		{MatchDraft, MatchCancelled, true},
		{MatchPublished, MatchCancelled, true},
		{MatchInProgress, MatchCancelled, true},
		{MatchCompleted, MatchCancelled, false},
		{MatchCancelled, MatchDraft, false},
		{MatchCompleted, MatchInProgress, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := &Match{Status: tt.from}
			err := m.Transition(tt.to, now)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, m.Status)
				assert.Equal(t, now, m.UpdatedAt)
				return
			}
			assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err))
			assert.Equal(t, tt.from, m.Status, "status unchanged on failure")
		})
	}

	t.Run("unknown target is a validation error", func(t *testing.T) {
		m := &Match{Status: MatchDraft}
		assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(m.Transition("archived", now)))
	})
}

func TestSetRelease(t *testing.T) {
	t.Run("requires a completed match", func(t *testing.T) {
		m := &Match{Status: MatchInProgress}
		_, err := m.SetRelease(GateScores, true, now)
		assert.Equal(t, dErrors.CodeInvalidState, dErrors.CodeOf(err))
	})

	t.Run("gates are independent and one-way", func(t *testing.T) {
		m := &Match{Status: MatchCompleted}
		changed, err := m.SetRelease(GateScores, true, now)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, m.ScoresReleased)
		assert.False(t, m.RankingsReleased)

		changed, err = m.SetRelease(GateScores, true, now)
		require.NoError(t, err)
		assert.False(t, changed, "re-releasing is a no-op")

		_, err = m.SetRelease(GateScores, false, now)
		assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err))
		assert.True(t, m.ScoresReleased)

		changed, err = m.SetRelease(GateRankings, false, now)
		require.NoError(t, err)
		assert.False(t, changed, "withdrawing an unreleased gate is a no-op")
	})
}

func TestApplyDetails(t *testing.T) {
	m := NewMatch(id.NewMatchID(), id.NewSeriesID(), now)
	room := "  Room 101 "
	require.NoError(t, m.ApplyDetails(MatchDetails{Room: &room}, now))
	assert.Equal(t, "Room 101", m.Room)

	long := strings.Repeat("m", MaxDescriptionLength+1)
	assert.Equal(t, dErrors.CodeInvariantViolation, dErrors.CodeOf(m.ApplyDetails(MatchDetails{Motion: &long}, now)))
}

func TestTeamPosition(t *testing.T) {
	t.Run("columns must name exactly one vocabulary", func(t *testing.T) {
		_, err := NewTeamPosition("government", "opening_government")
		assert.Error(t, err)
		_, err = NewTeamPosition("", "")
		assert.Error(t, err)
		_, err = NewTeamPosition("opening_government", "")
		assert.Error(t, err, "four-team value in the two-team column")

		p, err := NewTeamPosition("", "closing_opposition")
		require.NoError(t, err)
		assert.Equal(t, TeamFormatFourTeam, p.Format())
		four, ok := p.FourTeam()
		assert.True(t, ok)
		assert.Equal(t, ClosingOpposition, four)
	})

	t.Run("text round trip infers the format", func(t *testing.T) {
		var p TeamPosition
		require.NoError(t, json.Unmarshal([]byte(`"opposition"`), &p))
		assert.Equal(t, TwoTeamSlot(Opposition), p)
		raw, err := json.Marshal(p)
		require.NoError(t, err)
		assert.JSONEq(t, `"opposition"`, string(raw))
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		assert.False(t, TeamPosition{}.IsValid())
	})
}

func TestSpeakerRole(t *testing.T) {
	t.Run("shared names stay distinct by format", func(t *testing.T) {
		two := TwoTeamSpeaker(TwoPrimeMinister)
		four := FourTeamSpeaker(FourPrimeMinister)
		assert.Equal(t, two.String(), four.String())
		assert.NotEqual(t, two, four)
		assert.Equal(t, TeamFormatTwoTeam, two.Format())
		assert.Equal(t, TeamFormatFourTeam, four.Format())
	})

	t.Run("json carries the format tag", func(t *testing.T) {
		raw, err := json.Marshal(FourTeamSpeaker(FourGovernmentWhip))
		require.NoError(t, err)
		assert.JSONEq(t, `{"four_team_speaker_role":"government_whip"}`, string(raw))

		var r SpeakerRole
		require.NoError(t, json.Unmarshal([]byte(`{"two_team_speaker_role":"opposition_reply"}`), &r))
		assert.Equal(t, TwoTeamSpeaker(TwoOppositionReply), r)

		err = json.Unmarshal([]byte(`{"two_team_speaker_role":"prime_minister","four_team_speaker_role":"prime_minister"}`), &r)
		assert.Error(t, err)

		require.NoError(t, json.Unmarshal([]byte(`null`), &r))
		assert.True(t, r.IsZero())
	})

	t.Run("bench follows the role", func(t *testing.T) {
		assert.Equal(t, FourTeamSlot(ClosingGovernment), FourTeamSpeaker(FourMemberOfGovernment).Bench())
		assert.Equal(t, TwoTeamSlot(Opposition), TwoTeamSpeaker(TwoOppositionWhip).Bench())
		assert.True(t, TwoGovernmentReply.IsReply())
	})
}

func TestParticipant(t *testing.T) {
	userID := id.NewUserID()
	nilUser := id.UserID{}

	tests := []struct {
		name    string
		userID  *id.UserID
		guest   string
		wantErr bool
		guestOK bool
	}{
		{name: "user", userID: &userID},
		{name: "guest", guest: "  Ada  ", guestOK: true},
		{name: "both", userID: &userID, guest: "Ada", wantErr: true},
		{name: "neither", wantErr: true},
		{name: "nil user id", userID: &nilUser, wantErr: true},
		{name: "blank guest", guest: "   ", wantErr: true},
		{name: "guest too long", guest: strings.Repeat("g", MaxGuestNameLength+1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParticipant(tt.userID, tt.guest)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.guestOK, p.IsGuest())
		})
	}

	t.Run("guest key ignores case", func(t *testing.T) {
		a, err := NewParticipant(nil, "Ada Guest")
		require.NoError(t, err)
		b, err := NewParticipant(nil, "ADA GUEST")
		require.NoError(t, err)
		assert.Equal(t, a.Key(), b.Key())
		assert.NotEqual(t, a.Key(), UserParticipant(userID).Key())
	})
}

func TestPlacementShape(t *testing.T) {
	team := id.NewTeamID()
	tests := []struct {
		name   string
		p      Placement
		format TeamFormat
		ok     bool
	}{
		{"speaker", Placement{Role: RoleSpeaker, TeamID: &team, SpeakerRole: TwoTeamSpeaker(TwoPrimeMinister)}, TeamFormatTwoTeam, true},
		{"speaker without team", Placement{Role: RoleSpeaker, SpeakerRole: TwoTeamSpeaker(TwoPrimeMinister)}, TeamFormatTwoTeam, false},
		{"speaker without role", Placement{Role: RoleSpeaker, TeamID: &team}, TeamFormatTwoTeam, false},
		{"speaker from other format", Placement{Role: RoleSpeaker, TeamID: &team, SpeakerRole: FourTeamSpeaker(FourPrimeMinister)}, TeamFormatTwoTeam, false},
		{"speaker chair", Placement{Role: RoleSpeaker, TeamID: &team, SpeakerRole: TwoTeamSpeaker(TwoPrimeMinister), IsChair: true}, TeamFormatTwoTeam, false},
		{"voting chair", Placement{Role: RoleVotingAdjudicator, IsChair: true}, TeamFormatFourTeam, true},
		{"trainee chair", Placement{Role: RoleNonVotingAdjudicator, IsChair: true}, TeamFormatFourTeam, false},
		{"adjudicator with team", Placement{Role: RoleVotingAdjudicator, TeamID: &team}, TeamFormatFourTeam, false},
		{"resource with speaker role", Placement{Role: RoleResource, SpeakerRole: FourTeamSpeaker(FourOppositionWhip)}, TeamFormatFourTeam, false},
		{"unknown role", Placement{Role: "timekeeper"}, TeamFormatFourTeam, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.ValidateShape(tt.format)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, dErrors.CodeInvariantViolation, dErrors.CodeOf(err))
			}
		})
	}
}

func TestNewHistory(t *testing.T) {
	team := id.NewTeamID()
	a, err := NewAllocation(id.NewAllocationID(), id.NewMatchID(), UserParticipant(id.NewUserID()),
		Placement{Role: RoleSpeaker, TeamID: &team, SpeakerRole: TwoTeamSpeaker(TwoPrimeMinister)},
		TeamFormatTwoTeam, id.NewUserID(), now)
	require.NoError(t, err)

	prev := a.Placement()
	next := Placement{Role: RoleResource}
	h := NewHistory(ActionUpdated, a, &prev, &next, id.NewUserID(), "moved", now)
	require.NotNil(t, h.PreviousRole)
	require.NotNil(t, h.NewRole)
	assert.Equal(t, RoleSpeaker, *h.PreviousRole)
	assert.Equal(t, RoleResource, *h.NewRole)
	assert.Equal(t, team, *h.PreviousTeamID)
	assert.Nil(t, h.NewTeamID)
	assert.Equal(t, a.ID, *h.AllocationID)

	created := NewHistory(ActionCreated, a, nil, &prev, id.NewUserID(), "", now)
	assert.Nil(t, created.PreviousRole)
}

func TestBallot(t *testing.T) {
	voting, err := NewAllocation(id.NewAllocationID(), id.NewMatchID(), UserParticipant(id.NewUserID()),
		Placement{Role: RoleVotingAdjudicator}, TeamFormatTwoTeam, id.NewUserID(), now)
	require.NoError(t, err)

	t.Run("voting flag comes from the allocation", func(t *testing.T) {
		b, err := NewBallot(id.NewBallotID(), voting, now)
		require.NoError(t, err)
		assert.True(t, b.IsVoting)

		trainee := *voting
		trainee.Role = RoleNonVotingAdjudicator
		b, err = NewBallot(id.NewBallotID(), &trainee, now)
		require.NoError(t, err)
		assert.False(t, b.IsVoting)
		assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(b.EnsureVoting()))
	})

	t.Run("speakers and guests hold no ballot", func(t *testing.T) {
		guest, err := NewParticipant(nil, "Guest Judge")
		require.NoError(t, err)
		g := *voting
		g.Participant = guest
		_, err = NewBallot(id.NewBallotID(), &g, now)
		assert.Error(t, err)

		s := *voting
		s.Role = RoleResource
		_, err = NewBallot(id.NewBallotID(), &s, now)
		assert.Error(t, err)
	})

	t.Run("finalize happens once", func(t *testing.T) {
		b, err := NewBallot(id.NewBallotID(), voting, now)
		require.NoError(t, err)
		require.NoError(t, b.Finalize(now))
		assert.True(t, b.IsSubmitted)
		require.NotNil(t, b.SubmittedAt)

		assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(b.Finalize(now)))
		assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(b.SetNotes("late", now)))
	})
}

func TestSpeakerScoreRange(t *testing.T) {
	for _, score := range []float64{0, 75.5, 100} {
		_, err := NewSpeakerScore(id.NewBallotID(), id.NewAllocationID(), score, "", now)
		assert.NoError(t, err, "score %v", score)
	}
	for _, score := range []float64{-0.5, 100.01, math.NaN()} {
		_, err := NewSpeakerScore(id.NewBallotID(), id.NewAllocationID(), score, "", now)
		assert.Equal(t, dErrors.CodeOutOfRange, dErrors.CodeOf(err), "score %v", score)
	}
}

func TestTeamRanking(t *testing.T) {
	t.Run("rank bounded by team count", func(t *testing.T) {
		_, err := NewTeamRanking(id.NewBallotID(), id.NewTeamID(), TeamFormatTwoTeam, 3, nil, now)
		assert.Equal(t, dErrors.CodeOutOfRange, dErrors.CodeOf(err))
		_, err = NewTeamRanking(id.NewBallotID(), id.NewTeamID(), TeamFormatFourTeam, 4, nil, now)
		assert.NoError(t, err)
		_, err = NewTeamRanking(id.NewBallotID(), id.NewTeamID(), TeamFormatFourTeam, 0, nil, now)
		assert.Equal(t, dErrors.CodeOutOfRange, dErrors.CodeOf(err))
	})

	t.Run("two-team winner defaults from rank", func(t *testing.T) {
		r, err := NewTeamRanking(id.NewBallotID(), id.NewTeamID(), TeamFormatTwoTeam, 1, nil, now)
		require.NoError(t, err)
		require.NotNil(t, r.IsWinner)
		assert.True(t, *r.IsWinner)

		r, err = NewTeamRanking(id.NewBallotID(), id.NewTeamID(), TeamFormatTwoTeam, 2, nil, now)
		require.NoError(t, err)
		assert.False(t, *r.IsWinner)
	})

	t.Run("four-team carries no winner flag", func(t *testing.T) {
		yes := true
		r, err := NewTeamRanking(id.NewBallotID(), id.NewTeamID(), TeamFormatFourTeam, 1, &yes, now)
		require.NoError(t, err)
		assert.Nil(t, r.IsWinner)
	})
}

func TestRegistryValidation(t *testing.T) {
	_, err := NewEvent(id.NewEventID(), "   ", EventTournament, now, id.NewUserID(), now)
	assert.Error(t, err)
	_, err = NewEvent(id.NewEventID(), "Open", "gala", now, id.NewUserID(), now)
	assert.Error(t, err)

	zero := 0
	_, err = NewMatchSeries(id.NewSeriesID(), id.NewEventID(), "Round", TeamFormatTwoTeam, &zero, id.NewUserID(), now)
	assert.Error(t, err)
	_, err = NewMatchSeries(id.NewSeriesID(), id.NewEventID(), "Round", "three_team", nil, id.NewUserID(), now)
	assert.Error(t, err)
}

func TestMissingPositionsAndRedaction(t *testing.T) {
	matchID := id.NewMatchID()
	teams := DefaultTeams(matchID, TeamFormatFourTeam, now)
	require.Len(t, teams, 4)
	assert.Empty(t, MissingPositions(TeamFormatFourTeam, teams))
	assert.Equal(t, []string{"closing_government", "closing_opposition"}, MissingPositions(TeamFormatFourTeam, teams[:2]))

	rank, pts := 1, 150.0
	teams[0].FinalRank, teams[0].TotalSpeakerPoints = &rank, &pts
	m := &Match{Status: MatchCompleted, ScoresReleased: true}
	m.RedactResults(teams, false)
	assert.Nil(t, teams[0].FinalRank)
	assert.NotNil(t, teams[0].TotalSpeakerPoints)
}
