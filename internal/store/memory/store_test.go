package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/sentinel"
)

var errRollback = errors.New("rollback")

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time

	event  *models.Event
	series *models.MatchSeries
	match  *models.Match
	gov    *models.MatchTeam
	opp    *models.MatchTeam
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
	s.now = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	admin := id.NewUserID()

	var err error
	s.event, err = models.NewEvent(id.NewEventID(), "Spring Open", models.EventTournament, s.now, admin, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateEvent(s.ctx, s.event))

	s.series, err = models.NewMatchSeries(id.NewSeriesID(), s.event.ID, "Round 1", models.TeamFormatTwoTeam, nil, admin, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateSeries(s.ctx, s.series))

	s.match = models.NewMatch(id.NewMatchID(), s.series.ID, s.now)
	s.Require().NoError(s.store.CreateMatch(s.ctx, s.match))

	s.gov, err = models.NewMatchTeam(id.NewTeamID(), s.match.ID, models.TeamFormatTwoTeam, models.TwoTeamSlot(models.Government), "", "", s.now)
	s.Require().NoError(err)
	s.opp, err = models.NewMatchTeam(id.NewTeamID(), s.match.ID, models.TeamFormatTwoTeam, models.TwoTeamSlot(models.Opposition), "", "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateTeam(s.ctx, s.gov))
	s.Require().NoError(s.store.CreateTeam(s.ctx, s.opp))
}

func (s *StoreSuite) speaker(p models.Participant, role models.TwoTeamSpeakerRole, team id.TeamID) *models.Allocation {
	a, err := models.NewAllocation(id.NewAllocationID(), s.match.ID, p, models.Placement{
		Role:        models.RoleSpeaker,
		TeamID:      &team,
		SpeakerRole: models.TwoTeamSpeaker(role),
	}, models.TeamFormatTwoTeam, id.NewUserID(), s.now)
	s.Require().NoError(err)
	return a
}

func (s *StoreSuite) adjudicator(userID id.UserID) *models.Allocation {
	a, err := models.NewAllocation(id.NewAllocationID(), s.match.ID, models.UserParticipant(userID), models.Placement{
		Role:    models.RoleVotingAdjudicator,
		IsChair: true,
	}, models.TeamFormatTwoTeam, id.NewUserID(), s.now)
	s.Require().NoError(err)
	return a
}

func (s *StoreSuite) guest(name string) models.Participant {
	p, err := models.NewParticipant(nil, name)
	s.Require().NoError(err)
	return p
}

func (s *StoreSuite) TestTransactions() {
	s.Run("failed match transaction leaves nothing behind", func() {
		a := s.speaker(s.guest("Rollback"), models.TwoPrimeMinister, s.gov.ID)
		boom := errors.New("boom")

		err := s.store.RunInMatchTx(s.ctx, s.match.ID, func(ctx context.Context) error {
			s.Require().NoError(s.store.CreateAllocation(ctx, a))
			s.Require().NoError(s.store.AppendHistory(ctx, models.NewHistory(models.ActionCreated, a, nil, nil, id.NewUserID(), "", s.now)))
			s.Require().NoError(s.store.AppendOutbox(ctx, models.OutboundEvent{ID: "evt-1", Kind: models.KindAllocationChanged, MatchID: s.match.ID}))
			m, err := s.store.FindMatch(ctx, s.match.ID)
			s.Require().NoError(err)
			m.Motion = "changed"
			s.Require().NoError(s.store.UpdateMatch(ctx, m))
			return boom
		})
		s.ErrorIs(err, boom)

		_, err = s.store.FindAllocation(s.ctx, a.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		history, total, err := s.store.ListHistory(s.ctx, s.match.ID, 10, 0)
		s.Require().NoError(err)
		s.Zero(total)
		s.Empty(history)
		pending, err := s.store.PendingOutbox(s.ctx, 0)
		s.Require().NoError(err)
		s.Empty(pending)
		m, err := s.store.FindMatch(s.ctx, s.match.ID)
		s.Require().NoError(err)
		s.Empty(m.Motion)
	})

	s.Run("successful transaction commits", func() {
		a := s.speaker(s.guest("Commit"), models.TwoPrimeMinister, s.gov.ID)
		err := s.store.RunInMatchTx(s.ctx, s.match.ID, func(ctx context.Context) error {
			return s.store.CreateAllocation(ctx, a)
		})
		s.Require().NoError(err)
		_, err = s.store.FindAllocation(s.ctx, a.ID)
		s.NoError(err)
	})

	s.Run("nested transaction joins the outer one", func() {
		a := s.speaker(s.guest("Nested"), models.TwoOppositionWhip, s.opp.ID)
		err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
			return s.store.RunInMatchTx(ctx, s.match.ID, func(ctx context.Context) error {
				if err := s.store.CreateAllocation(ctx, a); err != nil {
					return err
				}
				return errRollback
			})
		})
		s.ErrorIs(err, errRollback)
		_, err = s.store.FindAllocation(s.ctx, a.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("match transaction on unknown match is not found", func() {
		called := false
		err := s.store.RunInMatchTx(s.ctx, id.NewMatchID(), func(context.Context) error {
			called = true
			return nil
		})
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.False(called)
	})

	s.Run("cancelled context is reported as a timeout", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		err := s.store.RunInTx(ctx, func(context.Context) error { return nil })
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func (s *StoreSuite) TestAllocationUniqueness() {
	s.Run("same participant, role and speaker role conflicts", func() {
		userID := id.NewUserID()
		first := s.speaker(models.UserParticipant(userID), models.TwoPrimeMinister, s.gov.ID)
		s.Require().NoError(s.store.CreateAllocation(s.ctx, first))

		dup := s.speaker(models.UserParticipant(userID), models.TwoPrimeMinister, s.gov.ID)
		s.ErrorIs(s.store.CreateAllocation(s.ctx, dup), sentinel.ErrConflict)

		other := s.speaker(models.UserParticipant(userID), models.TwoGovernmentReply, s.gov.ID)
		s.NoError(s.store.CreateAllocation(s.ctx, other))
	})

	s.Run("guest names compare case-insensitively", func() {
		first := s.speaker(s.guest("Ada Guest"), models.TwoLeaderOfOpposition, s.opp.ID)
		s.Require().NoError(s.store.CreateAllocation(s.ctx, first))
		dup := s.speaker(s.guest("ada guest"), models.TwoLeaderOfOpposition, s.opp.ID)
		s.ErrorIs(s.store.CreateAllocation(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("update into an existing key conflicts", func() {
		a := s.speaker(s.guest("Mover"), models.TwoDeputyPrimeMinister, s.gov.ID)
		b := s.speaker(s.guest("Mover"), models.TwoGovernmentWhip, s.gov.ID)
		s.Require().NoError(s.store.CreateAllocation(s.ctx, a))
		s.Require().NoError(s.store.CreateAllocation(s.ctx, b))
		b.SpeakerRole = a.SpeakerRole
		s.ErrorIs(s.store.UpdateAllocation(s.ctx, b), sentinel.ErrConflict)
	})
}

func (s *StoreSuite) TestReturnedValuesAreCopies() {
	a := s.speaker(s.guest("Copy"), models.TwoPrimeMinister, s.gov.ID)
	s.Require().NoError(s.store.CreateAllocation(s.ctx, a))

	found, err := s.store.FindAllocation(s.ctx, a.ID)
	s.Require().NoError(err)
	*found.TeamID = s.opp.ID
	found.IsChair = true

	again, err := s.store.FindAllocation(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(s.gov.ID, *again.TeamID)
	s.False(again.IsChair)
}

func (s *StoreSuite) TestDeleteAllocationCascades() {
	adjID := id.NewUserID()
	adj := s.adjudicator(adjID)
	spk := s.speaker(s.guest("Speaker"), models.TwoPrimeMinister, s.gov.ID)
	s.Require().NoError(s.store.CreateAllocation(s.ctx, adj))
	s.Require().NoError(s.store.CreateAllocation(s.ctx, spk))
	s.Require().NoError(s.store.AppendHistory(s.ctx, models.NewHistory(models.ActionCreated, spk, nil, nil, adjID, "", s.now)))

	b, err := models.NewBallot(id.NewBallotID(), adj, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateBallot(s.ctx, b))
	sc, err := models.NewSpeakerScore(b.ID, spk.ID, 75, "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.UpsertScore(s.ctx, sc))

	s.Require().NoError(s.store.DeleteAllocation(s.ctx, spk.ID))

	scores, err := s.store.ListScores(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Empty(scores)
	history, total, err := s.store.ListHistory(s.ctx, s.match.ID, 0, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Nil(history[0].AllocationID, "history survives with its reference cleared")

	s.Require().NoError(s.store.DeleteAllocation(s.ctx, adj.ID))
	_, err = s.store.FindBallot(s.ctx, b.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestDeleteEventCascades() {
	adj := s.adjudicator(id.NewUserID())
	s.Require().NoError(s.store.CreateAllocation(s.ctx, adj))

	s.Require().NoError(s.store.DeleteEvent(s.ctx, s.event.ID))

	_, err := s.store.FindSeries(s.ctx, s.series.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindMatch(s.ctx, s.match.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindTeam(s.ctx, s.gov.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindAllocation(s.ctx, adj.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestBallotPerAdjudicator() {
	adjID := id.NewUserID()
	adj := s.adjudicator(adjID)
	s.Require().NoError(s.store.CreateAllocation(s.ctx, adj))

	first, err := models.NewBallot(id.NewBallotID(), adj, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateBallot(s.ctx, first))
	second, err := models.NewBallot(id.NewBallotID(), adj, s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateBallot(s.ctx, second), sentinel.ErrConflict)

	found, err := s.store.FindBallotByAdjudicator(s.ctx, s.match.ID, adjID)
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)
}

func (s *StoreSuite) TestHistoryPaging() {
	a := s.speaker(s.guest("Pager"), models.TwoPrimeMinister, s.gov.ID)
	for i := 0; i < 5; i++ {
		h := models.NewHistory(models.ActionUpdated, a, nil, nil, id.NewUserID(), "", s.now.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.AppendHistory(s.ctx, h))
	}

	page, total, err := s.store.ListHistory(s.ctx, s.match.ID, 2, 1)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Require().Len(page, 2)
	s.Equal(s.now.Add(time.Minute), page[0].ChangedAt)

	page, total, err = s.store.ListHistory(s.ctx, s.match.ID, 2, 10)
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Empty(page)
}

func (s *StoreSuite) TestSaveTeamResults() {
	rank, points := 1, 151.5
	err := s.store.SaveTeamResults(s.ctx, s.match.ID, []models.TeamResult{
		{TeamID: s.gov.ID, FinalRank: &rank, TotalSpeakerPoints: &points},
	})
	s.Require().NoError(err)

	gov, err := s.store.FindTeam(s.ctx, s.gov.ID)
	s.Require().NoError(err)
	s.Equal(1, *gov.FinalRank)
	s.InDelta(151.5, *gov.TotalSpeakerPoints, 0.001)

	opp, err := s.store.FindTeam(s.ctx, s.opp.ID)
	s.Require().NoError(err)
	s.Nil(opp.FinalRank)
	s.Nil(opp.TotalSpeakerPoints)
}

func (s *StoreSuite) TestOutboxAndLedger() {
	s.Run("sent events leave the pending list", func() {
		for _, evID := range []string{"a", "b", "c"} {
			s.Require().NoError(s.store.AppendOutbox(s.ctx, models.OutboundEvent{ID: evID, Kind: models.KindMatchStatusChanged}))
		}
		pending, err := s.store.PendingOutbox(s.ctx, 2)
		s.Require().NoError(err)
		s.Require().Len(pending, 2)
		s.Equal("a", pending[0].ID)

		s.Require().NoError(s.store.MarkOutboxSent(s.ctx, []string{"a", "b"}, s.now))
		pending, err = s.store.PendingOutbox(s.ctx, 0)
		s.Require().NoError(err)
		s.Require().Len(pending, 1)
		s.Equal("c", pending[0].ID)
	})

	s.Run("ledger entry is created once", func() {
		userID := id.NewUserID()
		created, err := s.store.CreateLedgerEntry(s.ctx, userID, s.now)
		s.Require().NoError(err)
		s.True(created)
		created, err = s.store.CreateLedgerEntry(s.ctx, userID, s.now)
		s.Require().NoError(err)
		s.False(created)
	})
}
