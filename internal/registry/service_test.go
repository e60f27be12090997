package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabrela/internal/allocation"
	"tabrela/internal/enginetest"
	"tabrela/internal/models"
	"tabrela/internal/registry"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/testutil"
)

func intPtr(n int) *int { return &n }

func TestEvents(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)

	t.Run("admin only", func(t *testing.T) {
		_, err := e.Registry.CreateEvent(testutil.UserContext(id.NewUserID()), registry.CreateEventRequest{
			Title: "Open", Type: models.EventWeeklyMatch, Date: testutil.FixedTime,
		})
		assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	})

	t.Run("title is required", func(t *testing.T) {
		_, err := e.Registry.CreateEvent(e.Admin, registry.CreateEventRequest{
			Title: "   ", Type: models.EventWeeklyMatch, Date: testutil.FixedTime,
		})
		assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	t.Run("create and update", func(t *testing.T) {
		ev, err := e.Registry.CreateEvent(e.Admin, registry.CreateEventRequest{
			Title: " Spring Open ", Type: models.EventWeeklyMatch, Date: testutil.FixedTime, Location: " Hall B ",
		})
		require.NoError(t, err)
		assert.Equal(t, "Spring Open", ev.Title)
		assert.Equal(t, "Hall B", ev.Location)
		assert.Equal(t, e.AdminID, ev.CreatedBy)

		title := "Spring Open Finals"
		updated, err := e.Registry.UpdateEvent(e.Admin, ev.ID, registry.UpdateEventRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, title, updated.Title)
		assert.Equal(t, "Hall B", updated.Location, "absent fields are left alone")

		empty := ""
		_, err = e.Registry.UpdateEvent(e.Admin, ev.ID, registry.UpdateEventRequest{Title: &empty})
		assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
		got, err := e.Registry.GetEvent(e.Admin, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, title, got.Title, "failed update leaves the event unchanged")
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := e.Registry.GetEvent(e.Admin, id.NewEventID())
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
		err = e.Registry.DeleteEvent(e.Admin, id.NewEventID())
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func TestLockedEventRefusesSeriesChanges(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)

	ev, err := e.Registry.SetLocked(e.Admin, r.Event.ID, true)
	require.NoError(t, err)
	assert.True(t, ev.IsLocked)
	ev, err = e.Registry.SetLocked(e.Admin, r.Event.ID, true)
	require.NoError(t, err, "locking twice is a no-op")
	assert.True(t, ev.IsLocked)

	_, err = e.Registry.CreateSeries(e.Admin, r.Event.ID, registry.CreateSeriesRequest{Name: "Round 2", TeamFormat: models.TeamFormatTwoTeam})
	assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err))
	err = e.Registry.DeleteSeries(e.Admin, r.Series.ID)
	assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err))

	_, err = e.Registry.SetLocked(e.Admin, r.Event.ID, false)
	require.NoError(t, err)
	_, err = e.Registry.CreateSeries(e.Admin, r.Event.ID, registry.CreateSeriesRequest{Name: "Round 2", TeamFormat: models.TeamFormatTwoTeam})
	assert.NoError(t, err)
}

func TestSeriesValidation(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)

	tests := []struct {
		name string
		req  registry.CreateSeriesRequest
		code dErrors.Code
	}{
		{"missing name", registry.CreateSeriesRequest{TeamFormat: models.TeamFormatTwoTeam}, dErrors.CodeValidation},
		{"bad format", registry.CreateSeriesRequest{Name: "R", TeamFormat: "three_team"}, dErrors.CodeValidation},
		{"round zero", registry.CreateSeriesRequest{Name: "R", TeamFormat: models.TeamFormatTwoTeam, RoundNumber: intPtr(0)}, dErrors.CodeValidation},
		{"unknown ruleset", registry.CreateSeriesRequest{Name: "R", TeamFormat: models.TeamFormatTwoTeam, Ruleset: "lenient"}, dErrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Registry.CreateSeries(e.Admin, r.Event.ID, tt.req)
			assert.Equal(t, tt.code, dErrors.CodeOf(err))
		})
	}

	t.Run("known ruleset and round number", func(t *testing.T) {
		sr, err := e.Registry.CreateSeries(e.Admin, r.Event.ID, registry.CreateSeriesRequest{
			Name: "Quarterfinal", TeamFormat: models.TeamFormatFourTeam, RoundNumber: intPtr(4),
			IsBreakRound: true, Ruleset: allocation.RulesetFriendly,
		})
		require.NoError(t, err)
		assert.Equal(t, allocation.RulesetFriendly, sr.Ruleset)
		require.NotNil(t, sr.RoundNumber)
		assert.Equal(t, 4, *sr.RoundNumber)

		cleared, err := e.Registry.UpdateSeries(e.Admin, sr.ID, registry.UpdateSeriesRequest{ClearRoundNumber: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.RoundNumber)
	})

	t.Run("series of an unknown event", func(t *testing.T) {
		_, err := e.Registry.CreateSeries(e.Admin, id.NewEventID(), registry.CreateSeriesRequest{Name: "R", TeamFormat: models.TeamFormatTwoTeam})
		assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func TestFormatChangeReseedsTeams(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)

	four := models.TeamFormatFourTeam
	_, err := e.Registry.UpdateSeries(e.Admin, r.Series.ID, registry.UpdateSeriesRequest{TeamFormat: &four})
	require.NoError(t, err)

	view, err := e.Matches.GetMatch(e.Admin, r.Match.ID)
	require.NoError(t, err)
	require.Len(t, view.Teams, 4)
	r.Teams = view.Teams

	og := r.Team(t, models.FourTeamSlot(models.OpeningGovernment))
	e.Speaker(t, r, id.NewUserID(), og, models.FourTeamSpeaker(models.FourPrimeMinister))

	two := models.TeamFormatTwoTeam
	_, err = e.Registry.UpdateSeries(e.Admin, r.Series.ID, registry.UpdateSeriesRequest{TeamFormat: &two})
	assert.Equal(t, dErrors.CodeConflictingState, dErrors.CodeOf(err))

	name := "Round 1 (rescheduled)"
	sr, err := e.Registry.UpdateSeries(e.Admin, r.Series.ID, registry.UpdateSeriesRequest{Name: &name})
	require.NoError(t, err, "other fields stay editable")
	assert.Equal(t, name, sr.Name)
	assert.Equal(t, models.TeamFormatFourTeam, sr.TeamFormat)
}

func TestDeleteEventRemovesEverythingBelow(t *testing.T) {
	e := enginetest.New(t, allocation.RulesetStrict)
	r := e.NewRound(t, models.TeamFormatTwoTeam)
	e.Adjudicator(t, r, id.NewUserID(), true, true)

	require.NoError(t, e.Registry.DeleteEvent(e.Admin, r.Event.ID))

	_, err := e.Registry.GetSeries(e.Admin, r.Series.ID)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	_, err = e.Matches.GetMatch(e.Admin, r.Match.ID)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
	events, err := e.Registry.ListEvents(e.Admin)
	require.NoError(t, err)
	assert.Empty(t, events)
}
