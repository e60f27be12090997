// Package enginetest wires every service over one in-memory store for
// scenario tests. Only external test packages may import it.
package enginetest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tabrela/internal/allocation"
	"tabrela/internal/availability"
	"tabrela/internal/ballot"
	"tabrela/internal/match"
	"tabrela/internal/merit"
	"tabrela/internal/models"
	"tabrela/internal/registry"
	"tabrela/internal/store/memory"
	"tabrela/internal/tabulation"
	id "tabrela/pkg/domain"
	"tabrela/pkg/testutil"
)

// Engine holds the wired services and an admin caller.
type Engine struct {
	Store        *memory.Store
	Availability *availability.MemoryPool
	Catalog      *allocation.Catalog

	Registry    *registry.Service
	Matches     *match.Service
	Allocations *allocation.Service
	Ballots     *ballot.Service
	Tabulation  *tabulation.Service
	Merit       *merit.Initializer

	AdminID id.UserID
	Admin   context.Context
}

// New builds an engine using the given default ruleset.
func New(t *testing.T, defaultRuleset string) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New(memory.WithTxTimeout(2 * time.Second))
	pool := availability.NewMemoryPool()
	catalog, err := allocation.NewCatalog(defaultRuleset, nil)
	require.NoError(t, err)

	ballots := ballot.New(store, store, ballot.WithLogger(logger))
	tab := tabulation.New(store, store, tabulation.WithLogger(logger))
	adminID := id.NewUserID()
	return &Engine{
		Store:        store,
		Availability: pool,
		Catalog:      catalog,
		Registry:     registry.New(store, store, registry.WithLogger(logger), registry.WithRulesets(catalog)),
		Matches:      match.New(store, store, tab, match.WithLogger(logger)),
		Allocations:  allocation.New(store, store, catalog, ballots, allocation.WithLogger(logger), allocation.WithAvailability(pool)),
		Ballots:      ballots,
		Tabulation:   tab,
		Merit:        merit.NewInitializer(store, logger),
		AdminID:      adminID,
		Admin:        testutil.AdminContext(adminID),
	}
}

// Round is one event with one series and one draft match.
type Round struct {
	Event  *models.Event
	Series *models.MatchSeries
	Match  *models.Match
	Teams  []*models.MatchTeam
}

// Team returns the team occupying position.
func (r *Round) Team(t *testing.T, position models.TeamPosition) *models.MatchTeam {
	t.Helper()
	for _, team := range r.Teams {
		if team.Position == position {
			return team
		}
	}
	t.Fatalf("no team at %s", position)
	return nil
}

// NewRound creates an event, a series in format and a match with its
// default teams.
func (e *Engine) NewRound(t *testing.T, format models.TeamFormat, opts ...func(*registry.CreateSeriesRequest)) *Round {
	t.Helper()
	ev, err := e.Registry.CreateEvent(e.Admin, registry.CreateEventRequest{
		Title: "Club Night",
		Type:  models.EventWeeklyMatch,
		Date:  testutil.FixedTime,
	})
	require.NoError(t, err)

	req := registry.CreateSeriesRequest{Name: "Round 1", TeamFormat: format}
	for _, opt := range opts {
		opt(&req)
	}
	sr, err := e.Registry.CreateSeries(e.Admin, ev.ID, req)
	require.NoError(t, err)

	view, err := e.Matches.CreateMatch(e.Admin, sr.ID, models.MatchDetails{})
	require.NoError(t, err)
	return &Round{Event: ev, Series: sr, Match: view.Match, Teams: view.Teams}
}

// Speaker allocates a registered user as a speaker.
func (e *Engine) Speaker(t *testing.T, r *Round, userID id.UserID, team *models.MatchTeam, role models.SpeakerRole) *models.Allocation {
	t.Helper()
	teamID := team.ID
	a, err := e.Allocations.Allocate(e.Admin, r.Match.ID, allocation.AllocateRequest{
		UserID:      &userID,
		Role:        models.RoleSpeaker,
		TeamID:      &teamID,
		SpeakerRole: role,
	})
	require.NoError(t, err)
	return a
}

// Adjudicator allocates a registered user as a voting or trainee adjudicator.
func (e *Engine) Adjudicator(t *testing.T, r *Round, userID id.UserID, voting, chair bool) *models.Allocation {
	t.Helper()
	role := models.RoleNonVotingAdjudicator
	if voting {
		role = models.RoleVotingAdjudicator
	}
	a, err := e.Allocations.Allocate(e.Admin, r.Match.ID, allocation.AllocateRequest{
		UserID:  &userID,
		Role:    role,
		IsChair: chair,
	})
	require.NoError(t, err)
	return a
}

// Advance moves the match through each target status in order.
func (e *Engine) Advance(t *testing.T, r *Round, targets ...models.MatchStatus) {
	t.Helper()
	for _, target := range targets {
		m, err := e.Matches.Transition(e.Admin, r.Match.ID, target)
		require.NoError(t, err, "transition to %s", target)
		r.Match = m
	}
}

// BallotOf returns the ballot held by an adjudicator.
func (e *Engine) BallotOf(t *testing.T, r *Round, userID id.UserID) *models.Ballot {
	t.Helper()
	sheet, err := e.Ballots.Mine(testutil.UserContext(userID), r.Match.ID)
	require.NoError(t, err)
	return sheet.Ballot
}
