// Package allocation assigns participants to roles within a match.
//
// Every mutation runs inside the match transaction: the rule checks, chair
// demotion, the row write, the history row, the outbound event and any ballot
// side effect commit together or not at all.
package allocation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tabrela/internal/models"
	"tabrela/internal/notify"
	"tabrela/internal/platform/metrics"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/sentinel"
	"tabrela/pkg/requestcontext"
)

var tracer = otel.Tracer("tabrela/allocation")

type Store interface {
	FindEvent(ctx context.Context, eventID id.EventID) (*models.Event, error)
	FindSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error)
	FindSeriesForMatch(ctx context.Context, matchID id.MatchID) (*models.MatchSeries, error)
	FindMatch(ctx context.Context, matchID id.MatchID) (*models.Match, error)
	ListTeams(ctx context.Context, matchID id.MatchID) ([]*models.MatchTeam, error)

	CreateAllocation(ctx context.Context, a *models.Allocation) error
	UpdateAllocation(ctx context.Context, a *models.Allocation) error
	FindAllocation(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error)
	ListAllocations(ctx context.Context, matchID id.MatchID) ([]*models.Allocation, error)
	ListSeriesAllocations(ctx context.Context, seriesID id.SeriesID) ([]*models.Allocation, error)
	DeleteAllocation(ctx context.Context, allocationID id.AllocationID) error

	AppendHistory(ctx context.Context, h *models.AllocationHistory) error
	ListHistory(ctx context.Context, matchID id.MatchID, limit, offset int) ([]*models.AllocationHistory, int, error)

	AppendOutbox(ctx context.Context, ev models.OutboundEvent) error
}

type TxRunner interface {
	RunInMatchTx(ctx context.Context, matchID id.MatchID, fn func(ctx context.Context) error) error
}

// BallotKeeper keeps ballots in step with adjudicator allocations. Both calls
// run inside the caller's match transaction.
type BallotKeeper interface {
	OpenForAllocationInTx(ctx context.Context, a *models.Allocation) error
	// ReleaseAllocationInTx removes what a departing allocation leaves behind.
	// It fails with ConflictingState when submitted ballot content depends on it.
	ReleaseAllocationInTx(ctx context.Context, a *models.Allocation) error
}

// Availability reports which users marked themselves available for an event.
type Availability interface {
	IsAvailable(ctx context.Context, eventID id.EventID, userID id.UserID) (bool, error)
	Available(ctx context.Context, eventID id.EventID) ([]id.UserID, error)
}

type Service struct {
	store        Store
	tx           TxRunner
	catalog      *Catalog
	ballots      BallotKeeper
	availability Availability
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAvailability(a Availability) Option {
	return func(s *Service) {
		s.availability = a
	}
}

func New(store Store, tx TxRunner, catalog *Catalog, ballots BallotKeeper, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, catalog: catalog, ballots: ballots, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type AllocateRequest struct {
	UserID      *id.UserID
	GuestName   string
	Role        models.AllocationRole
	TeamID      *id.TeamID
	SpeakerRole models.SpeakerRole
	IsChair     bool
	Notes       string
}

func (r AllocateRequest) placement() models.Placement {
	return models.Placement{Role: r.Role, TeamID: r.TeamID, SpeakerRole: r.SpeakerRole, IsChair: r.IsChair}
}

type ReassignRequest struct {
	Role        models.AllocationRole
	TeamID      *id.TeamID
	SpeakerRole models.SpeakerRole
	IsChair     bool
	Notes       string
}

func (r ReassignRequest) placement() models.Placement {
	return models.Placement{Role: r.Role, TeamID: r.TeamID, SpeakerRole: r.SpeakerRole, IsChair: r.IsChair}
}

// matchState is everything a mutation validates against, read inside the
// match transaction.
type matchState struct {
	match       *models.Match
	series      *models.MatchSeries
	teams       []*models.MatchTeam
	allocations []*models.Allocation
}

func (st *matchState) others(exclude ...id.AllocationID) []*models.Allocation {
	out := make([]*models.Allocation, 0, len(st.allocations))
next:
	for _, a := range st.allocations {
		for _, ex := range exclude {
			if a.ID == ex {
				continue next
			}
		}
		out = append(out, a)
	}
	return out
}

// Allocate assigns a participant to a role in a match.
func (s *Service) Allocate(ctx context.Context, matchID id.MatchID, req AllocateRequest) (*models.Allocation, error) {
	ctx, span := tracer.Start(ctx, "allocation.Allocate")
	defer span.End()
	span.SetAttributes(attribute.String("match.id", matchID.String()), attribute.String("allocation.role", string(req.Role)))

	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	participant, err := models.NewParticipant(req.UserID, req.GuestName)
	if err != nil {
		return nil, s.denied(span, asValidation(err))
	}
	checkedIn := s.checkedIn(ctx, matchID, participant)

	var out *models.Allocation
	err = s.tx.RunInMatchTx(ctx, matchID, func(ctx context.Context) error {
		st, err := s.loadState(ctx, matchID)
		if err != nil {
			return err
		}
		actor := requestcontext.UserID(ctx)
		now := requestcontext.Now(ctx)
		a, err := models.NewAllocation(id.NewAllocationID(), matchID, participant, req.placement(), st.series.TeamFormat, actor, now)
		if err != nil {
			return asValidation(err)
		}
		a.WasCheckedIn = checkedIn

		if err := s.catalog.For(st.series).Check(Proposal{Candidate: a, Series: st.series, Teams: st.teams, Existing: st.allocations}); err != nil {
			return err
		}
		if a.IsChair {
			if err := s.demoteChair(ctx, st.others(), a, actor, now); err != nil {
				return err
			}
		}
		if err := s.store.CreateAllocation(ctx, a); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeDuplicateAllocation, "participant already holds this role in the match")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create allocation")
		}
		next := a.Placement()
		if err := s.record(ctx, models.NewHistory(models.ActionCreated, a, nil, &next, actor, req.Notes, now), a); err != nil {
			return err
		}
		if a.Role.IsAdjudicator() && !a.Participant.IsGuest() {
			if err := s.ballots.OpenForAllocationInTx(ctx, a); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, s.denied(span, translate(err, "match"))
	}
	s.metrics.IncrementAllocation(string(models.ActionCreated))
	s.logAudit(ctx, "allocation_created", "match_id", matchID, "allocation_id", out.ID, "role", out.Role)
	return out, nil
}

// Reassign changes the role, team, speaker role or chair flag of an
// allocation. An unchanged placement writes nothing.
func (s *Service) Reassign(ctx context.Context, allocationID id.AllocationID, req ReassignRequest) (*models.Allocation, error) {
	ctx, span := tracer.Start(ctx, "allocation.Reassign")
	defer span.End()
	span.SetAttributes(attribute.String("allocation.id", allocationID.String()))

	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	current, err := s.store.FindAllocation(ctx, allocationID)
	if err != nil {
		return nil, translate(err, "allocation")
	}

	var out *models.Allocation
	changed := false
	err = s.tx.RunInMatchTx(ctx, current.MatchID, func(ctx context.Context) error {
		st, err := s.loadState(ctx, current.MatchID)
		if err != nil {
			return err
		}
		a, err := st.find(allocationID)
		if err != nil {
			return err
		}
		before := *a
		prev := a.Placement()
		next := req.placement()
		out = a
		if samePlacement(prev, next) {
			return nil
		}
		if err := next.ValidateShape(st.series.TeamFormat); err != nil {
			return asValidation(err)
		}

		actor := requestcontext.UserID(ctx)
		now := requestcontext.Now(ctx)
		a.ApplyPlacement(next, now)
		if err := s.catalog.For(st.series).Check(Proposal{Candidate: a, Series: st.series, Teams: st.teams, Existing: st.others(a.ID)}); err != nil {
			return err
		}
		if a.IsChair && !prev.IsChair {
			if err := s.demoteChair(ctx, st.others(a.ID), a, actor, now); err != nil {
				return err
			}
		}
		if err := s.syncBallot(ctx, &before, a); err != nil {
			return err
		}
		if err := s.store.UpdateAllocation(ctx, a); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeDuplicateAllocation, "participant already holds this role in the match")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update allocation")
		}
		if err := s.record(ctx, models.NewHistory(models.ActionUpdated, a, &prev, &next, actor, req.Notes, now), a); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, s.denied(span, translate(err, "allocation"))
	}
	if changed {
		s.metrics.IncrementAllocation(string(models.ActionUpdated))
		s.logAudit(ctx, "allocation_updated", "match_id", out.MatchID, "allocation_id", allocationID, "role", out.Role)
	}
	return out, nil
}

// Deallocate removes an allocation. The history row outlives it with a null
// allocation reference.
func (s *Service) Deallocate(ctx context.Context, allocationID id.AllocationID, notes string) error {
	ctx, span := tracer.Start(ctx, "allocation.Deallocate")
	defer span.End()
	span.SetAttributes(attribute.String("allocation.id", allocationID.String()))

	if err := requireAdmin(ctx); err != nil {
		return err
	}
	current, err := s.store.FindAllocation(ctx, allocationID)
	if err != nil {
		return translate(err, "allocation")
	}
	err = s.tx.RunInMatchTx(ctx, current.MatchID, func(ctx context.Context) error {
		st, err := s.loadState(ctx, current.MatchID)
		if err != nil {
			return err
		}
		a, err := st.find(allocationID)
		if err != nil {
			return err
		}
		if err := s.ballots.ReleaseAllocationInTx(ctx, a); err != nil {
			return err
		}
		if err := s.store.DeleteAllocation(ctx, allocationID); err != nil {
			return err
		}
		prev := a.Placement()
		h := models.NewHistory(models.ActionDeleted, a, &prev, nil, requestcontext.UserID(ctx), notes, requestcontext.Now(ctx))
		h.AllocationID = nil
		return s.record(ctx, h, a)
	})
	if err != nil {
		return s.denied(span, translate(err, "allocation"))
	}
	s.metrics.IncrementAllocation(string(models.ActionDeleted))
	s.logAudit(ctx, "allocation_deleted", "match_id", current.MatchID, "allocation_id", allocationID)
	return nil
}

// Swap exchanges the placements of two allocations in the same match.
func (s *Service) Swap(ctx context.Context, firstID, secondID id.AllocationID, notes string) ([]*models.Allocation, error) {
	ctx, span := tracer.Start(ctx, "allocation.Swap")
	defer span.End()

	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if firstID == secondID {
		return nil, dErrors.New(dErrors.CodeValidation, "an allocation cannot be swapped with itself")
	}
	current, err := s.store.FindAllocation(ctx, firstID)
	if err != nil {
		return nil, translate(err, "allocation")
	}
	span.SetAttributes(attribute.String("match.id", current.MatchID.String()))

	var out []*models.Allocation
	err = s.tx.RunInMatchTx(ctx, current.MatchID, func(ctx context.Context) error {
		st, err := s.loadState(ctx, current.MatchID)
		if err != nil {
			return err
		}
		a, err := st.find(firstID)
		if err != nil {
			return err
		}
		b, err := st.find(secondID)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "both allocations must belong to the same match")
		}
		if a.Participant.Key() == b.Participant.Key() {
			return dErrors.New(dErrors.CodeValidation, "cannot swap a participant with themself")
		}

		beforeA, beforeB := *a, *b
		pa, pb := a.Placement(), b.Placement()
		now := requestcontext.Now(ctx)
		a.ApplyPlacement(pb, now)
		b.ApplyPlacement(pa, now)

		ruleset := s.catalog.For(st.series)
		rest := st.others(a.ID, b.ID)
		if err := ruleset.Check(Proposal{Candidate: a, Series: st.series, Teams: st.teams, Existing: append(rest, b)}); err != nil {
			return err
		}
		if err := ruleset.Check(Proposal{Candidate: b, Series: st.series, Teams: st.teams, Existing: append(st.others(a.ID, b.ID), a)}); err != nil {
			return err
		}
		if err := s.syncBallot(ctx, &beforeA, a); err != nil {
			return err
		}
		if err := s.syncBallot(ctx, &beforeB, b); err != nil {
			return err
		}

		actor := requestcontext.UserID(ctx)
		for _, pair := range []struct {
			self, other *models.Allocation
			prev, next  models.Placement
		}{{a, b, pa, pb}, {b, a, pb, pa}} {
			if err := s.store.UpdateAllocation(ctx, pair.self); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update allocation")
			}
			note := "swapped with " + pair.other.Participant.String()
			if notes != "" {
				note += ": " + notes
			}
			prev, next := pair.prev, pair.next
			if err := s.record(ctx, models.NewHistory(models.ActionSwapped, pair.self, &prev, &next, actor, note, now), pair.self); err != nil {
				return err
			}
		}
		out = []*models.Allocation{a, b}
		return nil
	})
	if err != nil {
		return nil, s.denied(span, translate(err, "allocation"))
	}
	s.metrics.IncrementAllocation(string(models.ActionSwapped))
	s.logAudit(ctx, "allocation_swapped", "match_id", current.MatchID, "first_id", firstID, "second_id", secondID)
	return out, nil
}

// List returns a match's allocations.
func (s *Service) List(ctx context.Context, matchID id.MatchID) ([]*models.Allocation, error) {
	if _, err := s.store.FindMatch(ctx, matchID); err != nil {
		return nil, translate(err, "match")
	}
	out, err := s.store.ListAllocations(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}
	return out, nil
}

func (s *Service) loadState(ctx context.Context, matchID id.MatchID) (*matchState, error) {
	m, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, translate(err, "match")
	}
	if m.Status == models.MatchCompleted || m.Status == models.MatchCancelled {
		return nil, dErrors.Newf(dErrors.CodeConflictingState, "allocations are frozen once a match is %s", m.Status)
	}
	sr, err := s.store.FindSeriesForMatch(ctx, matchID)
	if err != nil {
		return nil, translate(err, "series")
	}
	ev, err := s.store.FindEvent(ctx, sr.EventID)
	if err != nil {
		return nil, translate(err, "event")
	}
	if ev.IsLocked {
		return nil, dErrors.New(dErrors.CodeConflictingState, "event is locked")
	}
	teams, err := s.store.ListTeams(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}
	allocations, err := s.store.ListAllocations(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}
	return &matchState{match: m, series: sr, teams: teams, allocations: allocations}, nil
}

func (st *matchState) find(allocationID id.AllocationID) (*models.Allocation, error) {
	for _, a := range st.allocations {
		if a.ID == allocationID {
			return a, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "allocation not found")
}

// demoteChair clears the chair flag on every other allocation of the match.
func (s *Service) demoteChair(ctx context.Context, others []*models.Allocation, chair *models.Allocation, actor id.UserID, now time.Time) error {
	for _, e := range others {
		if !e.IsChair {
			continue
		}
		prev := e.Placement()
		next := prev
		next.IsChair = false
		e.ApplyPlacement(next, now)
		if err := s.store.UpdateAllocation(ctx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to demote chair")
		}
		h := models.NewHistory(models.ActionUpdated, e, &prev, &next, actor, "chair moved to "+chair.Participant.String(), now)
		if err := s.record(ctx, h, e); err != nil {
			return err
		}
	}
	return nil
}

// syncBallot releases the old ballot and opens a new one when a role change
// crosses the adjudicator boundary or flips voting rights. A speaker moving to
// another team or speaking position is refused once a submitted ballot scored
// them, since the score follows the allocation.
func (s *Service) syncBallot(ctx context.Context, before, after *models.Allocation) error {
	if before.Role == after.Role {
		if before.Role == models.RoleSpeaker && !samePlacement(before.Placement(), after.Placement()) {
			return s.ballots.ReleaseAllocationInTx(ctx, before)
		}
		return nil
	}
	if before.Role.IsAdjudicator() || before.Role == models.RoleSpeaker {
		if err := s.ballots.ReleaseAllocationInTx(ctx, before); err != nil {
			return err
		}
	}
	if after.Role.IsAdjudicator() && !after.Participant.IsGuest() {
		return s.ballots.OpenForAllocationInTx(ctx, after)
	}
	return nil
}

func (s *Service) record(ctx context.Context, h *models.AllocationHistory, a *models.Allocation) error {
	if err := s.store.AppendHistory(ctx, h); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append allocation history")
	}
	if err := s.store.AppendOutbox(ctx, notify.AllocationChanged(a, h.Action, h.ChangedAt)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record allocation event")
	}
	return nil
}

func (s *Service) checkedIn(ctx context.Context, matchID id.MatchID, p models.Participant) bool {
	userID, ok := p.UserID()
	if !ok || s.availability == nil {
		return false
	}
	sr, err := s.store.FindSeriesForMatch(ctx, matchID)
	if err != nil {
		return false
	}
	available, err := s.availability.IsAvailable(ctx, sr.EventID, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "availability lookup failed", "error", err, "match_id", matchID)
		return false
	}
	return available
}

func (s *Service) denied(span trace.Span, err error) error {
	span.RecordError(err)
	s.metrics.IncrementAllocationDenied(string(dErrors.CodeOf(err)))
	return err
}

func samePlacement(a, b models.Placement) bool {
	if a.Role != b.Role || a.SpeakerRole != b.SpeakerRole || a.IsChair != b.IsChair {
		return false
	}
	if a.TeamID == nil || b.TeamID == nil {
		return a.TeamID == nil && b.TeamID == nil
	}
	return *a.TeamID == *b.TeamID
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs, "event", event, "actor_id", requestcontext.UserID(ctx), "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, event, args...)
}

func requireAdmin(ctx context.Context) error {
	if !requestcontext.IsAdmin(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "admin capability required")
	}
	return nil
}

func asValidation(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}

func translate(err error, what string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}
