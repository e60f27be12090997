// Package match owns matches, their teams, the status machine and the
// release gates.
package match

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tabrela/internal/models"
	"tabrela/internal/notify"
	"tabrela/internal/platform/metrics"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/sentinel"
	"tabrela/pkg/requestcontext"
)

var tracer = otel.Tracer("tabrela/match")

type Store interface {
	FindSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error)
	LockSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error)
	FindSeriesForMatch(ctx context.Context, matchID id.MatchID) (*models.MatchSeries, error)

	CreateMatch(ctx context.Context, m *models.Match) error
	UpdateMatch(ctx context.Context, m *models.Match) error
	FindMatch(ctx context.Context, matchID id.MatchID) (*models.Match, error)
	ListMatches(ctx context.Context, seriesID id.SeriesID) ([]*models.Match, error)
	DeleteMatch(ctx context.Context, matchID id.MatchID) error

	CreateTeam(ctx context.Context, t *models.MatchTeam) error
	UpdateTeam(ctx context.Context, t *models.MatchTeam) error
	FindTeam(ctx context.Context, teamID id.TeamID) (*models.MatchTeam, error)
	ListTeams(ctx context.Context, matchID id.MatchID) ([]*models.MatchTeam, error)
	DeleteTeam(ctx context.Context, teamID id.TeamID) error

	ListAllocations(ctx context.Context, matchID id.MatchID) ([]*models.Allocation, error)
	ListBallots(ctx context.Context, matchID id.MatchID) ([]*models.Ballot, error)

	AppendOutbox(ctx context.Context, ev models.OutboundEvent) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	RunInMatchTx(ctx context.Context, matchID id.MatchID, fn func(ctx context.Context) error) error
}

// Tabulator aggregates a completed match inside the caller's match
// transaction.
type Tabulator interface {
	TabulateInTx(ctx context.Context, matchID id.MatchID) (*models.TabulationResult, error)
}

type Service struct {
	store     Store
	tx        TxRunner
	tabulator Tabulator
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

func New(store Store, tx TxRunner, tabulator Tabulator, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, tabulator: tabulator, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MatchView is a match with its teams, results redacted for the caller.
type MatchView struct {
	Match *models.Match       `json:"match"`
	Teams []*models.MatchTeam `json:"teams"`
}

// CreateMatch opens a draft match with one unnamed team per position slot of
// the series' format.
func (s *Service) CreateMatch(ctx context.Context, seriesID id.SeriesID, details models.MatchDetails) (*MatchView, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	m := models.NewMatch(id.NewMatchID(), seriesID, now)
	if err := m.ApplyDetails(details, now); err != nil {
		return nil, asValidation(err)
	}

	var teams []*models.MatchTeam
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sr, err := s.store.LockSeries(ctx, seriesID)
		if err != nil {
			return translate(err, "series")
		}
		if err := s.store.CreateMatch(ctx, m); err != nil {
			return translate(err, "series")
		}
		teams = models.DefaultTeams(m.ID, sr.TeamFormat, now)
		for _, t := range teams {
			if err := s.store.CreateTeam(ctx, t); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create team")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "match_created", "match_id", m.ID, "series_id", seriesID)
	return &MatchView{Match: m, Teams: teams}, nil
}

func (s *Service) UpdateMatch(ctx context.Context, matchID id.MatchID, details models.MatchDetails) (*models.Match, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *models.Match
	err := s.tx.RunInMatchTx(ctx, matchID, func(ctx context.Context) error {
		m, err := s.findMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status == models.MatchCancelled {
			return dErrors.New(dErrors.CodeConflictingState, "cancelled matches cannot be edited")
		}
		if err := m.ApplyDetails(details, requestcontext.Now(ctx)); err != nil {
			return asValidation(err)
		}
		if err := s.store.UpdateMatch(ctx, m); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update match")
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, translate(err, "match")
	}
	return out, nil
}

// GetMatch returns the match and its teams. Results are hidden from
// non-admin callers until released.
func (s *Service) GetMatch(ctx context.Context, matchID id.MatchID) (*MatchView, error) {
	m, err := s.findMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	teams, err := s.store.ListTeams(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}
	m.RedactResults(teams, requestcontext.IsAdmin(ctx))
	return &MatchView{Match: m, Teams: teams}, nil
}

func (s *Service) ListMatches(ctx context.Context, seriesID id.SeriesID) ([]*models.Match, error) {
	if _, err := s.store.FindSeries(ctx, seriesID); err != nil {
		return nil, translate(err, "series")
	}
	out, err := s.store.ListMatches(ctx, seriesID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list matches")
	}
	return out, nil
}

// DeleteMatch removes a match with its teams, allocations and ballots.
// Allocation history survives.
func (s *Service) DeleteMatch(ctx context.Context, matchID id.MatchID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	err := s.tx.RunInMatchTx(ctx, matchID, func(ctx context.Context) error {
		return s.store.DeleteMatch(ctx, matchID)
	})
	if err != nil {
		return translate(err, "match")
	}
	s.logAudit(ctx, "match_deleted", "match_id", matchID)
	return nil
}

// Transition moves a match along its status path.
//
// Publishing requires every position slot of the format to have a team.
// Completing requires every voting ballot to be submitted, re-read inside the
// match transaction, and runs tabulation in the same transaction.
func (s *Service) Transition(ctx context.Context, matchID id.MatchID, target models.MatchStatus) (*models.Match, error) {
	ctx, span := tracer.Start(ctx, "match.Transition")
	defer span.End()
	span.SetAttributes(attribute.String("match.id", matchID.String()), attribute.String("match.target", string(target)))

	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *models.Match
	err := s.tx.RunInMatchTx(ctx, matchID, func(ctx context.Context) error {
		m, err := s.findMatch(ctx, matchID)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		if err := m.Transition(target, now); err != nil {
			return err
		}

		switch target {
		case models.MatchPublished:
			if err := s.checkSetup(ctx, m); err != nil {
				return err
			}
		case models.MatchCompleted:
			if err := s.checkBallots(ctx, m); err != nil {
				return err
			}
		}

		if err := s.store.UpdateMatch(ctx, m); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update match status")
		}
		if err := s.store.AppendOutbox(ctx, notify.StatusChanged(m, now)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record status event")
		}

		if target == models.MatchCompleted {
			result, err := s.tabulator.TabulateInTx(ctx, matchID)
			if err != nil {
				return err
			}
			m.Tabulation = result.Status
		}
		out = m
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, translate(err, "match")
	}
	s.metrics.IncrementTransition(string(target))
	s.logAudit(ctx, "match_status_changed", "match_id", matchID, "status", target)
	return out, nil
}

func (s *Service) checkSetup(ctx context.Context, m *models.Match) error {
	sr, err := s.store.FindSeriesForMatch(ctx, m.ID)
	if err != nil {
		return translate(err, "series")
	}
	teams, err := s.store.ListTeams(ctx, m.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}
	if missing := models.MissingPositions(sr.TeamFormat, teams); len(missing) > 0 {
		return dErrors.New(dErrors.CodeIncompleteSetup, "every position needs a team before publishing").WithDetails(missing...)
	}
	return nil
}

// checkBallots lists voting adjudicators whose ballot is missing or not yet
// submitted.
func (s *Service) checkBallots(ctx context.Context, m *models.Match) error {
	ballots, err := s.store.ListBallots(ctx, m.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ballots")
	}
	allocations, err := s.store.ListAllocations(ctx, m.ID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}
	byAdjudicator := make(map[id.UserID]*models.Ballot, len(ballots))
	for _, b := range ballots {
		byAdjudicator[b.AdjudicatorID] = b
	}

	var pending []string
	seen := make(map[id.UserID]bool)
	for _, a := range allocations {
		if a.Role != models.RoleVotingAdjudicator {
			continue
		}
		userID, ok := a.Participant.UserID()
		if !ok || seen[userID] {
			continue
		}
		seen[userID] = true
		if b, ok := byAdjudicator[userID]; !ok || !b.IsSubmitted {
			pending = append(pending, userID.String())
		}
	}
	for _, b := range ballots {
		if b.IsVoting && !b.IsSubmitted && !seen[b.AdjudicatorID] {
			seen[b.AdjudicatorID] = true
			pending = append(pending, b.AdjudicatorID.String())
		}
	}
	if len(pending) > 0 {
		return dErrors.New(dErrors.CodePendingBallots, "voting ballots are still outstanding").WithDetails(pending...)
	}
	return nil
}

// SetRelease opens a release gate. Gates only open after completion and
// never close again.
func (s *Service) SetRelease(ctx context.Context, matchID id.MatchID, gate models.ReleaseGate, value bool) (*models.Match, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *models.Match
	changed := false
	err := s.tx.RunInMatchTx(ctx, matchID, func(ctx context.Context) error {
		m, err := s.findMatch(ctx, matchID)
		if err != nil {
			return err
		}
		now := requestcontext.Now(ctx)
		changed, err = m.SetRelease(gate, value, now)
		if err != nil {
			return err
		}
		out = m
		if !changed {
			return nil
		}
		if err := s.store.UpdateMatch(ctx, m); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update release gate")
		}
		if err := s.store.AppendOutbox(ctx, notify.ReleaseChanged(m, gate, now)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record release event")
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "match")
	}
	if changed {
		s.metrics.IncrementRelease(string(gate))
		s.logAudit(ctx, "match_release_changed", "match_id", matchID, "gate", gate)
	}
	return out, nil
}

func (s *Service) findMatch(ctx context.Context, matchID id.MatchID) (*models.Match, error) {
	m, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, translate(err, "match")
	}
	return m, nil
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
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflictingState, what+" conflicts with existing state")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}
