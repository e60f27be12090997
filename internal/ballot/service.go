// Package ballot captures adjudicator submissions for a match.
package ballot

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tabrela/internal/models"
	"tabrela/internal/platform/metrics"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/sentinel"
	"tabrela/pkg/requestcontext"
)

var tracer = otel.Tracer("tabrela/ballot")

type Store interface {
	FindMatch(ctx context.Context, matchID id.MatchID) (*models.Match, error)
	FindSeriesForMatch(ctx context.Context, matchID id.MatchID) (*models.MatchSeries, error)
	ListTeams(ctx context.Context, matchID id.MatchID) ([]*models.MatchTeam, error)
	FindAllocation(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error)
	ListAllocations(ctx context.Context, matchID id.MatchID) ([]*models.Allocation, error)

	CreateBallot(ctx context.Context, b *models.Ballot) error
	UpdateBallot(ctx context.Context, b *models.Ballot) error
	FindBallot(ctx context.Context, ballotID id.BallotID) (*models.Ballot, error)
	FindBallotByAdjudicator(ctx context.Context, matchID id.MatchID, userID id.UserID) (*models.Ballot, error)
	FindBallotByAllocation(ctx context.Context, allocationID id.AllocationID) (*models.Ballot, error)
	ListBallots(ctx context.Context, matchID id.MatchID) ([]*models.Ballot, error)
	DeleteBallot(ctx context.Context, ballotID id.BallotID) error

	UpsertScore(ctx context.Context, sc *models.SpeakerScore) error
	ListScores(ctx context.Context, ballotID id.BallotID) ([]*models.SpeakerScore, error)
	ListMatchScores(ctx context.Context, matchID id.MatchID) ([]*models.SpeakerScore, error)
	UpsertRanking(ctx context.Context, r *models.TeamRanking) error
	ListRankings(ctx context.Context, ballotID id.BallotID) ([]*models.TeamRanking, error)
}

type TxRunner interface {
	RunInMatchTx(ctx context.Context, matchID id.MatchID, fn func(ctx context.Context) error) error
}

type Service struct {
	store   Store
	tx      TxRunner
	logger  *slog.Logger
	metrics *metrics.Metrics
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

func New(store Store, tx TxRunner, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenForAllocationInTx creates the ballot for a registered adjudicator. It
// must run inside the match transaction.
func (s *Service) OpenForAllocationInTx(ctx context.Context, a *models.Allocation) error {
	b, err := models.NewBallot(id.NewBallotID(), a, requestcontext.Now(ctx))
	if err != nil {
		return asValidation(err)
	}
	existing, err := s.store.FindBallotByAdjudicator(ctx, a.MatchID, b.AdjudicatorID)
	switch {
	case err == nil:
		return dErrors.New(dErrors.CodeDuplicateBallot, "adjudicator already holds a ballot for this match").
			WithExisting(existing.ID.String())
	case !errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up ballot")
	}
	if err := s.store.CreateBallot(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeDuplicateBallot, "adjudicator already holds a ballot for this match")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create ballot")
	}
	return nil
}

// ReleaseAllocationInTx drops the unsubmitted ballot of a departing
// adjudicator. Submitted ballots, and speakers scored on one, pin the
// allocation in place.
func (s *Service) ReleaseAllocationInTx(ctx context.Context, a *models.Allocation) error {
	if a.Role.IsAdjudicator() {
		b, err := s.store.FindBallotByAllocation(ctx, a.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up ballot")
		}
		if b.IsSubmitted {
			return dErrors.New(dErrors.CodeConflictingState, "adjudicator has already submitted a ballot").WithExisting(b.ID.String())
		}
		if err := s.store.DeleteBallot(ctx, b.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove ballot")
		}
		return nil
	}
	if a.Role != models.RoleSpeaker {
		return nil
	}
	scores, err := s.store.ListMatchScores(ctx, a.MatchID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scores")
	}
	for _, sc := range scores {
		if sc.AllocationID != a.ID {
			continue
		}
		b, err := s.store.FindBallot(ctx, sc.BallotID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up ballot")
		}
		if b.IsSubmitted {
			return dErrors.New(dErrors.CodeConflictingState, "speaker has been scored on a submitted ballot").WithExisting(b.ID.String())
		}
	}
	return nil
}

// OpenBallot opens a ballot for an adjudicator allocation that has none, for
// instance after a ballot was removed.
func (s *Service) OpenBallot(ctx context.Context, allocationID id.AllocationID) (*models.Ballot, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	a, err := s.store.FindAllocation(ctx, allocationID)
	if err != nil {
		return nil, translate(err, "allocation")
	}
	var out *models.Ballot
	err = s.tx.RunInMatchTx(ctx, a.MatchID, func(ctx context.Context) error {
		if _, err := s.writableMatch(ctx, a.MatchID); err != nil {
			return err
		}
		a, err := s.store.FindAllocation(ctx, allocationID)
		if err != nil {
			return err
		}
		if err := s.OpenForAllocationInTx(ctx, a); err != nil {
			return err
		}
		out, err = s.store.FindBallotByAllocation(ctx, allocationID)
		return err
	})
	if err != nil {
		return nil, translate(err, "allocation")
	}
	s.logAudit(ctx, "ballot_opened", "match_id", out.MatchID, "ballot_id", out.ID)
	return out, nil
}

// ScoreEntry is one speaker score in a combined submission.
type ScoreEntry struct {
	AllocationID id.AllocationID
	Score        float64
	Feedback     string
}

// RankingEntry is one team rank in a combined submission.
type RankingEntry struct {
	TeamID   id.TeamID
	Rank     int
	IsWinner *bool
}

// SubmitRequest writes several entries at once, optionally finalizing.
type SubmitRequest struct {
	Scores   []ScoreEntry
	Rankings []RankingEntry
	Notes    *string
	Finalize bool
}

func (s *Service) SubmitScore(ctx context.Context, ballotID id.BallotID, entry ScoreEntry) (*models.SpeakerScore, error) {
	var out *models.SpeakerScore
	err := s.write(ctx, ballotID, func(ctx context.Context, w *writeScope) error {
		sc, err := w.score(ctx, entry)
		out = sc
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) SubmitRanking(ctx context.Context, ballotID id.BallotID, entry RankingEntry) (*models.TeamRanking, error) {
	var out *models.TeamRanking
	err := s.write(ctx, ballotID, func(ctx context.Context, w *writeScope) error {
		r, err := w.rank(ctx, entry)
		out = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Submit applies scores, rankings and notes in one transaction and, when
// asked, finalizes the ballot in the same step.
func (s *Service) Submit(ctx context.Context, ballotID id.BallotID, req SubmitRequest) (*models.BallotSheet, error) {
	ctx, span := tracer.Start(ctx, "ballot.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("ballot.id", ballotID.String()), attribute.Bool("ballot.finalize", req.Finalize))

	err := s.write(ctx, ballotID, func(ctx context.Context, w *writeScope) error {
		if (len(req.Scores) > 0 || len(req.Rankings) > 0) && !w.ballot.IsVoting {
			return w.ballot.EnsureVoting()
		}
		for _, e := range req.Scores {
			if _, err := w.score(ctx, e); err != nil {
				return err
			}
		}
		for _, e := range req.Rankings {
			if _, err := w.rank(ctx, e); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			if err := w.ballot.SetNotes(*req.Notes, requestcontext.Now(ctx)); err != nil {
				return asValidation(err)
			}
		}
		if req.Finalize {
			return w.finalize(ctx)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if req.Finalize {
		s.finalized(ctx, ballotID)
	}
	return s.sheet(ctx, ballotID)
}

// Finalize submits the ballot. A voting ballot must carry a score for every
// speaker and a complete ranking; a non-voting ballot needs nothing.
func (s *Service) Finalize(ctx context.Context, ballotID id.BallotID) (*models.Ballot, error) {
	ctx, span := tracer.Start(ctx, "ballot.Finalize")
	defer span.End()
	span.SetAttributes(attribute.String("ballot.id", ballotID.String()))

	var out *models.Ballot
	err := s.write(ctx, ballotID, func(ctx context.Context, w *writeScope) error {
		out = w.ballot
		return w.finalize(ctx)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.finalized(ctx, ballotID)
	return out, nil
}

func (s *Service) SetNotes(ctx context.Context, ballotID id.BallotID, notes string) (*models.Ballot, error) {
	var out *models.Ballot
	err := s.write(ctx, ballotID, func(ctx context.Context, w *writeScope) error {
		out = w.ballot
		return asValidation(w.ballot.SetNotes(notes, requestcontext.Now(ctx)))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitFeedback records notes on a non-voting ballot and finalizes it.
func (s *Service) SubmitFeedback(ctx context.Context, ballotID id.BallotID, notes string) (*models.Ballot, error) {
	var out *models.Ballot
	err := s.write(ctx, ballotID, func(ctx context.Context, w *writeScope) error {
		if w.ballot.IsVoting {
			return dErrors.New(dErrors.CodeValidation, "voting ballots are finalized with scores and rankings")
		}
		if err := w.ballot.SetNotes(notes, requestcontext.Now(ctx)); err != nil {
			return asValidation(err)
		}
		out = w.ballot
		return w.finalize(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.finalized(ctx, ballotID)
	return out, nil
}

func (s *Service) finalized(ctx context.Context, ballotID id.BallotID) {
	b, err := s.store.FindBallot(ctx, ballotID)
	if err != nil {
		return
	}
	kind := "non_voting"
	if b.IsVoting {
		kind = "voting"
	}
	s.metrics.IncrementBallotFinalized(kind)
	s.logAudit(ctx, "ballot_finalized", "match_id", b.MatchID, "ballot_id", ballotID, "voting", b.IsVoting)
}

// Get returns a ballot with its entries to its adjudicator or an admin.
func (s *Service) Get(ctx context.Context, ballotID id.BallotID) (*models.BallotSheet, error) {
	b, err := s.store.FindBallot(ctx, ballotID)
	if err != nil {
		return nil, translate(err, "ballot")
	}
	if err := authorize(ctx, b); err != nil {
		return nil, err
	}
	return s.sheet(ctx, ballotID)
}

// Mine returns the caller's ballot for a match.
func (s *Service) Mine(ctx context.Context, matchID id.MatchID) (*models.BallotSheet, error) {
	b, err := s.store.FindBallotByAdjudicator(ctx, matchID, requestcontext.UserID(ctx))
	if err != nil {
		return nil, translate(err, "ballot")
	}
	return s.sheet(ctx, b.ID)
}

// ListForMatch returns every ballot of a match. Admin only.
func (s *Service) ListForMatch(ctx context.Context, matchID id.MatchID) ([]*models.BallotSheet, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if _, err := s.store.FindMatch(ctx, matchID); err != nil {
		return nil, translate(err, "match")
	}
	ballots, err := s.store.ListBallots(ctx, matchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ballots")
	}
	out := make([]*models.BallotSheet, 0, len(ballots))
	for _, b := range ballots {
		sheet, err := s.sheet(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, sheet)
	}
	return out, nil
}

func (s *Service) sheet(ctx context.Context, ballotID id.BallotID) (*models.BallotSheet, error) {
	b, err := s.store.FindBallot(ctx, ballotID)
	if err != nil {
		return nil, translate(err, "ballot")
	}
	scores, err := s.store.ListScores(ctx, ballotID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scores")
	}
	rankings, err := s.store.ListRankings(ctx, ballotID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rankings")
	}
	return &models.BallotSheet{Ballot: b, Scores: scores, Rankings: rankings}, nil
}

func (s *Service) writableMatch(ctx context.Context, matchID id.MatchID) (*models.Match, error) {
	m, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, translate(err, "match")
	}
	if m.Status == models.MatchCancelled {
		return nil, dErrors.New(dErrors.CodeConflictingState, "match has been cancelled")
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

// authorize lets the ballot's adjudicator or an admin through.
func authorize(ctx context.Context, b *models.Ballot) error {
	if requestcontext.IsAdmin(ctx) || requestcontext.UserID(ctx) == b.AdjudicatorID {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "only the adjudicator or an admin may access this ballot")
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
