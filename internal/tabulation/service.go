package tabulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"tabrela/internal/models"
	"tabrela/internal/platform/metrics"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/sentinel"
	"tabrela/pkg/requestcontext"
)

var tracer = otel.Tracer("tabrela/tabulation")

type Store interface {
	FindMatch(ctx context.Context, matchID id.MatchID) (*models.Match, error)
	UpdateMatch(ctx context.Context, m *models.Match) error
	FindSeriesForMatch(ctx context.Context, matchID id.MatchID) (*models.MatchSeries, error)
	ListTeams(ctx context.Context, matchID id.MatchID) ([]*models.MatchTeam, error)
	ListAllocations(ctx context.Context, matchID id.MatchID) ([]*models.Allocation, error)
	ListUserAllocations(ctx context.Context, userID id.UserID, eventID *id.EventID) ([]*models.Allocation, error)
	ListBallots(ctx context.Context, matchID id.MatchID) ([]*models.Ballot, error)
	ListMatchScores(ctx context.Context, matchID id.MatchID) ([]*models.SpeakerScore, error)
	ListMatchRankings(ctx context.Context, matchID id.MatchID) ([]*models.TeamRanking, error)
	SaveTeamResults(ctx context.Context, matchID id.MatchID, results []models.TeamResult) error
}

type TxRunner interface {
	RunInMatchTx(ctx context.Context, matchID id.MatchID, fn func(ctx context.Context) error) error
}

type Service struct {
	store       Store
	tx          TxRunner
	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
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

// WithConcurrency bounds parallel match loads when building performance stats.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(store Store, tx TxRunner, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, logger: slog.Default(), concurrency: 8}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TabulateInTx aggregates a match and writes the results onto its teams. It
// must run inside the match transaction.
func (s *Service) TabulateInTx(ctx context.Context, matchID id.MatchID) (*models.TabulationResult, error) {
	ctx, span := tracer.Start(ctx, "tabulation.Tabulate")
	defer span.End()
	span.SetAttributes(attribute.String("match.id", matchID.String()))
	start := time.Now()

	m, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, translate(err, "match")
	}
	in, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	result := Aggregate(in, requestcontext.Now(ctx))
	if err := s.store.SaveTeamResults(ctx, matchID, result.Teams); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save team results")
	}
	m.Tabulation = result.Status
	if err := s.store.UpdateMatch(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record tabulation status")
	}

	span.SetAttributes(attribute.String("tabulation.status", string(result.Status)), attribute.Int("tabulation.ballots", result.BallotsCounted))
	s.metrics.ObserveTabulation(string(result.Status), time.Since(start))
	if result.Status == models.TabulationUnresolved {
		s.logger.WarnContext(ctx, "tabulation unresolved", "match_id", matchID, "tied_teams", len(result.TiedTeams), "request_id", requestcontext.RequestID(ctx))
	}
	return result, nil
}

// Recompute re-runs aggregation for a completed match.
func (s *Service) Recompute(ctx context.Context, matchID id.MatchID) (*models.TabulationResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *models.TabulationResult
	err := s.tx.RunInMatchTx(ctx, matchID, func(ctx context.Context) error {
		m, err := s.store.FindMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != models.MatchCompleted {
			return dErrors.New(dErrors.CodeInvalidState, "only completed matches are tabulated")
		}
		out, err = s.TabulateInTx(ctx, matchID)
		return err
	})
	if err != nil {
		return nil, translate(err, "match")
	}
	s.logAudit(ctx, "tabulation_recomputed", "match_id", matchID, "status", out.Status)
	return out, nil
}

// ResolveManually sets final ranks for an unresolved match. ranks must cover
// every team with a permutation of 1..n.
func (s *Service) ResolveManually(ctx context.Context, matchID id.MatchID, ranks map[id.TeamID]int) (*models.TabulationResult, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *models.TabulationResult
	err := s.tx.RunInMatchTx(ctx, matchID, func(ctx context.Context) error {
		m, err := s.store.FindMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != models.MatchCompleted || m.Tabulation != models.TabulationUnresolved {
			return dErrors.New(dErrors.CodeConflictingState, "only unresolved tabulations can be resolved manually")
		}
		in, err := s.load(ctx, matchID)
		if err != nil {
			return err
		}
		if err := validateRanks(in.Teams, ranks); err != nil {
			return err
		}
		result := Aggregate(in, requestcontext.Now(ctx))
		for i := range result.Teams {
			r := ranks[result.Teams[i].TeamID]
			result.Teams[i].FinalRank = &r
		}
		result.Status = models.TabulationResolved
		result.TiedTeams = nil
		if err := s.store.SaveTeamResults(ctx, matchID, result.Teams); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save team results")
		}
		m.Tabulation = models.TabulationResolved
		m.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateMatch(ctx, m); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record tabulation status")
		}
		out = result
		return nil
	})
	if err != nil {
		return nil, translate(err, "match")
	}
	s.logAudit(ctx, "tabulation_resolved_manually", "match_id", matchID)
	return out, nil
}

func validateRanks(teams []*models.MatchTeam, ranks map[id.TeamID]int) error {
	if len(ranks) != len(teams) {
		return dErrors.Newf(dErrors.CodeValidation, "expected a rank for each of %d teams", len(teams))
	}
	seen := make(map[int]bool, len(teams))
	var missing []string
	for _, t := range teams {
		r, ok := ranks[t.ID]
		if !ok {
			missing = append(missing, t.ID.String())
			continue
		}
		if r < 1 || r > len(teams) || seen[r] {
			return dErrors.Newf(dErrors.CodeValidation, "ranks must be a permutation of 1..%d", len(teams))
		}
		seen[r] = true
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "every team needs a rank").WithDetails(missing...)
	}
	return nil
}

func (s *Service) load(ctx context.Context, matchID id.MatchID) (Input, error) {
	in := Input{MatchID: matchID}
	sr, err := s.store.FindSeriesForMatch(ctx, matchID)
	if err != nil {
		return in, translate(err, "series")
	}
	in.Format = sr.TeamFormat
	if in.Teams, err = s.store.ListTeams(ctx, matchID); err != nil {
		return in, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}
	if in.Allocations, err = s.store.ListAllocations(ctx, matchID); err != nil {
		return in, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}
	if in.Ballots, err = s.store.ListBallots(ctx, matchID); err != nil {
		return in, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ballots")
	}
	if in.Scores, err = s.store.ListMatchScores(ctx, matchID); err != nil {
		return in, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list scores")
	}
	if in.Rankings, err = s.store.ListMatchRankings(ctx, matchID); err != nil {
		return in, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rankings")
	}
	return in, nil
}

// View is a match result as the caller may see it.
type View struct {
	MatchID          id.MatchID              `json:"match_id"`
	Status           models.MatchStatus      `json:"status"`
	Tabulation       models.TabulationStatus `json:"tabulation_status,omitempty"`
	ScoresReleased   bool                    `json:"scores_released"`
	RankingsReleased bool                    `json:"rankings_released"`
	Teams            []models.TeamResult     `json:"teams"`
	Speakers         []models.SpeakerResult  `json:"speakers,omitempty"`
	TiedTeams        []id.TeamID             `json:"tied_teams,omitempty"`
}

// View projects stored results through the release gates. Admins see
// everything; others see points and speaker scores once scores are released
// and ranks once rankings are released.
func (s *Service) View(ctx context.Context, matchID id.MatchID) (*View, error) {
	m, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		return nil, translate(err, "match")
	}
	in, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	admin := requestcontext.IsAdmin(ctx)
	v := &View{
		MatchID:          matchID,
		Status:           m.Status,
		Tabulation:       m.Tabulation,
		ScoresReleased:   m.ScoresReleased,
		RankingsReleased: m.RankingsReleased,
	}
	showScores := admin || m.ScoresReleased
	showRanks := admin || m.RankingsReleased

	for _, t := range in.Teams {
		tr := models.TeamResult{TeamID: t.ID, Position: t.Position}
		if showScores {
			tr.TotalSpeakerPoints = t.TotalSpeakerPoints
		}
		if showRanks {
			tr.FinalRank = t.FinalRank
		}
		v.Teams = append(v.Teams, tr)
	}
	if m.Status == models.MatchCompleted && showScores {
		agg := Aggregate(in, requestcontext.Now(ctx))
		if showScores {
			v.Speakers = agg.Speakers
		}
		if admin {
			v.TiedTeams = agg.TiedTeams
			votes := make(map[id.TeamID]map[int]int, len(agg.Teams))
			for _, tr := range agg.Teams {
				votes[tr.TeamID] = tr.Votes
			}
			for i := range v.Teams {
				v.Teams[i].Votes = votes[v.Teams[i].TeamID]
			}
		}
	}
	return v, nil
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

func translate(err error, what string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}
