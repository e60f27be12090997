package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

const ballotColumns = `id, match_id, adjudicator_id, allocation_id, is_voting, is_submitted, notes, submitted_at, created_at, updated_at`

func scanBallot(row rowScanner) (*models.Ballot, error) {
	var (
		b                                  models.Ballot
		ballotID, matchID, adj, allocation uuid.UUID
		submittedAt                        sql.NullTime
	)
	if err := row.Scan(&ballotID, &matchID, &adj, &allocation, &b.IsVoting, &b.IsSubmitted, &b.Notes,
		&submittedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.ID = id.BallotID(ballotID)
	b.MatchID = id.MatchID(matchID)
	b.AdjudicatorID = id.UserID(adj)
	b.AllocationID = id.AllocationID(allocation)
	b.SubmittedAt = timePtr(submittedAt)
	return &b, nil
}

func (s *Store) CreateBallot(ctx context.Context, b *models.Ballot) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO ballots (`+ballotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(b.ID), uuid.UUID(b.MatchID), uuid.UUID(b.AdjudicatorID), uuid.UUID(b.AllocationID),
		b.IsVoting, b.IsSubmitted, b.Notes, nullTime(b.SubmittedAt), b.CreatedAt, b.UpdatedAt,
	)
	return mapErr(err, "create ballot")
}

// UpdateBallot persists notes and submission state. is_voting is fixed at
// creation; the conditional keeps a submitted ballot from being reopened.
func (s *Store) UpdateBallot(ctx context.Context, b *models.Ballot) error {
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE ballots SET is_submitted = $2, notes = $3, submitted_at = $4, updated_at = $5
		WHERE id = $1 AND (NOT is_submitted OR $2)`,
		uuid.UUID(b.ID), b.IsSubmitted, b.Notes, nullTime(b.SubmittedAt), b.UpdatedAt,
	)
	if err != nil {
		return mapErr(err, "update ballot")
	}
	return requireRow(res, "update ballot")
}

func (s *Store) FindBallot(ctx context.Context, ballotID id.BallotID) (*models.Ballot, error) {
	return s.findBallot(ctx, "find ballot", `WHERE id = $1`, uuid.UUID(ballotID))
}

func (s *Store) FindBallotByAdjudicator(ctx context.Context, matchID id.MatchID, userID id.UserID) (*models.Ballot, error) {
	return s.findBallot(ctx, "find ballot by adjudicator", `WHERE match_id = $1 AND adjudicator_id = $2`, uuid.UUID(matchID), uuid.UUID(userID))
}

func (s *Store) FindBallotByAllocation(ctx context.Context, allocationID id.AllocationID) (*models.Ballot, error) {
	return s.findBallot(ctx, "find ballot by allocation", `WHERE allocation_id = $1`, uuid.UUID(allocationID))
}

func (s *Store) findBallot(ctx context.Context, op, where string, args ...any) (*models.Ballot, error) {
	b, err := scanBallot(s.exec(ctx).QueryRowContext(ctx, `SELECT `+ballotColumns+` FROM ballots `+where, args...))
	if err != nil {
		return nil, mapErr(err, op)
	}
	return b, nil
}

func (s *Store) ListBallots(ctx context.Context, matchID id.MatchID) ([]*models.Ballot, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT `+ballotColumns+` FROM ballots WHERE match_id = $1 ORDER BY created_at ASC, id ASC`, uuid.UUID(matchID))
	if err != nil {
		return nil, mapErr(err, "list ballots")
	}
	defer rows.Close()
	var out []*models.Ballot
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ballot: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBallot removes a ballot with its scores and rankings.
func (s *Store) DeleteBallot(ctx context.Context, ballotID id.BallotID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM ballots WHERE id = $1`, uuid.UUID(ballotID))
	if err != nil {
		return mapErr(err, "delete ballot")
	}
	return requireRow(res, "delete ballot")
}

func (s *Store) UpsertScore(ctx context.Context, sc *models.SpeakerScore) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO speaker_scores (ballot_id, allocation_id, score, feedback, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ballot_id, allocation_id) DO UPDATE SET
			score = EXCLUDED.score,
			feedback = EXCLUDED.feedback,
			updated_at = EXCLUDED.updated_at`,
		uuid.UUID(sc.BallotID), uuid.UUID(sc.AllocationID), sc.Score, sc.Feedback, sc.UpdatedAt,
	)
	return mapErr(err, "upsert score")
}

const scoreColumns = `ballot_id, allocation_id, score, feedback, updated_at`

func (s *Store) ListScores(ctx context.Context, ballotID id.BallotID) ([]*models.SpeakerScore, error) {
	return s.queryScores(ctx, "list scores", `
		SELECT `+scoreColumns+` FROM speaker_scores WHERE ballot_id = $1 ORDER BY allocation_id`, uuid.UUID(ballotID))
}

func (s *Store) ListMatchScores(ctx context.Context, matchID id.MatchID) ([]*models.SpeakerScore, error) {
	return s.queryScores(ctx, "list match scores", `
		SELECT `+prefixed("sc", scoreColumns)+` FROM speaker_scores sc
		JOIN ballots b ON b.id = sc.ballot_id
		WHERE b.match_id = $1
		ORDER BY sc.ballot_id, sc.allocation_id`, uuid.UUID(matchID))
}

func (s *Store) queryScores(ctx context.Context, op, query string, args ...any) ([]*models.SpeakerScore, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, op)
	}
	defer rows.Close()
	var out []*models.SpeakerScore
	for rows.Next() {
		var (
			sc                   models.SpeakerScore
			ballotID, allocation uuid.UUID
		)
		if err := rows.Scan(&ballotID, &allocation, &sc.Score, &sc.Feedback, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		sc.BallotID = id.BallotID(ballotID)
		sc.AllocationID = id.AllocationID(allocation)
		out = append(out, &sc)
	}
	return out, rows.Err()
}

func (s *Store) UpsertRanking(ctx context.Context, r *models.TeamRanking) error {
	var winner sql.NullBool
	if r.IsWinner != nil {
		winner = sql.NullBool{Bool: *r.IsWinner, Valid: true}
	}
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO team_rankings (ballot_id, team_id, rank, is_winner, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ballot_id, team_id) DO UPDATE SET
			rank = EXCLUDED.rank,
			is_winner = EXCLUDED.is_winner,
			updated_at = EXCLUDED.updated_at`,
		uuid.UUID(r.BallotID), uuid.UUID(r.TeamID), r.Rank, winner, r.UpdatedAt,
	)
	return mapErr(err, "upsert ranking")
}

const rankingColumns = `ballot_id, team_id, rank, is_winner, updated_at`

func (s *Store) ListRankings(ctx context.Context, ballotID id.BallotID) ([]*models.TeamRanking, error) {
	return s.queryRankings(ctx, "list rankings", `
		SELECT `+rankingColumns+` FROM team_rankings WHERE ballot_id = $1 ORDER BY rank, team_id`, uuid.UUID(ballotID))
}

func (s *Store) ListMatchRankings(ctx context.Context, matchID id.MatchID) ([]*models.TeamRanking, error) {
	return s.queryRankings(ctx, "list match rankings", `
		SELECT `+prefixed("r", rankingColumns)+` FROM team_rankings r
		JOIN ballots b ON b.id = r.ballot_id
		WHERE b.match_id = $1
		ORDER BY r.ballot_id, r.rank`, uuid.UUID(matchID))
}

func (s *Store) queryRankings(ctx context.Context, op, query string, args ...any) ([]*models.TeamRanking, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, op)
	}
	defer rows.Close()
	var out []*models.TeamRanking
	for rows.Next() {
		var (
			r              models.TeamRanking
			ballotID, team uuid.UUID
			winner         sql.NullBool
		)
		if err := rows.Scan(&ballotID, &team, &r.Rank, &winner, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		r.BallotID = id.BallotID(ballotID)
		r.TeamID = id.TeamID(team)
		if winner.Valid {
			w := winner.Bool
			r.IsWinner = &w
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
