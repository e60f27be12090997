package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

const matchColumns = `id, series_id, room_name, motion, info_slide, scheduled_time, status, scores_released, rankings_released, tabulation_status, created_at, updated_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m                 models.Match
		matchID, seriesID uuid.UUID
		scheduled         sql.NullTime
	)
	if err := row.Scan(&matchID, &seriesID, &m.Room, &m.Motion, &m.InfoSlide, &scheduled, &m.Status,
		&m.ScoresReleased, &m.RankingsReleased, &m.Tabulation, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.ID = id.MatchID(matchID)
	m.SeriesID = id.SeriesID(seriesID)
	m.ScheduledTime = timePtr(scheduled)
	return &m, nil
}

func (s *Store) CreateMatch(ctx context.Context, m *models.Match) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(m.ID), uuid.UUID(m.SeriesID), m.Room, m.Motion, m.InfoSlide, nullTime(m.ScheduledTime), string(m.Status),
		m.ScoresReleased, m.RankingsReleased, string(m.Tabulation), m.CreatedAt, m.UpdatedAt,
	)
	return mapErr(err, "create match")
}

func (s *Store) UpdateMatch(ctx context.Context, m *models.Match) error {
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE matches SET room_name = $2, motion = $3, info_slide = $4, scheduled_time = $5, status = $6,
			scores_released = $7, rankings_released = $8, tabulation_status = $9, updated_at = $10
		WHERE id = $1`,
		uuid.UUID(m.ID), m.Room, m.Motion, m.InfoSlide, nullTime(m.ScheduledTime), string(m.Status),
		m.ScoresReleased, m.RankingsReleased, string(m.Tabulation), m.UpdatedAt,
	)
	if err != nil {
		return mapErr(err, "update match")
	}
	return requireRow(res, "update match")
}

func (s *Store) FindMatch(ctx context.Context, matchID id.MatchID) (*models.Match, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, uuid.UUID(matchID))
	m, err := scanMatch(row)
	if err != nil {
		return nil, mapErr(err, "find match")
	}
	return m, nil
}

// FindSeriesForMatch resolves the parent series of a match. Inside a
// transaction the series row is share-locked so its format cannot change
// underneath an allocation.
func (s *Store) FindSeriesForMatch(ctx context.Context, matchID id.MatchID) (*models.MatchSeries, error) {
	query := `
		SELECT ` + prefixed("sr", seriesColumns) + `
		FROM match_series sr
		JOIN matches m ON m.series_id = sr.id
		WHERE m.id = $1`
	if inTx(ctx) {
		query += ` FOR SHARE OF sr`
	}
	sr, err := scanSeries(s.exec(ctx).QueryRowContext(ctx, query, uuid.UUID(matchID)))
	if err != nil {
		return nil, mapErr(err, "find series for match")
	}
	return sr, nil
}

func (s *Store) ListMatches(ctx context.Context, seriesID id.SeriesID) ([]*models.Match, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT `+matchColumns+` FROM matches WHERE series_id = $1 ORDER BY created_at ASC`, uuid.UUID(seriesID))
	if err != nil {
		return nil, mapErr(err, "list matches")
	}
	defer rows.Close()
	var out []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMatch cascades to teams, allocations and ballots. History rows
// survive with their allocation reference cleared.
func (s *Store) DeleteMatch(ctx context.Context, matchID id.MatchID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, uuid.UUID(matchID))
	if err != nil {
		return mapErr(err, "delete match")
	}
	return requireRow(res, "delete match")
}

const teamColumns = `id, match_id, two_team_position, four_team_position, team_name, institution, final_rank, total_speaker_points, created_at`

// teamOrder sorts teams in bench order within either format.
const teamOrder = `
	ORDER BY CASE COALESCE(two_team_position, four_team_position)
		WHEN 'government' THEN 1
		WHEN 'opening_government' THEN 1
		WHEN 'opposition' THEN 2
		WHEN 'opening_opposition' THEN 2
		WHEN 'closing_government' THEN 3
		WHEN 'closing_opposition' THEN 4
		ELSE 5 END, created_at ASC`

func scanTeam(row rowScanner) (*models.MatchTeam, error) {
	var (
		t               models.MatchTeam
		teamID, matchID uuid.UUID
		two, four       sql.NullString
		rank            sql.NullInt64
		points          sql.NullFloat64
	)
	if err := row.Scan(&teamID, &matchID, &two, &four, &t.TeamName, &t.Institution, &rank, &points, &t.CreatedAt); err != nil {
		return nil, err
	}
	pos, err := models.NewTeamPosition(two.String, four.String)
	if err != nil {
		return nil, fmt.Errorf("team %s: %w", teamID, err)
	}
	t.ID = id.TeamID(teamID)
	t.MatchID = id.MatchID(matchID)
	t.Position = pos
	if rank.Valid {
		r := int(rank.Int64)
		t.FinalRank = &r
	}
	if points.Valid {
		p := points.Float64
		t.TotalSpeakerPoints = &p
	}
	return &t, nil
}

func positionColumns(p models.TeamPosition) (sql.NullString, sql.NullString) {
	two, _ := p.TwoTeam()
	four, _ := p.FourTeam()
	return nullString(string(two)), nullString(string(four))
}

func nullRank(r *int) sql.NullInt64 {
	if r == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*r), Valid: true}
}

func nullPoints(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func (s *Store) CreateTeam(ctx context.Context, t *models.MatchTeam) error {
	two, four := positionColumns(t.Position)
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO match_teams (`+teamColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(t.ID), uuid.UUID(t.MatchID), two, four, t.TeamName, t.Institution,
		nullRank(t.FinalRank), nullPoints(t.TotalSpeakerPoints), t.CreatedAt,
	)
	return mapErr(err, "create team")
}

func (s *Store) UpdateTeam(ctx context.Context, t *models.MatchTeam) error {
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE match_teams SET team_name = $2, institution = $3 WHERE id = $1`,
		uuid.UUID(t.ID), t.TeamName, t.Institution,
	)
	if err != nil {
		return mapErr(err, "update team")
	}
	return requireRow(res, "update team")
}

func (s *Store) FindTeam(ctx context.Context, teamID id.TeamID) (*models.MatchTeam, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT `+teamColumns+` FROM match_teams WHERE id = $1`, uuid.UUID(teamID))
	t, err := scanTeam(row)
	if err != nil {
		return nil, mapErr(err, "find team")
	}
	return t, nil
}

// ListTeams returns a match's teams in bench order.
func (s *Store) ListTeams(ctx context.Context, matchID id.MatchID) ([]*models.MatchTeam, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT `+teamColumns+` FROM match_teams WHERE match_id = $1`+teamOrder, uuid.UUID(matchID))
	if err != nil {
		return nil, mapErr(err, "list teams")
	}
	defer rows.Close()
	var out []*models.MatchTeam
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTeam(ctx context.Context, teamID id.TeamID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM match_teams WHERE id = $1`, uuid.UUID(teamID))
	if err != nil {
		return mapErr(err, "delete team")
	}
	return requireRow(res, "delete team")
}

// DeleteTeamsForMatch removes every team of a match.
func (s *Store) DeleteTeamsForMatch(ctx context.Context, matchID id.MatchID) error {
	_, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM match_teams WHERE match_id = $1`, uuid.UUID(matchID))
	return mapErr(err, "delete teams")
}

// SaveTeamResults writes derived rank and points onto the match's teams.
// Teams absent from results are cleared.
func (s *Store) SaveTeamResults(ctx context.Context, matchID id.MatchID, results []models.TeamResult) error {
	ex := s.exec(ctx)
	if _, err := ex.ExecContext(ctx, `
		UPDATE match_teams SET final_rank = NULL, total_speaker_points = NULL WHERE match_id = $1`,
		uuid.UUID(matchID)); err != nil {
		return mapErr(err, "clear team results")
	}
	for _, r := range results {
		if _, err := ex.ExecContext(ctx, `
			UPDATE match_teams SET final_rank = $3, total_speaker_points = $4
			WHERE id = $1 AND match_id = $2`,
			uuid.UUID(r.TeamID), uuid.UUID(matchID), nullRank(r.FinalRank), nullPoints(r.TotalSpeakerPoints)); err != nil {
			return mapErr(err, "save team result")
		}
	}
	return nil
}
