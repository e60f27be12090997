package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

const eventColumns = `id, title, event_type, event_date, description, location, created_by, is_locked, created_at, updated_at`

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e                  models.Event
		eventID, createdBy uuid.UUID
	)
	if err := row.Scan(&eventID, &e.Title, &e.Type, &e.Date, &e.Description, &e.Location, &createdBy, &e.IsLocked, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.ID = id.EventID(eventID)
	e.CreatedBy = id.UserID(createdBy)
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(e.ID), e.Title, string(e.Type), e.Date, e.Description, e.Location, uuid.UUID(e.CreatedBy), e.IsLocked, e.CreatedAt, e.UpdatedAt,
	)
	return mapErr(err, "create event")
}

func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE events SET title = $2, event_type = $3, event_date = $4, description = $5,
			location = $6, is_locked = $7, updated_at = $8
		WHERE id = $1`,
		uuid.UUID(e.ID), e.Title, string(e.Type), e.Date, e.Description, e.Location, e.IsLocked, e.UpdatedAt,
	)
	if err != nil {
		return mapErr(err, "update event")
	}
	return requireRow(res, "update event")
}

func (s *Store) FindEvent(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, uuid.UUID(eventID))
	e, err := scanEvent(row)
	if err != nil {
		return nil, mapErr(err, "find event")
	}
	return e, nil
}

// ListEvents returns events newest first.
func (s *Store) ListEvents(ctx context.Context) ([]*models.Event, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date DESC, created_at DESC`)
	if err != nil {
		return nil, mapErr(err, "list events")
	}
	defer rows.Close()
	out := []*models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEvent(ctx context.Context, eventID id.EventID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, uuid.UUID(eventID))
	if err != nil {
		return mapErr(err, "delete event")
	}
	return requireRow(res, "delete event")
}

const seriesColumns = `id, event_id, name, description, round_number, team_format, allow_reply_speeches, is_break_round, ruleset, created_by, created_at, updated_at`

func scanSeries(row rowScanner) (*models.MatchSeries, error) {
	var (
		sr                           models.MatchSeries
		seriesID, eventID, createdBy uuid.UUID
		round                        sql.NullInt64
	)
	if err := row.Scan(&seriesID, &eventID, &sr.Name, &sr.Description, &round, &sr.TeamFormat,
		&sr.AllowReplySpeeches, &sr.IsBreakRound, &sr.Ruleset, &createdBy, &sr.CreatedAt, &sr.UpdatedAt); err != nil {
		return nil, err
	}
	sr.ID = id.SeriesID(seriesID)
	sr.EventID = id.EventID(eventID)
	sr.CreatedBy = id.UserID(createdBy)
	if round.Valid {
		n := int(round.Int64)
		sr.RoundNumber = &n
	}
	return &sr, nil
}

func roundNumber(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func (s *Store) CreateSeries(ctx context.Context, sr *models.MatchSeries) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO match_series (`+seriesColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(sr.ID), uuid.UUID(sr.EventID), sr.Name, sr.Description, roundNumber(sr.RoundNumber), string(sr.TeamFormat),
		sr.AllowReplySpeeches, sr.IsBreakRound, sr.Ruleset, uuid.UUID(sr.CreatedBy), sr.CreatedAt, sr.UpdatedAt,
	)
	return mapErr(err, "create series")
}

func (s *Store) UpdateSeries(ctx context.Context, sr *models.MatchSeries) error {
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE match_series SET name = $2, description = $3, round_number = $4, team_format = $5,
			allow_reply_speeches = $6, is_break_round = $7, ruleset = $8, updated_at = $9
		WHERE id = $1`,
		uuid.UUID(sr.ID), sr.Name, sr.Description, roundNumber(sr.RoundNumber), string(sr.TeamFormat),
		sr.AllowReplySpeeches, sr.IsBreakRound, sr.Ruleset, sr.UpdatedAt,
	)
	if err != nil {
		return mapErr(err, "update series")
	}
	return requireRow(res, "update series")
}

func (s *Store) FindSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM match_series WHERE id = $1`, uuid.UUID(seriesID))
	sr, err := scanSeries(row)
	if err != nil {
		return nil, mapErr(err, "find series")
	}
	return sr, nil
}

// LockSeries reads a series FOR UPDATE so a format change and a new
// allocation beneath it cannot interleave.
func (s *Store) LockSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM match_series WHERE id = $1 FOR UPDATE`, uuid.UUID(seriesID))
	sr, err := scanSeries(row)
	if err != nil {
		return nil, mapErr(err, "lock series")
	}
	return sr, nil
}

// ListSeries orders by round number (unnumbered last), then creation time.
func (s *Store) ListSeries(ctx context.Context, eventID id.EventID) ([]*models.MatchSeries, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT `+seriesColumns+` FROM match_series
		WHERE event_id = $1
		ORDER BY round_number ASC NULLS LAST, created_at ASC`, uuid.UUID(eventID))
	if err != nil {
		return nil, mapErr(err, "list series")
	}
	defer rows.Close()
	var out []*models.MatchSeries
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSeries(ctx context.Context, seriesID id.SeriesID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM match_series WHERE id = $1`, uuid.UUID(seriesID))
	if err != nil {
		return mapErr(err, "delete series")
	}
	return requireRow(res, "delete series")
}

// CountSeriesAllocations counts allocations across every match of a series.
func (s *Store) CountSeriesAllocations(ctx context.Context, seriesID id.SeriesID) (int, error) {
	var n int
	err := s.exec(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM allocations a
		JOIN matches m ON m.id = a.match_id
		WHERE m.series_id = $1`, uuid.UUID(seriesID)).Scan(&n)
	if err != nil {
		return 0, mapErr(err, "count series allocations")
	}
	return n, nil
}
