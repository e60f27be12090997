package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

const allocationColumns = `id, match_id, user_id, guest_name, role, team_id, two_team_speaker_role, four_team_speaker_role, is_chair, was_checked_in, allocated_by, allocated_at, updated_at`

func scanAllocation(row rowScanner) (*models.Allocation, error) {
	var (
		a                              models.Allocation
		allocationID, matchID, allocBy uuid.UUID
		userID, teamID                 uuid.NullUUID
		guest, twoRole, fourRole       sql.NullString
	)
	if err := row.Scan(&allocationID, &matchID, &userID, &guest, &a.Role, &teamID, &twoRole, &fourRole,
		&a.IsChair, &a.WasCheckedIn, &allocBy, &a.AllocatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	var uid *id.UserID
	if userID.Valid {
		u := id.UserID(userID.UUID)
		uid = &u
	}
	participant, err := models.NewParticipant(uid, guest.String)
	if err != nil {
		return nil, fmt.Errorf("allocation %s: %w", allocationID, err)
	}
	role, err := models.NewSpeakerRole(twoRole.String, fourRole.String)
	if err != nil {
		return nil, fmt.Errorf("allocation %s: %w", allocationID, err)
	}
	a.ID = id.AllocationID(allocationID)
	a.MatchID = id.MatchID(matchID)
	a.AllocatedBy = id.UserID(allocBy)
	a.Participant = participant
	a.SpeakerRole = role
	if teamID.Valid {
		t := id.TeamID(teamID.UUID)
		a.TeamID = &t
	}
	return &a, nil
}

func participantColumns(p models.Participant) (uuid.NullUUID, sql.NullString) {
	if u, ok := p.UserID(); ok {
		return uuid.NullUUID{UUID: uuid.UUID(u), Valid: true}, sql.NullString{}
	}
	name, _ := p.GuestName()
	return uuid.NullUUID{}, nullString(name)
}

func speakerRoleColumns(r models.SpeakerRole) (sql.NullString, sql.NullString) {
	two, _ := r.TwoTeam()
	four, _ := r.FourTeam()
	return nullString(string(two)), nullString(string(four))
}

// CreateAllocation inserts an allocation. The unique placement index turns
// a duplicate (participant, role, speaker role) into ErrConflict.
func (s *Store) CreateAllocation(ctx context.Context, a *models.Allocation) error {
	userID, guest := participantColumns(a.Participant)
	two, four := speakerRoleColumns(a.SpeakerRole)
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO allocations (`+allocationColumns+`, participant_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.UUID(a.ID), uuid.UUID(a.MatchID), userID, guest, string(a.Role), nullUUID(a.TeamID), two, four,
		a.IsChair, a.WasCheckedIn, uuid.UUID(a.AllocatedBy), a.AllocatedAt, a.UpdatedAt, a.Participant.Key(),
	)
	return mapErr(err, "create allocation")
}

// UpdateAllocation rewrites the placement of an allocation. The participant
// is fixed at creation.
func (s *Store) UpdateAllocation(ctx context.Context, a *models.Allocation) error {
	two, four := speakerRoleColumns(a.SpeakerRole)
	res, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE allocations SET role = $2, team_id = $3, two_team_speaker_role = $4, four_team_speaker_role = $5,
			is_chair = $6, updated_at = $7
		WHERE id = $1`,
		uuid.UUID(a.ID), string(a.Role), nullUUID(a.TeamID), two, four, a.IsChair, a.UpdatedAt,
	)
	if err != nil {
		return mapErr(err, "update allocation")
	}
	return requireRow(res, "update allocation")
}

func (s *Store) FindAllocation(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error) {
	row := s.exec(ctx).QueryRowContext(ctx, `SELECT `+allocationColumns+` FROM allocations WHERE id = $1`, uuid.UUID(allocationID))
	a, err := scanAllocation(row)
	if err != nil {
		return nil, mapErr(err, "find allocation")
	}
	return a, nil
}

func (s *Store) ListAllocations(ctx context.Context, matchID id.MatchID) ([]*models.Allocation, error) {
	return s.queryAllocations(ctx, "list allocations", `
		SELECT `+allocationColumns+` FROM allocations
		WHERE match_id = $1
		ORDER BY allocated_at ASC, id ASC`, uuid.UUID(matchID))
}

// ListSeriesAllocations returns every allocation under a series.
func (s *Store) ListSeriesAllocations(ctx context.Context, seriesID id.SeriesID) ([]*models.Allocation, error) {
	return s.queryAllocations(ctx, "list series allocations", `
		SELECT `+prefixed("a", allocationColumns)+` FROM allocations a
		JOIN matches m ON m.id = a.match_id
		WHERE m.series_id = $1
		ORDER BY a.allocated_at ASC, a.id ASC`, uuid.UUID(seriesID))
}

// ListUserAllocations returns a registered user's allocations, optionally
// restricted to one event.
func (s *Store) ListUserAllocations(ctx context.Context, userID id.UserID, eventID *id.EventID) ([]*models.Allocation, error) {
	if eventID == nil {
		return s.queryAllocations(ctx, "list user allocations", `
			SELECT `+allocationColumns+` FROM allocations
			WHERE user_id = $1
			ORDER BY allocated_at ASC, id ASC`, uuid.UUID(userID))
	}
	return s.queryAllocations(ctx, "list user allocations", `
		SELECT `+prefixed("a", allocationColumns)+` FROM allocations a
		JOIN matches m ON m.id = a.match_id
		JOIN match_series sr ON sr.id = m.series_id
		WHERE a.user_id = $1 AND sr.event_id = $2
		ORDER BY a.allocated_at ASC, a.id ASC`, uuid.UUID(userID), uuid.UUID(*eventID))
}

func (s *Store) queryAllocations(ctx context.Context, op, query string, args ...any) ([]*models.Allocation, error) {
	rows, err := s.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err, op)
	}
	defer rows.Close()
	var out []*models.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAllocation removes the allocation; its ballot and the scores given
// to it cascade, and history rows keep their data with the reference nulled.
func (s *Store) DeleteAllocation(ctx context.Context, allocationID id.AllocationID) error {
	res, err := s.exec(ctx).ExecContext(ctx, `DELETE FROM allocations WHERE id = $1`, uuid.UUID(allocationID))
	if err != nil {
		return mapErr(err, "delete allocation")
	}
	return requireRow(res, "delete allocation")
}

const historyColumns = `id, match_id, allocation_id, action, participant, previous_role, new_role, previous_team_id, new_team_id, changed_by, changed_at, notes`

func nullRole(r *models.AllocationRole) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}

func rolePtr(s sql.NullString) *models.AllocationRole {
	if !s.Valid {
		return nil
	}
	r := models.AllocationRole(s.String)
	return &r
}

func teamPtr(u uuid.NullUUID) *id.TeamID {
	if !u.Valid {
		return nil
	}
	t := id.TeamID(u.UUID)
	return &t
}

func (s *Store) AppendHistory(ctx context.Context, h *models.AllocationHistory) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO allocation_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(h.ID), uuid.UUID(h.MatchID), nullUUID(h.AllocationID), string(h.Action), h.Participant,
		nullRole(h.PreviousRole), nullRole(h.NewRole), nullUUID(h.PreviousTeamID), nullUUID(h.NewTeamID),
		uuid.UUID(h.ChangedBy), h.ChangedAt, h.Notes,
	)
	return mapErr(err, "append history")
}

// ListHistory pages a match's audit trail oldest first and reports the total.
func (s *Store) ListHistory(ctx context.Context, matchID id.MatchID, limit, offset int) ([]*models.AllocationHistory, int, error) {
	ex := s.exec(ctx)
	var total int
	if err := ex.QueryRowContext(ctx, `SELECT COUNT(*) FROM allocation_history WHERE match_id = $1`, uuid.UUID(matchID)).Scan(&total); err != nil {
		return nil, 0, mapErr(err, "count history")
	}
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	rows, err := ex.QueryContext(ctx, `
		SELECT `+historyColumns+` FROM allocation_history
		WHERE match_id = $1
		ORDER BY seq ASC
		LIMIT $2 OFFSET $3`, uuid.UUID(matchID), lim, offset)
	if err != nil {
		return nil, 0, mapErr(err, "list history")
	}
	defer rows.Close()
	out := []*models.AllocationHistory{}
	for rows.Next() {
		var (
			h                               models.AllocationHistory
			historyID, mID, changedBy       uuid.UUID
			allocationID, prevTeam, newTeam uuid.NullUUID
			prevRole, newRole               sql.NullString
		)
		if err := rows.Scan(&historyID, &mID, &allocationID, &h.Action, &h.Participant, &prevRole, &newRole,
			&prevTeam, &newTeam, &changedBy, &h.ChangedAt, &h.Notes); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		h.ID = id.HistoryID(historyID)
		h.MatchID = id.MatchID(mID)
		h.ChangedBy = id.UserID(changedBy)
		if allocationID.Valid {
			a := id.AllocationID(allocationID.UUID)
			h.AllocationID = &a
		}
		h.PreviousRole = rolePtr(prevRole)
		h.NewRole = rolePtr(newRole)
		h.PreviousTeamID = teamPtr(prevTeam)
		h.NewTeamID = teamPtr(newTeam)
		out = append(out, &h)
	}
	return out, total, rows.Err()
}
