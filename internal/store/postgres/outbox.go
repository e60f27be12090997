package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
)

// AppendOutbox records an outbound event inside the caller's transaction.
func (s *Store) AppendOutbox(ctx context.Context, ev models.OutboundEvent) error {
	_, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO outbox (id, kind, entity_id, match_id, state, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, string(ev.Kind), ev.EntityID, uuid.UUID(ev.MatchID), ev.State, ev.OccurredAt,
	)
	return mapErr(err, "append outbox")
}

// PendingOutbox returns unsent events oldest first.
func (s *Store) PendingOutbox(ctx context.Context, limit int) ([]models.OutboundEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.exec(ctx).QueryContext(ctx, `
		SELECT id, kind, entity_id, match_id, state, occurred_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY seq ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, mapErr(err, "list pending outbox")
	}
	defer rows.Close()
	var out []models.OutboundEvent
	for rows.Next() {
		var (
			ev      models.OutboundEvent
			matchID uuid.UUID
		)
		if err := rows.Scan(&ev.ID, &ev.Kind, &ev.EntityID, &matchID, &ev.State, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		ev.MatchID = id.MatchID(matchID)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) MarkOutboxSent(ctx context.Context, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.exec(ctx).ExecContext(ctx, `
		UPDATE outbox SET sent_at = $2 WHERE id = ANY($1) AND sent_at IS NULL`,
		pq.Array(ids), now,
	)
	return mapErr(err, "mark outbox sent")
}

// CreateLedgerEntry creates the zero-point merit row unless one exists.
func (s *Store) CreateLedgerEntry(ctx context.Context, userID id.UserID, now time.Time) (bool, error) {
	res, err := s.exec(ctx).ExecContext(ctx, `
		INSERT INTO merit_ledger (user_id, points, created_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.UUID(userID), now,
	)
	if err != nil {
		return false, mapErr(err, "create ledger entry")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create ledger entry: %w", err)
	}
	return n == 1, nil
}
