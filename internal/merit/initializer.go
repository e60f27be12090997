// Package merit creates the merit ledger row for newly verified users. Point
// bookkeeping itself belongs to the merit service.
package merit

import (
	"context"
	"log/slog"
	"time"

	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/requestcontext"
)

// LedgerStore creates a zero-point ledger row and reports whether it was new.
type LedgerStore interface {
	CreateLedgerEntry(ctx context.Context, userID id.UserID, now time.Time) (bool, error)
}

type Initializer struct {
	store  LedgerStore
	logger *slog.Logger
}

func NewInitializer(store LedgerStore, logger *slog.Logger) *Initializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Initializer{store: store, logger: logger}
}

// OnEmailVerified handles the identity provider's verification event. It is
// idempotent: repeated deliveries leave a single ledger row. Unverified
// events are ignored.
func (i *Initializer) OnEmailVerified(ctx context.Context, userID id.UserID, verified bool) (bool, error) {
	if userID.IsNil() {
		return false, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if !verified {
		return false, nil
	}
	created, err := i.store.CreateLedgerEntry(ctx, userID, requestcontext.Now(ctx))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create merit ledger entry")
	}
	if created {
		i.logger.InfoContext(ctx, "merit ledger initialized",
			"event", "merit_ledger_initialized",
			"user_id", userID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return created, nil
}
