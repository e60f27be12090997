// Package registry owns events and match series, the leaves of the
// ownership tree.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/sentinel"
	"tabrela/pkg/requestcontext"
)

type Store interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	UpdateEvent(ctx context.Context, e *models.Event) error
	FindEvent(ctx context.Context, eventID id.EventID) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	DeleteEvent(ctx context.Context, eventID id.EventID) error

	CreateSeries(ctx context.Context, s *models.MatchSeries) error
	UpdateSeries(ctx context.Context, s *models.MatchSeries) error
	FindSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error)
	LockSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error)
	ListSeries(ctx context.Context, eventID id.EventID) ([]*models.MatchSeries, error)
	DeleteSeries(ctx context.Context, seriesID id.SeriesID) error
	CountSeriesAllocations(ctx context.Context, seriesID id.SeriesID) (int, error)

	ListMatches(ctx context.Context, seriesID id.SeriesID) ([]*models.Match, error)
	DeleteTeamsForMatch(ctx context.Context, matchID id.MatchID) error
	CreateTeam(ctx context.Context, t *models.MatchTeam) error
}

// TxRunner opens a registry-wide transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RulesetCatalog reports which allocation rulesets a series may name.
type RulesetCatalog interface {
	Has(name string) bool
}

// Service manages events and series.
type Service struct {
	store    Store
	tx       TxRunner
	rulesets RulesetCatalog
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRulesets enables validation of series ruleset names.
func WithRulesets(catalog RulesetCatalog) Option {
	return func(s *Service) {
		s.rulesets = catalog
	}
}

func New(store Store, tx TxRunner, opts ...Option) *Service {
	s := &Service{store: store, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateEventRequest struct {
	Title       string
	Type        models.EventType
	Date        time.Time
	Description string
	Location    string
}

type UpdateEventRequest struct {
	Title       *string
	Type        *models.EventType
	Date        *time.Time
	Description *string
	Location    *string
}

func (s *Service) CreateEvent(ctx context.Context, req CreateEventRequest) (*models.Event, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	e, err := models.NewEvent(id.NewEventID(), req.Title, req.Type, req.Date, requestcontext.UserID(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, asValidation(err)
	}
	e.Description = strings.TrimSpace(req.Description)
	e.Location = strings.TrimSpace(req.Location)
	if err := e.Validate(); err != nil {
		return nil, asValidation(err)
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create event")
	}
	s.logAudit(ctx, "event_created", "event_id", e.ID)
	return e, nil
}

func (s *Service) UpdateEvent(ctx context.Context, eventID id.EventID, req UpdateEventRequest) (*models.Event, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var updated *models.Event
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		e, err := s.findEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if req.Title != nil {
			e.Title = strings.TrimSpace(*req.Title)
		}
		if req.Type != nil {
			e.Type = *req.Type
		}
		if req.Date != nil {
			e.Date = *req.Date
		}
		if req.Description != nil {
			e.Description = strings.TrimSpace(*req.Description)
		}
		if req.Location != nil {
			e.Location = strings.TrimSpace(*req.Location)
		}
		if err := e.Validate(); err != nil {
			return asValidation(err)
		}
		e.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateEvent(ctx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event")
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "event_updated", "event_id", eventID)
	return updated, nil
}

// SetLocked freezes or thaws allocation mutation below an event. Setting the
// current value again is a no-op.
func (s *Service) SetLocked(ctx context.Context, eventID id.EventID, locked bool) (*models.Event, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *models.Event
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		e, err := s.findEvent(ctx, eventID)
		if err != nil {
			return err
		}
		out = e
		if e.IsLocked == locked {
			return nil
		}
		e.IsLocked = locked
		e.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateEvent(ctx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event lock")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "event_lock_changed", "event_id", eventID, "locked", locked)
	return out, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	return s.findEvent(ctx, eventID)
}

func (s *Service) ListEvents(ctx context.Context) ([]*models.Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// DeleteEvent removes an event and everything it owns.
func (s *Service) DeleteEvent(ctx context.Context, eventID id.EventID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteEvent(ctx, eventID); err != nil {
			return translate(err, "event")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "event_deleted", "event_id", eventID)
	return nil
}

func (s *Service) findEvent(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	e, err := s.store.FindEvent(ctx, eventID)
	if err != nil {
		return nil, translate(err, "event")
	}
	return e, nil
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

// asValidation converts model invariant failures into validation errors.
func asValidation(err error) error {
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}

// translate maps store sentinels to domain errors; domain errors pass through.
func translate(err error, what string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
}
