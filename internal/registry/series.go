package registry

import (
	"context"
	"strings"
	"time"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/requestcontext"
)

type CreateSeriesRequest struct {
	Name               string
	Description        string
	RoundNumber        *int
	TeamFormat         models.TeamFormat
	AllowReplySpeeches bool
	IsBreakRound       bool
	Ruleset            string
}

// UpdateSeriesRequest carries optional changes. ClearRoundNumber removes the
// round number; RoundNumber sets it.
type UpdateSeriesRequest struct {
	Name               *string
	Description        *string
	RoundNumber        *int
	ClearRoundNumber   bool
	TeamFormat         *models.TeamFormat
	AllowReplySpeeches *bool
	IsBreakRound       *bool
	Ruleset            *string
}

func (s *Service) CreateSeries(ctx context.Context, eventID id.EventID, req CreateSeriesRequest) (*models.MatchSeries, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	sr, err := models.NewMatchSeries(id.NewSeriesID(), eventID, req.Name, req.TeamFormat, req.RoundNumber, requestcontext.UserID(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, asValidation(err)
	}
	sr.Description = strings.TrimSpace(req.Description)
	sr.AllowReplySpeeches = req.AllowReplySpeeches
	sr.IsBreakRound = req.IsBreakRound
	sr.Ruleset = strings.TrimSpace(req.Ruleset)
	if err := s.validateSeries(sr); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.ensureUnlocked(ctx, eventID); err != nil {
			return err
		}
		if err := s.store.CreateSeries(ctx, sr); err != nil {
			return translate(err, "event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "series_created", "series_id", sr.ID, "event_id", eventID, "team_format", sr.TeamFormat)
	return sr, nil
}

// UpdateSeries applies changes under a registry-wide transaction. A team
// format change is refused once any match below has an allocation; otherwise
// every match's default teams are rebuilt for the new format.
func (s *Service) UpdateSeries(ctx context.Context, seriesID id.SeriesID, req UpdateSeriesRequest) (*models.MatchSeries, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var updated *models.MatchSeries
	formatChanged := false
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sr, err := s.store.LockSeries(ctx, seriesID)
		if err != nil {
			return translate(err, "series")
		}
		if err := s.ensureUnlocked(ctx, sr.EventID); err != nil {
			return err
		}

		previousFormat := sr.TeamFormat
		applySeriesUpdate(sr, req)
		if err := s.validateSeries(sr); err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		if sr.TeamFormat != previousFormat {
			count, err := s.store.CountSeriesAllocations(ctx, seriesID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count allocations")
			}
			if count > 0 {
				return dErrors.New(dErrors.CodeConflictingState, "team format cannot change once matches have allocations")
			}
			if err := s.reseedTeams(ctx, seriesID, sr.TeamFormat, now); err != nil {
				return err
			}
			formatChanged = true
		}

		sr.UpdatedAt = now
		if err := s.store.UpdateSeries(ctx, sr); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update series")
		}
		updated = sr
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "series_updated", "series_id", seriesID, "format_changed", formatChanged)
	return updated, nil
}

func applySeriesUpdate(sr *models.MatchSeries, req UpdateSeriesRequest) {
	if req.Name != nil {
		sr.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		sr.Description = strings.TrimSpace(*req.Description)
	}
	if req.ClearRoundNumber {
		sr.RoundNumber = nil
	} else if req.RoundNumber != nil {
		n := *req.RoundNumber
		sr.RoundNumber = &n
	}
	if req.TeamFormat != nil {
		sr.TeamFormat = *req.TeamFormat
	}
	if req.AllowReplySpeeches != nil {
		sr.AllowReplySpeeches = *req.AllowReplySpeeches
	}
	if req.IsBreakRound != nil {
		sr.IsBreakRound = *req.IsBreakRound
	}
	if req.Ruleset != nil {
		sr.Ruleset = strings.TrimSpace(*req.Ruleset)
	}
}

func (s *Service) reseedTeams(ctx context.Context, seriesID id.SeriesID, format models.TeamFormat, now time.Time) error {
	matches, err := s.store.ListMatches(ctx, seriesID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list matches")
	}
	for _, m := range matches {
		if err := s.store.DeleteTeamsForMatch(ctx, m.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear teams")
		}
		for _, t := range models.DefaultTeams(m.ID, format, now) {
			if err := s.store.CreateTeam(ctx, t); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create team")
			}
		}
	}
	return nil
}

func (s *Service) validateSeries(sr *models.MatchSeries) error {
	if err := sr.Validate(); err != nil {
		return asValidation(err)
	}
	if sr.Ruleset != "" && s.rulesets != nil && !s.rulesets.Has(sr.Ruleset) {
		return dErrors.Newf(dErrors.CodeValidation, "unknown ruleset %q", sr.Ruleset)
	}
	return nil
}

func (s *Service) ensureUnlocked(ctx context.Context, eventID id.EventID) error {
	e, err := s.findEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if e.IsLocked {
		return dErrors.New(dErrors.CodeConflictingState, "event is locked")
	}
	return nil
}

func (s *Service) GetSeries(ctx context.Context, seriesID id.SeriesID) (*models.MatchSeries, error) {
	sr, err := s.store.FindSeries(ctx, seriesID)
	if err != nil {
		return nil, translate(err, "series")
	}
	return sr, nil
}

func (s *Service) ListSeries(ctx context.Context, eventID id.EventID) ([]*models.MatchSeries, error) {
	if _, err := s.findEvent(ctx, eventID); err != nil {
		return nil, err
	}
	out, err := s.store.ListSeries(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list series")
	}
	return out, nil
}

// DeleteSeries removes a series and its matches.
func (s *Service) DeleteSeries(ctx context.Context, seriesID id.SeriesID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sr, err := s.store.LockSeries(ctx, seriesID)
		if err != nil {
			return translate(err, "series")
		}
		if err := s.ensureUnlocked(ctx, sr.EventID); err != nil {
			return err
		}
		if err := s.store.DeleteSeries(ctx, seriesID); err != nil {
			return translate(err, "series")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "series_deleted", "series_id", seriesID)
	return nil
}
