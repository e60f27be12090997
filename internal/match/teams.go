package match

import (
	"context"
	"errors"
	"strings"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
	"tabrela/pkg/platform/sentinel"
	"tabrela/pkg/requestcontext"
)

type UpdateTeamRequest struct {
	TeamName    *string
	Institution *string
}

// AddTeam fills a position slot. Each slot holds at most one team.
func (s *Service) AddTeam(ctx context.Context, matchID id.MatchID, position models.TeamPosition, name, institution string) (*models.MatchTeam, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *models.MatchTeam
	err := s.tx.RunInMatchTx(ctx, matchID, func(ctx context.Context) error {
		m, err := s.findMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status.IsTerminal() {
			return dErrors.Newf(dErrors.CodeConflictingState, "teams cannot be added to a %s match", m.Status)
		}
		sr, err := s.store.FindSeriesForMatch(ctx, matchID)
		if err != nil {
			return translate(err, "series")
		}
		t, err := models.NewMatchTeam(id.NewTeamID(), matchID, sr.TeamFormat, position, name, institution, requestcontext.Now(ctx))
		if err != nil {
			return asValidation(err)
		}
		if err := s.store.CreateTeam(ctx, t); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeConflictingState, "position %s already has a team", position)
			}
			return translate(err, "team position "+position.String())
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, translate(err, "match")
	}
	s.logAudit(ctx, "team_added", "match_id", matchID, "team_id", out.ID, "position", position)
	return out, nil
}

// UpdateTeam renames a team. Position and results are not editable here.
func (s *Service) UpdateTeam(ctx context.Context, teamID id.TeamID, req UpdateTeamRequest) (*models.MatchTeam, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	t, err := s.store.FindTeam(ctx, teamID)
	if err != nil {
		return nil, translate(err, "team")
	}
	var out *models.MatchTeam
	err = s.tx.RunInMatchTx(ctx, t.MatchID, func(ctx context.Context) error {
		t, err := s.store.FindTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if req.TeamName != nil {
			t.TeamName = strings.TrimSpace(*req.TeamName)
		}
		if req.Institution != nil {
			t.Institution = strings.TrimSpace(*req.Institution)
		}
		if len(t.TeamName) > models.MaxTitleLength || len(t.Institution) > models.MaxTitleLength {
			return dErrors.New(dErrors.CodeValidation, "team name and institution must be 200 characters or less")
		}
		if err := s.store.UpdateTeam(ctx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update team")
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, translate(err, "team")
	}
	return out, nil
}

// RemoveTeam deletes a team from a draft match that no allocation references.
func (s *Service) RemoveTeam(ctx context.Context, teamID id.TeamID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	t, err := s.store.FindTeam(ctx, teamID)
	if err != nil {
		return translate(err, "team")
	}
	err = s.tx.RunInMatchTx(ctx, t.MatchID, func(ctx context.Context) error {
		m, err := s.findMatch(ctx, t.MatchID)
		if err != nil {
			return err
		}
		if m.Status != models.MatchDraft {
			return dErrors.New(dErrors.CodeConflictingState, "teams can only be removed from draft matches")
		}
		allocations, err := s.store.ListAllocations(ctx, t.MatchID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
		}
		for _, a := range allocations {
			if a.TeamID != nil && *a.TeamID == teamID {
				return dErrors.New(dErrors.CodeConflictingState, "team still has allocated speakers")
			}
		}
		return s.store.DeleteTeam(ctx, teamID)
	})
	if err != nil {
		return translate(err, "team")
	}
	s.logAudit(ctx, "team_removed", "match_id", t.MatchID, "team_id", teamID)
	return nil
}
