package handler

import (
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

type TeamRank struct {
	TeamID id.TeamID `json:"team_id"`
	Rank   int       `json:"rank"`
}

// ResolveRequest assigns final ranks to every team of an unresolved match.
type ResolveRequest struct {
	Ranks []TeamRank `json:"ranks"`
}

func (r *ResolveRequest) Validate() error {
	if len(r.Ranks) == 0 {
		return dErrors.New(dErrors.CodeValidation, "ranks are required")
	}
	seen := make(map[id.TeamID]bool, len(r.Ranks))
	for _, tr := range r.Ranks {
		if tr.TeamID.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "team_id is required")
		}
		if seen[tr.TeamID] {
			return dErrors.Newf(dErrors.CodeValidation, "team %s is ranked twice", tr.TeamID)
		}
		seen[tr.TeamID] = true
	}
	return nil
}

func (r *ResolveRequest) ranks() map[id.TeamID]int {
	out := make(map[id.TeamID]int, len(r.Ranks))
	for _, tr := range r.Ranks {
		out[tr.TeamID] = tr.Rank
	}
	return out
}
