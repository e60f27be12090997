package models

import (
	"time"

	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

// Allocation assigns one participant to one role in a match.
//
// Invariants:
//   - A speaker references a team and a speaker role of the series' format
//   - Adjudicators and resource members reference neither
//   - Only a voting adjudicator may be chair
type Allocation struct {
	ID           id.AllocationID `json:"id"`
	MatchID      id.MatchID      `json:"match_id"`
	Participant  Participant     `json:"participant"`
	Role         AllocationRole  `json:"role"`
	TeamID       *id.TeamID      `json:"team_id,omitempty"`
	SpeakerRole  SpeakerRole     `json:"speaker_role"`
	IsChair      bool            `json:"is_chair"`
	WasCheckedIn bool            `json:"was_checked_in"`
	AllocatedBy  id.UserID       `json:"allocated_by"`
	AllocatedAt  time.Time       `json:"allocated_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Placement is the role-dependent part of an allocation: what changes on a
// reassignment or a swap.
type Placement struct {
	Role        AllocationRole
	TeamID      *id.TeamID
	SpeakerRole SpeakerRole
	IsChair     bool
}

func (a *Allocation) Placement() Placement {
	var team *id.TeamID
	if a.TeamID != nil {
		t := *a.TeamID
		team = &t
	}
	return Placement{Role: a.Role, TeamID: team, SpeakerRole: a.SpeakerRole, IsChair: a.IsChair}
}

func (a *Allocation) ApplyPlacement(p Placement, now time.Time) {
	a.Role = p.Role
	a.TeamID = p.TeamID
	a.SpeakerRole = p.SpeakerRole
	a.IsChair = p.IsChair
	a.UpdatedAt = now
}

// ValidateShape checks role/team coherence independent of the match's teams.
func (p Placement) ValidateShape(format TeamFormat) error {
	if !p.Role.IsValid() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "invalid allocation role %q", p.Role)
	}
	if p.Role == RoleSpeaker {
		if p.TeamID == nil || p.TeamID.IsNil() {
			return dErrors.New(dErrors.CodeInvariantViolation, "speaker allocation requires a team")
		}
		if p.SpeakerRole.IsZero() {
			return dErrors.New(dErrors.CodeInvariantViolation, "speaker allocation requires a speaker role")
		}
		if !p.SpeakerRole.IsValid() {
			return dErrors.New(dErrors.CodeInvariantViolation, "speaker role must come from exactly one format")
		}
		if p.SpeakerRole.Format() != format {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "speaker role %s is not part of the %s vocabulary", p.SpeakerRole, format)
		}
		if p.IsChair {
			return dErrors.New(dErrors.CodeInvariantViolation, "only a voting adjudicator can chair")
		}
		return nil
	}
	if p.TeamID != nil {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "%s allocation cannot reference a team", p.Role)
	}
	if !p.SpeakerRole.IsZero() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "%s allocation cannot carry a speaker role", p.Role)
	}
	if p.IsChair && p.Role != RoleVotingAdjudicator {
		return dErrors.New(dErrors.CodeInvariantViolation, "only a voting adjudicator can chair")
	}
	return nil
}

func NewAllocation(allocationID id.AllocationID, matchID id.MatchID, participant Participant, p Placement, format TeamFormat, allocatedBy id.UserID, now time.Time) (*Allocation, error) {
	if participant.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "participant requires a user id or a guest name")
	}
	if err := p.ValidateShape(format); err != nil {
		return nil, err
	}
	a := &Allocation{
		ID:          allocationID,
		MatchID:     matchID,
		Participant: participant,
		AllocatedBy: allocatedBy,
		AllocatedAt: now,
	}
	a.ApplyPlacement(p, now)
	return a, nil
}

// AllocationHistory is an append-only audit row. AllocationID is nulled when
// the allocation is deleted; the row itself is never removed.
type AllocationHistory struct {
	ID             id.HistoryID     `json:"id"`
	MatchID        id.MatchID       `json:"match_id"`
	AllocationID   *id.AllocationID `json:"allocation_id"`
	Action         HistoryAction    `json:"action"`
	Participant    string           `json:"participant"`
	PreviousRole   *AllocationRole  `json:"previous_role"`
	NewRole        *AllocationRole  `json:"new_role"`
	PreviousTeamID *id.TeamID       `json:"previous_team_id"`
	NewTeamID      *id.TeamID       `json:"new_team_id"`
	ChangedBy      id.UserID        `json:"changed_by"`
	ChangedAt      time.Time        `json:"changed_at"`
	Notes          string           `json:"notes,omitempty"`
}

// NewHistory records a transition from prev to next; either may be nil for
// creation and deletion.
func NewHistory(action HistoryAction, a *Allocation, prev, next *Placement, changedBy id.UserID, notes string, now time.Time) *AllocationHistory {
	allocationID := a.ID
	h := &AllocationHistory{
		ID:           id.NewHistoryID(),
		MatchID:      a.MatchID,
		AllocationID: &allocationID,
		Action:       action,
		Participant:  a.Participant.String(),
		ChangedBy:    changedBy,
		ChangedAt:    now,
		Notes:        notes,
	}
	if prev != nil {
		role := prev.Role
		h.PreviousRole = &role
		h.PreviousTeamID = prev.TeamID
	}
	if next != nil {
		role := next.Role
		h.NewRole = &role
		h.NewTeamID = next.TeamID
	}
	return h
}
