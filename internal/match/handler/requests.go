package handler

import (
	"strings"
	"time"

	"tabrela/internal/models"
	dErrors "tabrela/pkg/domain-errors"
)

// MatchDetailsRequest creates or edits a match. Absent fields are left
// unchanged.
type MatchDetailsRequest struct {
	RoomName      *string    `json:"room_name"`
	Motion        *string    `json:"motion"`
	InfoSlide     *string    `json:"info_slide"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

func (r *MatchDetailsRequest) Validate() error { return nil }

func (r *MatchDetailsRequest) details() models.MatchDetails {
	return models.MatchDetails{
		Room:          r.RoomName,
		Motion:        r.Motion,
		InfoSlide:     r.InfoSlide,
		ScheduledTime: r.ScheduledTime,
	}
}

// TransitionRequest moves a match to a new status.
type TransitionRequest struct {
	Status models.MatchStatus `json:"status"`
}

func (r *TransitionRequest) Validate() error {
	r.Status = models.MatchStatus(strings.TrimSpace(string(r.Status)))
	if !r.Status.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown match status %q", r.Status)
	}
	return nil
}

// ReleaseRequest toggles one release gate.
type ReleaseRequest struct {
	Gate     models.ReleaseGate `json:"gate"`
	Released *bool              `json:"released"`
}

func (r *ReleaseRequest) Validate() error {
	if !r.Gate.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "gate must be scores or rankings")
	}
	if r.Released == nil {
		return dErrors.New(dErrors.CodeValidation, "released is required")
	}
	return nil
}

// AddTeamRequest fills a position slot of a match.
type AddTeamRequest struct {
	Position    string `json:"position"`
	TeamName    string `json:"team_name"`
	Institution string `json:"institution"`

	position models.TeamPosition
}

func (r *AddTeamRequest) Validate() error {
	p, err := models.ParseTeamPosition(strings.TrimSpace(r.Position))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "position must name a team position")
	}
	r.position = p
	return nil
}

// UpdateTeamRequest renames a team.
type UpdateTeamRequest struct {
	TeamName    *string `json:"team_name"`
	Institution *string `json:"institution"`
}

func (r *UpdateTeamRequest) Validate() error {
	if r.TeamName == nil && r.Institution == nil {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	return nil
}
