package models

import (
	"strings"
	"time"

	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

// TabulationStatus records the last aggregation outcome stored on a match.
type TabulationStatus string

const (
	TabulationPending    TabulationStatus = ""
	TabulationResolved   TabulationStatus = "resolved"
	TabulationUnresolved TabulationStatus = "unresolved"
)

// Match is a single debate inside a series.
//
// Invariants:
//   - Status moves forward one step at a time; cancelled from any non-terminal state
//   - Release gates change only once completed and never return to false
type Match struct {
	ID               id.MatchID       `json:"id"`
	SeriesID         id.SeriesID      `json:"series_id"`
	Room             string           `json:"room_name,omitempty"`
	Motion           string           `json:"motion,omitempty"`
	InfoSlide        string           `json:"info_slide,omitempty"`
	ScheduledTime    *time.Time       `json:"scheduled_time,omitempty"`
	Status           MatchStatus      `json:"status"`
	ScoresReleased   bool             `json:"scores_released"`
	RankingsReleased bool             `json:"rankings_released"`
	Tabulation       TabulationStatus `json:"tabulation_status,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func NewMatch(matchID id.MatchID, seriesID id.SeriesID, now time.Time) *Match {
	return &Match{
		ID:        matchID,
		SeriesID:  seriesID,
		Status:    MatchDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the match to target, leaving it unchanged on failure.
func (m *Match) Transition(target MatchStatus, now time.Time) error {
	if !target.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown match status %q", target)
	}
	if !m.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeConflictingState, "cannot move match from %s to %s", m.Status, target)
	}
	m.Status = target
	m.UpdatedAt = now
	return nil
}

// ReleaseGate names one of the two independent visibility flags.
type ReleaseGate string

const (
	GateScores   ReleaseGate = "scores"
	GateRankings ReleaseGate = "rankings"
)

func (g ReleaseGate) IsValid() bool { return g == GateScores || g == GateRankings }

// SetRelease applies a release toggle. It reports whether the flag changed;
// setting a gate to its current value is a no-op.
func (m *Match) SetRelease(gate ReleaseGate, value bool, now time.Time) (bool, error) {
	if !gate.IsValid() {
		return false, dErrors.Newf(dErrors.CodeValidation, "unknown release gate %q", gate)
	}
	if m.Status != MatchCompleted {
		return false, dErrors.New(dErrors.CodeInvalidState, "results can only be released once the match is completed")
	}
	flag := &m.ScoresReleased
	if gate == GateRankings {
		flag = &m.RankingsReleased
	}
	if *flag == value {
		return false, nil
	}
	if !value {
		return false, dErrors.Newf(dErrors.CodeConflictingState, "%s release cannot be withdrawn", gate)
	}
	*flag = true
	m.UpdatedAt = now
	return true, nil
}

// MatchDetails is the mutable descriptive part of a match.
type MatchDetails struct {
	Room          *string
	Motion        *string
	InfoSlide     *string
	ScheduledTime *time.Time
}

func (m *Match) ApplyDetails(d MatchDetails, now time.Time) error {
	if d.Room != nil {
		m.Room = strings.TrimSpace(*d.Room)
	}
	if d.Motion != nil {
		m.Motion = strings.TrimSpace(*d.Motion)
	}
	if d.InfoSlide != nil {
		m.InfoSlide = strings.TrimSpace(*d.InfoSlide)
	}
	if d.ScheduledTime != nil {
		t := *d.ScheduledTime
		m.ScheduledTime = &t
	}
	if len(m.Motion) > MaxDescriptionLength || len(m.InfoSlide) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "motion and info slide must be 5000 characters or less")
	}
	if len(m.Room) > MaxTitleLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "room name must be 200 characters or less")
	}
	m.UpdatedAt = now
	return nil
}

// MatchTeam occupies one position slot of a match.
//
// Invariants:
//   - Position belongs to the series' team format vocabulary
//   - FinalRank and TotalSpeakerPoints are written only by tabulation
type MatchTeam struct {
	ID                 id.TeamID    `json:"id"`
	MatchID            id.MatchID   `json:"match_id"`
	Position           TeamPosition `json:"position"`
	TeamName           string       `json:"team_name,omitempty"`
	Institution        string       `json:"institution,omitempty"`
	FinalRank          *int         `json:"final_rank"`
	TotalSpeakerPoints *float64     `json:"total_speaker_points"`
	CreatedAt          time.Time    `json:"created_at"`
}

func NewMatchTeam(teamID id.TeamID, matchID id.MatchID, format TeamFormat, position TeamPosition, name, institution string, now time.Time) (*MatchTeam, error) {
	if !position.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "team position is required")
	}
	if position.Format() != format {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "position %s does not belong to the %s format", position, format)
	}
	t := &MatchTeam{
		ID:          teamID,
		MatchID:     matchID,
		Position:    position,
		TeamName:    strings.TrimSpace(name),
		Institution: strings.TrimSpace(institution),
		CreatedAt:   now,
	}
	if len(t.TeamName) > MaxTitleLength || len(t.Institution) > MaxTitleLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "team name and institution must be 200 characters or less")
	}
	return t, nil
}

// MissingPositions lists the format's slots not covered by teams.
func MissingPositions(format TeamFormat, teams []*MatchTeam) []string {
	covered := make(map[TeamPosition]bool, len(teams))
	for _, t := range teams {
		covered[t.Position] = true
	}
	var missing []string
	for _, p := range format.Positions() {
		if !covered[p] {
			missing = append(missing, p.String())
		}
	}
	return missing
}

// DefaultTeams builds one unnamed team per position slot of format.
func DefaultTeams(matchID id.MatchID, format TeamFormat, now time.Time) []*MatchTeam {
	positions := format.Positions()
	teams := make([]*MatchTeam, 0, len(positions))
	for _, p := range positions {
		teams = append(teams, &MatchTeam{
			ID:        id.NewTeamID(),
			MatchID:   matchID,
			Position:  p,
			CreatedAt: now,
		})
	}
	return teams
}

// RedactResults clears derived results the caller may not see yet: points
// until scores are released and ranks until rankings are released. Admins
// see everything.
func (m *Match) RedactResults(teams []*MatchTeam, admin bool) {
	if admin {
		return
	}
	for _, t := range teams {
		if !m.ScoresReleased {
			t.TotalSpeakerPoints = nil
		}
		if !m.RankingsReleased {
			t.FinalRank = nil
		}
	}
}
