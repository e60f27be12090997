package models

import (
	"time"

	id "tabrela/pkg/domain"
)

// TeamResult is the aggregated outcome for one team.
type TeamResult struct {
	TeamID             id.TeamID    `json:"team_id"`
	Position           TeamPosition `json:"position"`
	TotalSpeakerPoints *float64     `json:"total_speaker_points"`
	FinalRank          *int         `json:"final_rank"`
	// Votes counts ballots per assigned rank.
	Votes map[int]int `json:"votes,omitempty"`
}

// SpeakerResult is a speaker's mean score across submitted voting ballots.
type SpeakerResult struct {
	AllocationID id.AllocationID `json:"allocation_id"`
	TeamID       id.TeamID       `json:"team_id"`
	Participant  string          `json:"participant"`
	SpeakerRole  SpeakerRole     `json:"speaker_role"`
	AverageScore *float64        `json:"average_score"`
	BallotCount  int             `json:"ballot_count"`
}

// TabulationResult is the full aggregate for a match. When Status is
// unresolved, TiedTeams lists the teams needing manual ranking and no rank is
// written.
type TabulationResult struct {
	MatchID        id.MatchID       `json:"match_id"`
	Status         TabulationStatus `json:"status"`
	Teams          []TeamResult     `json:"teams"`
	Speakers       []SpeakerResult  `json:"speakers"`
	TiedTeams      []id.TeamID      `json:"tied_teams,omitempty"`
	BallotsCounted int              `json:"ballots_counted"`
	ComputedAt     time.Time        `json:"computed_at"`
}

// OutboundKind names an event published to the notification collaborator.
type OutboundKind string

const (
	KindMatchStatusChanged  OutboundKind = "match.status_changed"
	KindMatchReleaseChanged OutboundKind = "match.release_changed"
	KindAllocationChanged   OutboundKind = "allocation.changed"
)

// OutboundEvent is written in the same transaction as the change it reports.
type OutboundEvent struct {
	ID         string       `json:"id"`
	Kind       OutboundKind `json:"kind"`
	EntityID   string       `json:"entity_id"`
	MatchID    id.MatchID   `json:"match_id"`
	State      string       `json:"state"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// UserPerformance aggregates a user's history across matches.
type UserPerformance struct {
	UserID            id.UserID   `json:"user_id"`
	EventID           *id.EventID `json:"event_id,omitempty"`
	SpeakerRounds     int         `json:"speaker_rounds"`
	AdjudicatorRounds int         `json:"adjudicator_rounds"`
	ResourceRounds    int         `json:"resource_rounds"`
	ChairedRounds     int         `json:"chaired_rounds"`
	AverageScore      *float64    `json:"average_speaker_score"`
	ScoredRounds      int         `json:"scored_rounds"`
	Wins              int         `json:"wins"`
	Losses            int         `json:"losses"`
	RankDistribution  map[int]int `json:"rank_distribution"`
}
