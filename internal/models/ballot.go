package models

import (
	"math"
	"strings"
	"time"

	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

const (
	MinSpeakerScore = 0.0
	MaxSpeakerScore = 100.0
	MaxNotesLength  = 5000
)

// Ballot is one adjudicator's submission for a match.
//
// Invariants:
//   - One ballot per (match, adjudicator)
//   - IsVoting is fixed at creation from the allocation role
//   - IsSubmitted goes false to true exactly once
type Ballot struct {
	ID            id.BallotID     `json:"id"`
	MatchID       id.MatchID      `json:"match_id"`
	AdjudicatorID id.UserID       `json:"adjudicator_id"`
	AllocationID  id.AllocationID `json:"allocation_id"`
	IsVoting      bool            `json:"is_voting"`
	IsSubmitted   bool            `json:"is_submitted"`
	Notes         string          `json:"notes,omitempty"`
	SubmittedAt   *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewBallot opens a ballot for an adjudicator allocation.
func NewBallot(ballotID id.BallotID, alloc *Allocation, now time.Time) (*Ballot, error) {
	if !alloc.Role.IsAdjudicator() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ballots belong to adjudicator allocations")
	}
	userID, ok := alloc.Participant.UserID()
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "guest adjudicators cannot hold ballots")
	}
	return &Ballot{
		ID:            ballotID,
		MatchID:       alloc.MatchID,
		AdjudicatorID: userID,
		AllocationID:  alloc.ID,
		IsVoting:      alloc.Role == RoleVotingAdjudicator,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// EnsureOpen rejects writes to a submitted ballot.
func (b *Ballot) EnsureOpen() error {
	if b.IsSubmitted {
		return dErrors.New(dErrors.CodeConflictingState, "ballot has already been submitted")
	}
	return nil
}

// EnsureVoting rejects score and ranking writes on trainee ballots.
func (b *Ballot) EnsureVoting() error {
	if !b.IsVoting {
		return dErrors.New(dErrors.CodeValidation, "non-voting ballots accept notes only")
	}
	return nil
}

func (b *Ballot) SetNotes(notes string, now time.Time) error {
	if err := b.EnsureOpen(); err != nil {
		return err
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > MaxNotesLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "notes must be 5000 characters or less")
	}
	b.Notes = notes
	b.UpdatedAt = now
	return nil
}

// Finalize flips the ballot to submitted. Completeness is checked by the caller.
func (b *Ballot) Finalize(now time.Time) error {
	if err := b.EnsureOpen(); err != nil {
		return err
	}
	b.IsSubmitted = true
	b.SubmittedAt = &now
	b.UpdatedAt = now
	return nil
}

// SpeakerScore is one ballot's score for one speaker allocation.
type SpeakerScore struct {
	BallotID     id.BallotID     `json:"ballot_id"`
	AllocationID id.AllocationID `json:"allocation_id"`
	Score        float64         `json:"score"`
	Feedback     string          `json:"feedback,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func NewSpeakerScore(ballotID id.BallotID, allocationID id.AllocationID, score float64, feedback string, now time.Time) (*SpeakerScore, error) {
	if math.IsNaN(score) || score < MinSpeakerScore || score > MaxSpeakerScore {
		return nil, dErrors.Newf(dErrors.CodeOutOfRange, "score %v is outside [0, 100]", score)
	}
	feedback = strings.TrimSpace(feedback)
	if len(feedback) > MaxNotesLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "feedback must be 5000 characters or less")
	}
	return &SpeakerScore{BallotID: ballotID, AllocationID: allocationID, Score: score, Feedback: feedback, UpdatedAt: now}, nil
}

// TeamRanking is one ballot's rank for one team. IsWinner is set only in the
// two-team format.
type TeamRanking struct {
	BallotID  id.BallotID `json:"ballot_id"`
	TeamID    id.TeamID   `json:"team_id"`
	Rank      int         `json:"rank"`
	IsWinner  *bool       `json:"is_winner,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewTeamRanking(ballotID id.BallotID, teamID id.TeamID, format TeamFormat, rank int, isWinner *bool, now time.Time) (*TeamRanking, error) {
	if rank < 1 || rank > format.TeamCount() {
		return nil, dErrors.Newf(dErrors.CodeOutOfRange, "rank %d is outside [1, %d]", rank, format.TeamCount())
	}
	r := &TeamRanking{BallotID: ballotID, TeamID: teamID, Rank: rank, UpdatedAt: now}
	if format == TeamFormatTwoTeam {
		winner := rank == 1
		if isWinner != nil {
			winner = *isWinner
		}
		r.IsWinner = &winner
	}
	return r, nil
}

// BallotSheet is a ballot together with its entries.
type BallotSheet struct {
	Ballot   *Ballot         `json:"ballot"`
	Scores   []*SpeakerScore `json:"scores"`
	Rankings []*TeamRanking  `json:"rankings"`
}
