package handler

import (
	"tabrela/internal/ballot"
	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

type ScoreRequest struct {
	AllocationID id.AllocationID `json:"allocation_id"`
	Score        *float64        `json:"score"`
	Feedback     string          `json:"feedback"`
}

func (r *ScoreRequest) Validate() error {
	if r.AllocationID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "allocation_id is required")
	}
	if r.Score == nil {
		return dErrors.New(dErrors.CodeValidation, "score is required")
	}
	if *r.Score < models.MinSpeakerScore || *r.Score > models.MaxSpeakerScore {
		return dErrors.Newf(dErrors.CodeOutOfRange, "score %v is outside [0, 100]", *r.Score)
	}
	if len(r.Feedback) > models.MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "feedback must be 5000 characters or less")
	}
	return nil
}

func (r *ScoreRequest) entry() ballot.ScoreEntry {
	return ballot.ScoreEntry{AllocationID: r.AllocationID, Score: *r.Score, Feedback: r.Feedback}
}

type RankingRequest struct {
	TeamID   id.TeamID `json:"team_id"`
	Rank     int       `json:"rank"`
	IsWinner *bool     `json:"is_winner"`
}

func (r *RankingRequest) Validate() error {
	if r.TeamID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "team_id is required")
	}
	if r.Rank < 1 || r.Rank > 4 {
		return dErrors.Newf(dErrors.CodeOutOfRange, "rank %d is outside [1, 4]", r.Rank)
	}
	return nil
}

func (r *RankingRequest) entry() ballot.RankingEntry {
	return ballot.RankingEntry{TeamID: r.TeamID, Rank: r.Rank, IsWinner: r.IsWinner}
}

// SubmitRequest carries any mix of scores, rankings and notes. With
// finalize set the ballot is submitted in the same transaction.
type SubmitRequest struct {
	Scores   []ScoreRequest   `json:"scores"`
	Rankings []RankingRequest `json:"rankings"`
	Notes    *string          `json:"notes"`
	Finalize bool             `json:"finalize"`
}

func (r *SubmitRequest) Validate() error {
	for i := range r.Scores {
		if err := r.Scores[i].Validate(); err != nil {
			return err
		}
	}
	for i := range r.Rankings {
		if err := r.Rankings[i].Validate(); err != nil {
			return err
		}
	}
	if r.Notes != nil && len(*r.Notes) > models.MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be 5000 characters or less")
	}
	return nil
}

func (r *SubmitRequest) toService() ballot.SubmitRequest {
	out := ballot.SubmitRequest{Notes: r.Notes, Finalize: r.Finalize}
	for i := range r.Scores {
		out.Scores = append(out.Scores, r.Scores[i].entry())
	}
	for i := range r.Rankings {
		out.Rankings = append(out.Rankings, r.Rankings[i].entry())
	}
	return out
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

func (r *NotesRequest) Validate() error {
	if len(r.Notes) > models.MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be 5000 characters or less")
	}
	return nil
}
