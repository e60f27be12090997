package handler

import (
	"strings"

	"tabrela/internal/allocation"
	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

// AllocateRequest places a registered user (user_id) or a named guest
// (guest_name) in a match.
type AllocateRequest struct {
	UserID      *id.UserID            `json:"user_id"`
	GuestName   string                `json:"guest_name"`
	Role        models.AllocationRole `json:"role"`
	TeamID      *id.TeamID            `json:"team_id"`
	SpeakerRole models.SpeakerRole    `json:"speaker_role"`
	IsChair     bool                  `json:"is_chair"`
	Notes       string                `json:"notes"`
}

func (r *AllocateRequest) Validate() error {
	r.GuestName = strings.TrimSpace(r.GuestName)
	if (r.UserID == nil || r.UserID.IsNil()) && r.GuestName == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id or guest_name is required")
	}
	if r.UserID != nil && !r.UserID.IsNil() && r.GuestName != "" {
		return dErrors.New(dErrors.CodeValidation, "user_id and guest_name are exclusive")
	}
	if !r.Role.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", r.Role)
	}
	if len(r.Notes) > models.MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be 5000 characters or less")
	}
	return nil
}

func (r *AllocateRequest) toService() allocation.AllocateRequest {
	return allocation.AllocateRequest{
		UserID:      r.UserID,
		GuestName:   r.GuestName,
		Role:        r.Role,
		TeamID:      r.TeamID,
		SpeakerRole: r.SpeakerRole,
		IsChair:     r.IsChair,
		Notes:       r.Notes,
	}
}

// ReassignRequest replaces the placement of an allocation.
type ReassignRequest struct {
	Role        models.AllocationRole `json:"role"`
	TeamID      *id.TeamID            `json:"team_id"`
	SpeakerRole models.SpeakerRole    `json:"speaker_role"`
	IsChair     bool                  `json:"is_chair"`
	Notes       string                `json:"notes"`
}

func (r *ReassignRequest) Validate() error {
	if !r.Role.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", r.Role)
	}
	if len(r.Notes) > models.MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be 5000 characters or less")
	}
	return nil
}

func (r *ReassignRequest) toService() allocation.ReassignRequest {
	return allocation.ReassignRequest{
		Role:        r.Role,
		TeamID:      r.TeamID,
		SpeakerRole: r.SpeakerRole,
		IsChair:     r.IsChair,
		Notes:       r.Notes,
	}
}

// SwapRequest exchanges the placements of two allocations in one match.
type SwapRequest struct {
	FirstID  string `json:"first_allocation_id"`
	SecondID string `json:"second_allocation_id"`
	Notes    string `json:"notes"`

	first, second id.AllocationID
}

func (r *SwapRequest) Validate() error {
	var err error
	if r.first, err = id.ParseAllocationID(r.FirstID); err != nil {
		return err
	}
	if r.second, err = id.ParseAllocationID(r.SecondID); err != nil {
		return err
	}
	if len(r.Notes) > models.MaxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "notes must be 5000 characters or less")
	}
	return nil
}
