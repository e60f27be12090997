package handler

import (
	"strings"
	"time"

	"tabrela/internal/models"
	"tabrela/internal/registry"
	dErrors "tabrela/pkg/domain-errors"
)

// CreateEventRequest is the body of POST /events.
type CreateEventRequest struct {
	Title       string           `json:"title"`
	EventType   models.EventType `json:"event_type"`
	EventDate   time.Time        `json:"event_date"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
}

func (r *CreateEventRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.EventDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "event_date is required")
	}
	if r.EventType == "" {
		r.EventType = models.EventOther
	}
	return nil
}

func (r *CreateEventRequest) toService() registry.CreateEventRequest {
	return registry.CreateEventRequest{
		Title:       r.Title,
		Type:        r.EventType,
		Date:        r.EventDate,
		Description: r.Description,
		Location:    r.Location,
	}
}

// UpdateEventRequest is the body of PATCH /events/{id}. Absent fields are
// left unchanged.
type UpdateEventRequest struct {
	Title       *string           `json:"title"`
	EventType   *models.EventType `json:"event_type"`
	EventDate   *time.Time        `json:"event_date"`
	Description *string           `json:"description"`
	Location    *string           `json:"location"`
}

func (r *UpdateEventRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title cannot be blank")
	}
	return nil
}

func (r *UpdateEventRequest) toService() registry.UpdateEventRequest {
	return registry.UpdateEventRequest{
		Title:       r.Title,
		Type:        r.EventType,
		Date:        r.EventDate,
		Description: r.Description,
		Location:    r.Location,
	}
}

// LockRequest is the body of PUT /events/{id}/lock.
type LockRequest struct {
	Locked *bool `json:"locked"`
}

func (r *LockRequest) Validate() error {
	if r.Locked == nil {
		return dErrors.New(dErrors.CodeValidation, "locked is required")
	}
	return nil
}

// CreateSeriesRequest is the body of POST /events/{id}/series.
type CreateSeriesRequest struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	RoundNumber        *int              `json:"round_number"`
	TeamFormat         models.TeamFormat `json:"team_format"`
	AllowReplySpeeches bool              `json:"allow_reply_speeches"`
	IsBreakRound       bool              `json:"is_break_round"`
	Ruleset            string            `json:"ruleset"`
}

func (r *CreateSeriesRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.TeamFormat == "" {
		return dErrors.New(dErrors.CodeValidation, "team_format is required")
	}
	r.Ruleset = strings.TrimSpace(r.Ruleset)
	return nil
}

func (r *CreateSeriesRequest) toService() registry.CreateSeriesRequest {
	return registry.CreateSeriesRequest{
		Name:               r.Name,
		Description:        r.Description,
		RoundNumber:        r.RoundNumber,
		TeamFormat:         r.TeamFormat,
		AllowReplySpeeches: r.AllowReplySpeeches,
		IsBreakRound:       r.IsBreakRound,
		Ruleset:            r.Ruleset,
	}
}

// UpdateSeriesRequest is the body of PATCH /series/{id}.
type UpdateSeriesRequest struct {
	Name               *string            `json:"name"`
	Description        *string            `json:"description"`
	RoundNumber        *int               `json:"round_number"`
	ClearRoundNumber   bool               `json:"clear_round_number"`
	TeamFormat         *models.TeamFormat `json:"team_format"`
	AllowReplySpeeches *bool              `json:"allow_reply_speeches"`
	IsBreakRound       *bool              `json:"is_break_round"`
	Ruleset            *string            `json:"ruleset"`
}

func (r *UpdateSeriesRequest) Validate() error {
	if r.ClearRoundNumber && r.RoundNumber != nil {
		return dErrors.New(dErrors.CodeValidation, "round_number and clear_round_number are exclusive")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name cannot be blank")
	}
	return nil
}

func (r *UpdateSeriesRequest) toService() registry.UpdateSeriesRequest {
	return registry.UpdateSeriesRequest{
		Name:               r.Name,
		Description:        r.Description,
		RoundNumber:        r.RoundNumber,
		ClearRoundNumber:   r.ClearRoundNumber,
		TeamFormat:         r.TeamFormat,
		AllowReplySpeeches: r.AllowReplySpeeches,
		IsBreakRound:       r.IsBreakRound,
		Ruleset:            r.Ruleset,
	}
}
