package models

import (
	"strings"
	"time"

	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
)

// Event is the root of the ownership tree.
//
// Invariants:
//   - Title is non-empty and at most 200 characters
//   - Type is one of the EventType values
//   - A locked event rejects every allocation mutation below it
type Event struct {
	ID          id.EventID `json:"id"`
	Title       string     `json:"title"`
	Type        EventType  `json:"event_type"`
	Date        time.Time  `json:"event_date"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	CreatedBy   id.UserID  `json:"created_by"`
	IsLocked    bool       `json:"is_locked"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewEvent(eventID id.EventID, title string, eventType EventType, date time.Time, createdBy id.UserID, now time.Time) (*Event, error) {
	e := &Event{
		ID:        eventID,
		Title:     strings.TrimSpace(title),
		Type:      eventType,
		Date:      date,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Event) Validate() error {
	if e.Title == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "event title cannot be empty")
	}
	if len(e.Title) > MaxTitleLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "event title must be 200 characters or less")
	}
	if !e.Type.IsValid() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "invalid event type %q", e.Type)
	}
	if len(e.Description) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "event description is too long")
	}
	if e.Date.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "event date is required")
	}
	return nil
}

// MatchSeries is a round grouping matches under one event.
//
// Invariants:
//   - Name is non-empty
//   - TeamFormat is two_team or four_team, and frozen once any match below has allocations
//   - RoundNumber, when present, is positive; it is neither required nor unique
type MatchSeries struct {
	ID                 id.SeriesID `json:"id"`
	EventID            id.EventID  `json:"event_id"`
	Name               string      `json:"name"`
	Description        string      `json:"description,omitempty"`
	RoundNumber        *int        `json:"round_number"`
	TeamFormat         TeamFormat  `json:"team_format"`
	AllowReplySpeeches bool        `json:"allow_reply_speeches"`
	IsBreakRound       bool        `json:"is_break_round"`
	// Ruleset names the allocation ruleset; empty selects the deployment default.
	Ruleset   string    `json:"ruleset,omitempty"`
	CreatedBy id.UserID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewMatchSeries(seriesID id.SeriesID, eventID id.EventID, name string, format TeamFormat, roundNumber *int, createdBy id.UserID, now time.Time) (*MatchSeries, error) {
	s := &MatchSeries{
		ID:          seriesID,
		EventID:     eventID,
		Name:        strings.TrimSpace(name),
		RoundNumber: roundNumber,
		TeamFormat:  format,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MatchSeries) Validate() error {
	if s.Name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "series name cannot be empty")
	}
	if len(s.Name) > MaxTitleLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "series name must be 200 characters or less")
	}
	if !s.TeamFormat.IsValid() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "invalid team format %q", s.TeamFormat)
	}
	if s.RoundNumber != nil && *s.RoundNumber < 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "round number must be positive")
	}
	if len(s.Description) > MaxDescriptionLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "series description is too long")
	}
	return nil
}
