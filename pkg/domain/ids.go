package domain

import (
	"github.com/google/uuid"

	dErrors "tabrela/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so an EventID can never be passed where
// a MatchID is expected.
type (
	UserID       uuid.UUID
	EventID      uuid.UUID
	SeriesID     uuid.UUID
	MatchID      uuid.UUID
	TeamID       uuid.UUID
	AllocationID uuid.UUID
	HistoryID    uuid.UUID
	BallotID     uuid.UUID
)

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id EventID) String() string      { return uuid.UUID(id).String() }
func (id SeriesID) String() string     { return uuid.UUID(id).String() }
func (id MatchID) String() string      { return uuid.UUID(id).String() }
func (id TeamID) String() string       { return uuid.UUID(id).String() }
func (id AllocationID) String() string { return uuid.UUID(id).String() }
func (id HistoryID) String() string    { return uuid.UUID(id).String() }
func (id BallotID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id SeriesID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id MatchID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TeamID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AllocationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id HistoryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id BallotID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed ids appear as plain strings in JSON bodies and map keys.
func (id UserID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id SeriesID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id MatchID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id TeamID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id AllocationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id HistoryID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id BallotID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EventID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SeriesID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MatchID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TeamID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AllocationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *HistoryID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BallotID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }

// parseUUID enforces the shared invariant: ids are valid, non-nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	return EventID(u), err
}

func ParseSeriesID(s string) (SeriesID, error) {
	u, err := parseUUID(s, "series id")
	return SeriesID(u), err
}

func ParseMatchID(s string) (MatchID, error) {
	u, err := parseUUID(s, "match id")
	return MatchID(u), err
}

func ParseTeamID(s string) (TeamID, error) {
	u, err := parseUUID(s, "team id")
	return TeamID(u), err
}

func ParseAllocationID(s string) (AllocationID, error) {
	u, err := parseUUID(s, "allocation id")
	return AllocationID(u), err
}

func ParseBallotID(s string) (BallotID, error) {
	u, err := parseUUID(s, "ballot id")
	return BallotID(u), err
}

// New identifiers.
func NewUserID() UserID             { return UserID(uuid.New()) }
func NewEventID() EventID           { return EventID(uuid.New()) }
func NewSeriesID() SeriesID         { return SeriesID(uuid.New()) }
func NewMatchID() MatchID           { return MatchID(uuid.New()) }
func NewTeamID() TeamID             { return TeamID(uuid.New()) }
func NewAllocationID() AllocationID { return AllocationID(uuid.New()) }
func NewHistoryID() HistoryID       { return HistoryID(uuid.New()) }
func NewBallotID() BallotID         { return BallotID(uuid.New()) }
