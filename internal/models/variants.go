package models

import (
	"encoding/json"
	"strings"

	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

// TeamPosition is a position slot drawn from exactly one format vocabulary.
// The zero value is "no position" and fails IsValid.
type TeamPosition struct {
	two  TwoTeamPosition
	four FourTeamPosition
}

func TwoTeamSlot(p TwoTeamPosition) TeamPosition   { return TeamPosition{two: p} }
func FourTeamSlot(p FourTeamPosition) TeamPosition { return TeamPosition{four: p} }

// NewTeamPosition builds a position from the two nullable storage columns.
// Exactly one must be set and it must belong to its vocabulary.
func NewTeamPosition(two, four string) (TeamPosition, error) {
	switch {
	case two != "" && four != "":
		return TeamPosition{}, dErrors.New(dErrors.CodeInvariantViolation, "team position must come from exactly one format")
	case two != "":
		p := TwoTeamPosition(two)
		if !p.IsValid() {
			return TeamPosition{}, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown two-team position %q", two)
		}
		return TwoTeamSlot(p), nil
	case four != "":
		p := FourTeamPosition(four)
		if !p.IsValid() {
			return TeamPosition{}, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown four-team position %q", four)
		}
		return FourTeamSlot(p), nil
	}
	return TeamPosition{}, dErrors.New(dErrors.CodeInvariantViolation, "team position is required")
}

// ParseTeamPosition resolves a bare position name. The two vocabularies are
// disjoint so the format is implied by the value.
func ParseTeamPosition(s string) (TeamPosition, error) {
	if TwoTeamPosition(s).IsValid() {
		return TwoTeamSlot(TwoTeamPosition(s)), nil
	}
	if FourTeamPosition(s).IsValid() {
		return FourTeamSlot(FourTeamPosition(s)), nil
	}
	return TeamPosition{}, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown team position %q", s)
}

func (p TeamPosition) IsValid() bool {
	return (p.two.IsValid() && p.four == "") || (p.four.IsValid() && p.two == "")
}

// Format returns the vocabulary the position belongs to, or "" for the zero value.
func (p TeamPosition) Format() TeamFormat {
	switch {
	case p.two != "":
		return TeamFormatTwoTeam
	case p.four != "":
		return TeamFormatFourTeam
	}
	return ""
}

func (p TeamPosition) TwoTeam() (TwoTeamPosition, bool)   { return p.two, p.two != "" }
func (p TeamPosition) FourTeam() (FourTeamPosition, bool) { return p.four, p.four != "" }

func (p TeamPosition) String() string {
	if p.two != "" {
		return string(p.two)
	}
	return string(p.four)
}

func (p TeamPosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *TeamPosition) UnmarshalText(b []byte) error {
	parsed, err := ParseTeamPosition(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// SpeakerRole is a speaking position tagged with its format. The two
// vocabularies share names ("prime_minister") so the tag is carried explicitly.
type SpeakerRole struct {
	two  TwoTeamSpeakerRole
	four FourTeamSpeakerRole
}

func TwoTeamSpeaker(r TwoTeamSpeakerRole) SpeakerRole   { return SpeakerRole{two: r} }
func FourTeamSpeaker(r FourTeamSpeakerRole) SpeakerRole { return SpeakerRole{four: r} }

// NewSpeakerRole builds a role from the two nullable storage columns. Both
// empty yields the zero role, meaning "not a speaker".
func NewSpeakerRole(two, four string) (SpeakerRole, error) {
	switch {
	case two != "" && four != "":
		return SpeakerRole{}, dErrors.New(dErrors.CodeInvariantViolation, "speaker role must come from exactly one format")
	case two != "":
		r := TwoTeamSpeakerRole(two)
		if !r.IsValid() {
			return SpeakerRole{}, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown two-team speaker role %q", two)
		}
		return TwoTeamSpeaker(r), nil
	case four != "":
		r := FourTeamSpeakerRole(four)
		if !r.IsValid() {
			return SpeakerRole{}, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown four-team speaker role %q", four)
		}
		return FourTeamSpeaker(r), nil
	}
	return SpeakerRole{}, nil
}

func (r SpeakerRole) IsZero() bool { return r.two == "" && r.four == "" }

func (r SpeakerRole) IsValid() bool {
	return (r.two.IsValid() && r.four == "") || (r.four.IsValid() && r.two == "")
}

func (r SpeakerRole) Format() TeamFormat {
	switch {
	case r.two != "":
		return TeamFormatTwoTeam
	case r.four != "":
		return TeamFormatFourTeam
	}
	return ""
}

func (r SpeakerRole) TwoTeam() (TwoTeamSpeakerRole, bool)   { return r.two, r.two != "" }
func (r SpeakerRole) FourTeam() (FourTeamSpeakerRole, bool) { return r.four, r.four != "" }

// Bench is the team position a speaker in this role sits on.
func (r SpeakerRole) Bench() TeamPosition {
	if r.two != "" {
		return TwoTeamSlot(twoTeamSpeakerSide[r.two])
	}
	if r.four != "" {
		return FourTeamSlot(fourTeamSpeakerBench[r.four])
	}
	return TeamPosition{}
}

func (r SpeakerRole) String() string {
	if r.two != "" {
		return string(r.two)
	}
	return string(r.four)
}

type speakerRoleJSON struct {
	TwoTeam  string `json:"two_team_speaker_role,omitempty"`
	FourTeam string `json:"four_team_speaker_role,omitempty"`
}

func (r SpeakerRole) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(speakerRoleJSON{TwoTeam: string(r.two), FourTeam: string(r.four)})
}

func (r *SpeakerRole) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = SpeakerRole{}
		return nil
	}
	var raw speakerRoleJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := NewSpeakerRole(raw.TwoTeam, raw.FourTeam)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Participant is a registered user or a named guest, never both.
type Participant struct {
	userID    id.UserID
	guestName string
}

// MaxGuestNameLength bounds guest display names.
const MaxGuestNameLength = 200

// NewParticipant enforces valid_participant: exactly one of a non-nil user id
// or a non-blank guest name.
func NewParticipant(userID *id.UserID, guestName string) (Participant, error) {
	guestName = strings.TrimSpace(guestName)
	hasUser := userID != nil && !userID.IsNil()
	switch {
	case hasUser && guestName != "":
		return Participant{}, dErrors.New(dErrors.CodeInvariantViolation, "participant must be a user or a guest, not both")
	case hasUser:
		return Participant{userID: *userID}, nil
	case guestName != "":
		if len(guestName) > MaxGuestNameLength {
			return Participant{}, dErrors.New(dErrors.CodeInvariantViolation, "guest name is too long")
		}
		return Participant{guestName: guestName}, nil
	}
	return Participant{}, dErrors.New(dErrors.CodeInvariantViolation, "participant requires a user id or a guest name")
}

func UserParticipant(userID id.UserID) Participant { return Participant{userID: userID} }

func (p Participant) IsGuest() bool { return p.guestName != "" }
func (p Participant) IsZero() bool  { return p.userID.IsNil() && p.guestName == "" }

func (p Participant) UserID() (id.UserID, bool) { return p.userID, !p.userID.IsNil() }
func (p Participant) GuestName() (string, bool) { return p.guestName, p.guestName != "" }

// Key identifies the participant for duplicate detection. Guest names compare
// case-insensitively.
func (p Participant) Key() string {
	if p.guestName != "" {
		return "guest:" + strings.ToLower(p.guestName)
	}
	return "user:" + p.userID.String()
}

func (p Participant) String() string {
	if p.guestName != "" {
		return p.guestName
	}
	return p.userID.String()
}

type participantJSON struct {
	UserID    *id.UserID `json:"user_id,omitempty"`
	GuestName string     `json:"guest_name,omitempty"`
}

func (p Participant) MarshalJSON() ([]byte, error) {
	raw := participantJSON{GuestName: p.guestName}
	if !p.userID.IsNil() {
		u := p.userID
		raw.UserID = &u
	}
	return json.Marshal(raw)
}

func (p *Participant) UnmarshalJSON(b []byte) error {
	var raw participantJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := NewParticipant(raw.UserID, raw.GuestName)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
