package models

// TeamFormat selects the participant topology of a series.
type TeamFormat string

const (
	TeamFormatTwoTeam  TeamFormat = "two_team"
	TeamFormatFourTeam TeamFormat = "four_team"
)

func (f TeamFormat) IsValid() bool {
	return f == TeamFormatTwoTeam || f == TeamFormatFourTeam
}

// TeamCount is the number of position slots a match in this format needs.
func (f TeamFormat) TeamCount() int {
	if f == TeamFormatFourTeam {
		return 4
	}
	return 2
}

// Positions lists the position slots of the format in bench order.
func (f TeamFormat) Positions() []TeamPosition {
	if f == TeamFormatFourTeam {
		return []TeamPosition{
			FourTeamSlot(OpeningGovernment),
			FourTeamSlot(OpeningOpposition),
			FourTeamSlot(ClosingGovernment),
			FourTeamSlot(ClosingOpposition),
		}
	}
	return []TeamPosition{TwoTeamSlot(Government), TwoTeamSlot(Opposition)}
}

type TwoTeamPosition string

const (
	Government TwoTeamPosition = "government"
	Opposition TwoTeamPosition = "opposition"
)

func (p TwoTeamPosition) IsValid() bool {
	return p == Government || p == Opposition
}

type FourTeamPosition string

const (
	OpeningGovernment FourTeamPosition = "opening_government"
	OpeningOpposition FourTeamPosition = "opening_opposition"
	ClosingGovernment FourTeamPosition = "closing_government"
	ClosingOpposition FourTeamPosition = "closing_opposition"
)

func (p FourTeamPosition) IsValid() bool {
	switch p {
	case OpeningGovernment, OpeningOpposition, ClosingGovernment, ClosingOpposition:
		return true
	}
	return false
}

type TwoTeamSpeakerRole string

const (
	TwoPrimeMinister            TwoTeamSpeakerRole = "prime_minister"
	TwoDeputyPrimeMinister      TwoTeamSpeakerRole = "deputy_prime_minister"
	TwoGovernmentWhip           TwoTeamSpeakerRole = "government_whip"
	TwoLeaderOfOpposition       TwoTeamSpeakerRole = "leader_of_opposition"
	TwoDeputyLeaderOfOpposition TwoTeamSpeakerRole = "deputy_leader_of_opposition"
	TwoOppositionWhip           TwoTeamSpeakerRole = "opposition_whip"
	TwoGovernmentReply          TwoTeamSpeakerRole = "government_reply"
	TwoOppositionReply          TwoTeamSpeakerRole = "opposition_reply"
)

var twoTeamSpeakerSide = map[TwoTeamSpeakerRole]TwoTeamPosition{
	TwoPrimeMinister:            Government,
	TwoDeputyPrimeMinister:      Government,
	TwoGovernmentWhip:           Government,
	TwoGovernmentReply:          Government,
	TwoLeaderOfOpposition:       Opposition,
	TwoDeputyLeaderOfOpposition: Opposition,
	TwoOppositionWhip:           Opposition,
	TwoOppositionReply:          Opposition,
}

func (r TwoTeamSpeakerRole) IsValid() bool {
	_, ok := twoTeamSpeakerSide[r]
	return ok
}

// IsReply reports whether the role is a reply speech.
func (r TwoTeamSpeakerRole) IsReply() bool {
	return r == TwoGovernmentReply || r == TwoOppositionReply
}

type FourTeamSpeakerRole string

const (
	FourPrimeMinister            FourTeamSpeakerRole = "prime_minister"
	FourDeputyPrimeMinister      FourTeamSpeakerRole = "deputy_prime_minister"
	FourLeaderOfOpposition       FourTeamSpeakerRole = "leader_of_opposition"
	FourDeputyLeaderOfOpposition FourTeamSpeakerRole = "deputy_leader_of_opposition"
	FourMemberOfGovernment       FourTeamSpeakerRole = "member_of_government"
	FourGovernmentWhip           FourTeamSpeakerRole = "government_whip"
	FourMemberOfOpposition       FourTeamSpeakerRole = "member_of_opposition"
	FourOppositionWhip           FourTeamSpeakerRole = "opposition_whip"
)

var fourTeamSpeakerBench = map[FourTeamSpeakerRole]FourTeamPosition{
	FourPrimeMinister:            OpeningGovernment,
	FourDeputyPrimeMinister:      OpeningGovernment,
	FourLeaderOfOpposition:       OpeningOpposition,
	FourDeputyLeaderOfOpposition: OpeningOpposition,
	FourMemberOfGovernment:       ClosingGovernment,
	FourGovernmentWhip:           ClosingGovernment,
	FourMemberOfOpposition:       ClosingOpposition,
	FourOppositionWhip:           ClosingOpposition,
}

func (r FourTeamSpeakerRole) IsValid() bool {
	_, ok := fourTeamSpeakerBench[r]
	return ok
}

// AllocationRole is the role a participant holds within a match.
type AllocationRole string

const (
	RoleSpeaker              AllocationRole = "speaker"
	RoleResource             AllocationRole = "resource"
	RoleVotingAdjudicator    AllocationRole = "voting_adjudicator"
	RoleNonVotingAdjudicator AllocationRole = "non_voting_adjudicator"
)

func (r AllocationRole) IsValid() bool {
	switch r {
	case RoleSpeaker, RoleResource, RoleVotingAdjudicator, RoleNonVotingAdjudicator:
		return true
	}
	return false
}

func (r AllocationRole) IsAdjudicator() bool {
	return r == RoleVotingAdjudicator || r == RoleNonVotingAdjudicator
}

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	MatchDraft      MatchStatus = "draft"
	MatchPublished  MatchStatus = "published"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCancelled  MatchStatus = "cancelled"
)

var nextMatchStatus = map[MatchStatus]MatchStatus{
	MatchDraft:      MatchPublished,
	MatchPublished:  MatchInProgress,
	MatchInProgress: MatchCompleted,
}

func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchDraft, MatchPublished, MatchInProgress, MatchCompleted, MatchCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchCompleted || s == MatchCancelled
}

// CanTransitionTo enforces the forward-only path; cancelled is reachable from
// every non-terminal state.
func (s MatchStatus) CanTransitionTo(target MatchStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == MatchCancelled {
		return true
	}
	return nextMatchStatus[s] == target
}

// EventType classifies an event.
type EventType string

const (
	EventTournament  EventType = "tournament"
	EventWeeklyMatch EventType = "weekly_match"
	EventMeeting     EventType = "meeting"
	EventOther       EventType = "other"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventTournament, EventWeeklyMatch, EventMeeting, EventOther:
		return true
	}
	return false
}

// HistoryAction tags an allocation history row.
type HistoryAction string

const (
	ActionCreated HistoryAction = "created"
	ActionUpdated HistoryAction = "updated"
	ActionDeleted HistoryAction = "deleted"
	ActionSwapped HistoryAction = "swapped"
)
