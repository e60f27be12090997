package allocation

import (
	"tabrela/internal/models"
	dErrors "tabrela/pkg/domain-errors"
)

// Proposal is a candidate allocation together with the match state it is
// checked against. Existing never contains the candidate itself.
type Proposal struct {
	Candidate *models.Allocation
	Series    *models.MatchSeries
	Teams     []*models.MatchTeam
	Existing  []*models.Allocation
}

// Rule is one composable allocation constraint.
type Rule interface {
	Name() string
	Check(p Proposal) error
}

type ruleFunc struct {
	name  string
	check func(p Proposal) error
}

func (r ruleFunc) Name() string            { return r.name }
func (r ruleFunc) Check(p Proposal) error { return r.check(p) }

// NewRule wraps a check function as a named Rule.
func NewRule(name string, check func(p Proposal) error) Rule {
	return ruleFunc{name: name, check: check}
}

const (
	RulePlacementShape        = "placement_shape"
	RuleTeamInMatch           = "team_in_match"
	RuleReplySpeeches         = "reply_speeches"
	RuleSpeakerSeatFree       = "speaker_seat_free"
	RuleSpeakerBench          = "speaker_bench"
	RuleOnePerMatch           = "one_per_match"
	RuleUniqueRole            = "unique_role"
	RuleUniqueSpeakerPosition = "unique_speaker_position"
	RuleNoGuests              = "no_guests"
)

var builtinRules = map[string]Rule{
	RulePlacementShape:        NewRule(RulePlacementShape, checkPlacementShape),
	RuleTeamInMatch:           NewRule(RuleTeamInMatch, checkTeamInMatch),
	RuleReplySpeeches:         NewRule(RuleReplySpeeches, checkReplySpeeches),
	RuleSpeakerSeatFree:       NewRule(RuleSpeakerSeatFree, checkSpeakerSeatFree),
	RuleSpeakerBench:          NewRule(RuleSpeakerBench, checkSpeakerBench),
	RuleOnePerMatch:           NewRule(RuleOnePerMatch, checkOnePerMatch),
	RuleUniqueRole:            NewRule(RuleUniqueRole, checkUniqueRole),
	RuleUniqueSpeakerPosition: NewRule(RuleUniqueSpeakerPosition, checkUniqueSpeakerPosition),
	RuleNoGuests:              NewRule(RuleNoGuests, checkNoGuests),
}

// LookupRule returns a built-in rule by name.
func LookupRule(name string) (Rule, bool) {
	r, ok := builtinRules[name]
	return r, ok
}

func checkPlacementShape(p Proposal) error {
	if err := p.Candidate.Placement().ValidateShape(p.Series.TeamFormat); err != nil {
		return asValidation(err)
	}
	return nil
}

// checkTeamInMatch requires a speaker's team to belong to the same match and
// to carry a position of the series' format.
func checkTeamInMatch(p Proposal) error {
	c := p.Candidate
	if c.Role != models.RoleSpeaker || c.TeamID == nil {
		return nil
	}
	for _, t := range p.Teams {
		if t.ID != *c.TeamID {
			continue
		}
		if t.Position.Format() != p.Series.TeamFormat {
			return dErrors.Newf(dErrors.CodeValidation, "team position %s does not match the %s format", t.Position, p.Series.TeamFormat)
		}
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, "team does not belong to this match")
}

func checkReplySpeeches(p Proposal) error {
	r, ok := p.Candidate.SpeakerRole.TwoTeam()
	if ok && r.IsReply() && !p.Series.AllowReplySpeeches {
		return dErrors.New(dErrors.CodeValidation, "reply speeches are not enabled for this series")
	}
	return nil
}

// checkSpeakerSeatFree keeps one speaker per (team, speaker role).
func checkSpeakerSeatFree(p Proposal) error {
	c := p.Candidate
	if c.Role != models.RoleSpeaker || c.TeamID == nil {
		return nil
	}
	for _, e := range p.Existing {
		if e.Role == models.RoleSpeaker && e.TeamID != nil && *e.TeamID == *c.TeamID && e.SpeakerRole == c.SpeakerRole {
			return dErrors.Newf(dErrors.CodeConflictingState, "speaker role %s is already taken on this team", c.SpeakerRole).
				WithExisting(e.ID.String())
		}
	}
	return nil
}

// checkSpeakerBench requires the speaker role to sit on the bench of the
// referenced team's position.
func checkSpeakerBench(p Proposal) error {
	c := p.Candidate
	if c.Role != models.RoleSpeaker || c.TeamID == nil {
		return nil
	}
	for _, t := range p.Teams {
		if t.ID == *c.TeamID && c.SpeakerRole.Bench() != t.Position {
			return dErrors.Newf(dErrors.CodeValidation, "speaker role %s does not sit on the %s bench", c.SpeakerRole, t.Position)
		}
	}
	return nil
}

func checkOnePerMatch(p Proposal) error {
	key := p.Candidate.Participant.Key()
	for _, e := range p.Existing {
		if e.Participant.Key() == key {
			return duplicate(e, "participant is already allocated in this match")
		}
	}
	return nil
}

func checkUniqueRole(p Proposal) error {
	key := p.Candidate.Participant.Key()
	for _, e := range p.Existing {
		if e.Participant.Key() == key && e.Role == p.Candidate.Role {
			return duplicate(e, "participant already holds this role in the match")
		}
	}
	return nil
}

// checkUniqueSpeakerPosition allows a participant several distinct speaker
// positions but never the same one twice.
func checkUniqueSpeakerPosition(p Proposal) error {
	c := p.Candidate
	key := c.Participant.Key()
	for _, e := range p.Existing {
		if e.Participant.Key() != key || e.Role != c.Role {
			continue
		}
		if c.Role != models.RoleSpeaker || e.SpeakerRole == c.SpeakerRole {
			return duplicate(e, "participant already holds this position in the match")
		}
	}
	return nil
}

func checkNoGuests(p Proposal) error {
	if p.Candidate.Participant.IsGuest() {
		return dErrors.New(dErrors.CodeValidation, "guest participants are not permitted")
	}
	return nil
}

func duplicate(existing *models.Allocation, msg string) error {
	return dErrors.New(dErrors.CodeDuplicateAllocation, msg).WithExisting(existing.ID.String())
}
