package tournament

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is what the tournament steps need from the scenario state.
type TestContext interface {
	RequestAsAlias(alias string, admin bool, method, path string, body any) error
	ResponseField(path string) (any, error)
	ResponseString(path string) (string, error)
	UserID(alias string) string
	Save(name, value string)
	Saved(name string) (string, error)
	Expect(status int) error
}

const organizer = "organizer"

// RegisterSteps registers round setup, allocation and ballot steps. Setup
// runs as the organizer admin regardless of who is signed in.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &tournamentSteps{tc: tc}

	ctx.Step(`^a (two_team|four_team) round exists$`, steps.roundExists)
	ctx.Step(`^"([^"]*)" speaks as "([^"]*)" for "([^"]*)"$`, steps.allocateSpeaker)
	ctx.Step(`^"([^"]*)" judges the match$`, steps.allocateWing)
	ctx.Step(`^"([^"]*)" chairs the match$`, steps.allocateChair)
	ctx.Step(`^the organizer moves the match to "([^"]*)"$`, steps.transition)
	ctx.Step(`^the organizer releases "([^"]*)"$`, steps.release)
	ctx.Step(`^"([^"]*)" submits a ballot giving "([^"]*)" (\d+(?:\.\d+)?) and "([^"]*)" (\d+(?:\.\d+)?) with "([^"]*)" winning$`, steps.submitBallot)
}

type tournamentSteps struct {
	tc TestContext
}

func (s *tournamentSteps) asOrganizer(method, path string, body any, status int) error {
	if err := s.tc.RequestAsAlias(organizer, true, method, path, body); err != nil {
		return err
	}
	return s.tc.Expect(status)
}

func (s *tournamentSteps) saveField(path, name string) error {
	v, err := s.tc.ResponseString(path)
	if err != nil {
		return err
	}
	s.tc.Save(name, v)
	return nil
}

func (s *tournamentSteps) roundExists(ctx context.Context, format string) error {
	err := s.asOrganizer(http.MethodPost, "/events", map[string]any{
		"title":      "Club Night",
		"event_type": "weekly_match",
		"event_date": time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
	}, http.StatusCreated)
	if err != nil {
		return err
	}
	if err := s.saveField("id", "event"); err != nil {
		return err
	}

	err = s.asOrganizer(http.MethodPost, "/events/{event}/series", map[string]any{
		"name":        "Round 1",
		"team_format": format,
	}, http.StatusCreated)
	if err != nil {
		return err
	}
	if err := s.saveField("id", "series"); err != nil {
		return err
	}
	s.tc.Save("format", format)

	if err := s.asOrganizer(http.MethodPost, "/series/{series}/matches", map[string]any{}, http.StatusCreated); err != nil {
		return err
	}
	if err := s.saveField("match.id", "match"); err != nil {
		return err
	}
	teams, err := s.tc.ResponseField("teams")
	if err != nil {
		return err
	}
	for _, t := range teams.([]any) {
		team := t.(map[string]any)
		s.tc.Save("team_"+fmt.Sprint(team["position"]), fmt.Sprint(team["id"]))
	}
	return nil
}

func (s *tournamentSteps) allocate(alias string, body map[string]any) error {
	body["user_id"] = s.tc.UserID(alias)
	if err := s.asOrganizer(http.MethodPost, "/matches/{match}/allocations", body, http.StatusCreated); err != nil {
		return err
	}
	return s.saveField("id", "alloc_"+alias)
}

func (s *tournamentSteps) allocateSpeaker(ctx context.Context, alias, role, position string) error {
	format, err := s.tc.Saved("format")
	if err != nil {
		return err
	}
	teamID, err := s.tc.Saved("team_" + position)
	if err != nil {
		return err
	}
	return s.allocate(alias, map[string]any{
		"role":         "speaker",
		"team_id":      teamID,
		"speaker_role": map[string]string{format + "_speaker_role": role},
	})
}

func (s *tournamentSteps) allocateWing(ctx context.Context, alias string) error {
	return s.allocate(alias, map[string]any{"role": "voting_adjudicator"})
}

func (s *tournamentSteps) allocateChair(ctx context.Context, alias string) error {
	return s.allocate(alias, map[string]any{"role": "voting_adjudicator", "is_chair": true})
}

func (s *tournamentSteps) transition(ctx context.Context, status string) error {
	return s.asOrganizer(http.MethodPut, "/matches/{match}/status", map[string]string{"status": status}, http.StatusOK)
}

func (s *tournamentSteps) release(ctx context.Context, gate string) error {
	return s.asOrganizer(http.MethodPut, "/matches/{match}/release", map[string]any{"gate": gate, "released": true}, http.StatusOK)
}

func (s *tournamentSteps) submitBallot(ctx context.Context, judge, first, firstScore, second, secondScore, winner string) error {
	if err := s.tc.RequestAsAlias(judge, false, http.MethodGet, "/matches/{match}/ballots/mine", nil); err != nil {
		return err
	}
	if err := s.tc.Expect(http.StatusOK); err != nil {
		return err
	}
	ballotID, err := s.tc.ResponseString("ballot.id")
	if err != nil {
		return err
	}

	var scores []map[string]any
	for _, entry := range []struct{ alias, score string }{{first, firstScore}, {second, secondScore}} {
		allocID, err := s.tc.Saved("alloc_" + entry.alias)
		if err != nil {
			return err
		}
		score, err := strconv.ParseFloat(entry.score, 64)
		if err != nil {
			return err
		}
		scores = append(scores, map[string]any{"allocation_id": allocID, "score": score})
	}

	var rankings []map[string]any
	for _, position := range []string{"government", "opposition"} {
		teamID, err := s.tc.Saved("team_" + position)
		if err != nil {
			return err
		}
		rank := 2
		if position == winner {
			rank = 1
		}
		rankings = append(rankings, map[string]any{"team_id": teamID, "rank": rank})
	}

	err = s.tc.RequestAsAlias(judge, false, http.MethodPut, "/ballots/"+ballotID, map[string]any{
		"scores":   scores,
		"rankings": rankings,
		"finalize": true,
	})
	if err != nil {
		return err
	}
	return s.tc.Expect(http.StatusOK)
}
