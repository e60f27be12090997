package common

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is what the shared steps need from the scenario state.
type TestContext interface {
	SignIn(alias string, admin bool)
	SignOut()
	Request(method, path string, body any) error
	Webhook(method, path string, body any) error
	StatusCode() int
	ResponseField(path string) (any, error)
	ResponseString(path string) (string, error)
	Expand(s string) (string, error)
	Save(name, value string)
	Expect(status int) error
}

// RegisterSteps registers identity, raw request and assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I am signed in as admin "([^"]*)"$`, steps.signInAdmin)
	ctx.Step(`^I am signed in as "([^"]*)"$`, steps.signIn)
	ctx.Step(`^I am not signed in$`, steps.signOut)

	ctx.Step(`^I (GET|DELETE) "([^"]*)"$`, steps.requestWithoutBody)
	ctx.Step(`^I (POST|PUT|PATCH) "([^"]*)" with body:$`, steps.requestWithBody)
	ctx.Step(`^the webhook (POST|PUT) "([^"]*)" is sent with body:$`, steps.webhookWithBody)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response error should be "([^"]*)"$`, steps.errorShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be null$`, steps.fieldShouldBeNull)
	ctx.Step(`^the response list "([^"]*)" should have (\d+) items?$`, steps.listShouldHave)
	ctx.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, steps.saveField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) signInAdmin(ctx context.Context, alias string) error {
	s.tc.SignIn(alias, true)
	return nil
}

func (s *commonSteps) signIn(ctx context.Context, alias string) error {
	s.tc.SignIn(alias, false)
	return nil
}

func (s *commonSteps) signOut(ctx context.Context) error {
	s.tc.SignOut()
	return nil
}

func (s *commonSteps) requestWithoutBody(ctx context.Context, method, path string) error {
	return s.tc.Request(method, path, nil)
}

func (s *commonSteps) requestWithBody(ctx context.Context, method, path string, body *godog.DocString) error {
	return s.tc.Request(method, path, body.Content)
}

func (s *commonSteps) webhookWithBody(ctx context.Context, method, path string, body *godog.DocString) error {
	return s.tc.Webhook(method, path, body.Content)
}

func (s *commonSteps) statusShouldBe(ctx context.Context, status int) error {
	return s.tc.Expect(status)
}

func (s *commonSteps) errorShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldEqual(ctx, "error", code)
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, path, want string) error {
	want, err := s.tc.Expand(want)
	if err != nil {
		return err
	}
	got, err := s.tc.ResponseString(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("field %q: expected %q, got %q", path, want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeNull(ctx context.Context, path string) error {
	v, err := s.tc.ResponseField(path)
	if err != nil {
		return err
	}
	if v != nil {
		return fmt.Errorf("field %q: expected null, got %v", path, v)
	}
	return nil
}

func (s *commonSteps) listShouldHave(ctx context.Context, path string, n int) error {
	v, err := s.tc.ResponseField(path)
	if err != nil {
		return err
	}
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("field %q is not a list", path)
	}
	if len(list) != n {
		return fmt.Errorf("list %q: expected %s items, got %d", path, strconv.Itoa(n), len(list))
	}
	return nil
}

func (s *commonSteps) saveField(ctx context.Context, path, name string) error {
	v, err := s.tc.ResponseString(path)
	if err != nil {
		return err
	}
	s.tc.Save(name, v)
	return nil
}
