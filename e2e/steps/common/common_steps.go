// Package common registers response assertions shared by all features.
package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the part of the scenario state the shared steps read.
type TestContext interface {
	LastStatus() int
	LastBody() []byte
	GetResponseField(field string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	ctx.Step(`^the response status should be (\d+)$`, func(_ context.Context, status int) error {
		if tc.LastStatus() != status {
			return fmt.Errorf("expected status %d, got %d: %s", status, tc.LastStatus(), tc.LastBody())
		}
		return nil
	})
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, func(_ context.Context, field, want string) error {
		v, err := tc.GetResponseField(field)
		if err != nil {
			return err
		}
		if got := fmt.Sprint(v); got != want {
			return fmt.Errorf("field %s: expected %q, got %q", field, want, got)
		}
		return nil
	})
	ctx.Step(`^the response should contain field "([^"]*)"$`, func(_ context.Context, field string) error {
		_, err := tc.GetResponseField(field)
		return err
	})
}
