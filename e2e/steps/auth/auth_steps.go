// Package auth registers the sign-in steps.
package auth

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/cucumber/godog"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

type TestContext interface {
	Key(name string) *ecdsa.PrivateKey
	Address(name string) common.Address
	Act(name string)
	Current() string
	SetToken(name, token string)
	POST(path string, body any) error
	GET(path string) error
	LastStatus() int
	LastBody() []byte
	GetResponseField(field string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}
	ctx.Step(`^"([^"]*)" has signed in$`, steps.signIn)
	ctx.Step(`^"([^"]*)" requests a sign-in challenge$`, steps.requestChallenge)
	ctx.Step(`^"([^"]*)" submits a token request signed by "([^"]*)"$`, steps.submitSignedBy)
	ctx.Step(`^I act as "([^"]*)"$`, steps.actAs)
	ctx.Step(`^I fetch my identity$`, steps.me)
}

type authSteps struct {
	tc      TestContext
	message string
}

func (s *authSteps) actAs(_ context.Context, name string) error {
	s.tc.Act(name)
	return nil
}

func (s *authSteps) requestChallenge(_ context.Context, name string) error {
	if err := s.tc.POST("/auth/challenge", map[string]string{"address": s.tc.Address(name).Hex()}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("challenge: status %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	msg, err := s.tc.GetResponseField("message")
	if err != nil {
		return err
	}
	s.message = fmt.Sprint(msg)
	return nil
}

func (s *authSteps) submitSignedBy(_ context.Context, name, signer string) error {
	sig, err := crypto.Sign(accounts.TextHash([]byte(s.message)), s.tc.Key(signer))
	if err != nil {
		return err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return s.tc.POST("/auth/token", map[string]string{
		"address":   s.tc.Address(name).Hex(),
		"signature": hexutil.Encode(sig),
	})
}

func (s *authSteps) signIn(ctx context.Context, name string) error {
	if err := s.requestChallenge(ctx, name); err != nil {
		return err
	}
	if err := s.submitSignedBy(ctx, name, name); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("token: status %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	token, err := s.tc.GetResponseField("access_token")
	if err != nil {
		return err
	}
	s.tc.SetToken(name, fmt.Sprint(token))
	s.tc.Act(name)
	return nil
}

func (s *authSteps) me(_ context.Context) error {
	return s.tc.GET("/auth/me")
}
