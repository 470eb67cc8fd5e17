// Package registry registers the account, schema and profile steps.
package registry

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/cucumber/godog"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const defaultRegistry = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

type TestContext interface {
	Address(name string) common.Address
	Current() string
	Set(key, value string)
	Var(key string) string
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string) error
	LastStatus() int
	LastBody() []byte
	GetResponseField(field string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc}
	ctx.Step(`^I authorize "([^"]*)" to create a profile$`, steps.authorize)
	ctx.Step(`^I add (\d+) credits to the account of "([^"]*)"$`, steps.addAccountCredits)
	ctx.Step(`^a profile schema hooked to the registry exists$`, steps.profileSchema)
	ctx.Step(`^I attest a profile named "([^"]*)" with nonce (\d+)$`, steps.attestProfile)
	ctx.Step(`^I fetch the profile of "([^"]*)" with nonce (\d+)$`, steps.fetchProfile)
}

type registrySteps struct {
	tc TestContext
}

func (s *registrySteps) authorize(_ context.Context, name string) error {
	return s.tc.PUT("/registry/accounts/"+s.tc.Address(name).Hex()+"/authorization", map[string]bool{"status": true})
}

func (s *registrySteps) addAccountCredits(_ context.Context, credits int, name string) error {
	return s.tc.POST("/registry/accounts/"+s.tc.Address(name).Hex()+"/credits", map[string]int{"credits": credits})
}

func (s *registrySteps) profileSchema(_ context.Context) error {
	registry := os.Getenv("SEAL_E2E_REGISTRY")
	if registry == "" {
		registry = defaultRegistry
	}
	if err := s.tc.POST("/sp/schemas", map[string]any{
		"revocable":     false,
		"data_location": 0,
		"max_valid_for": 0,
		"hook":          registry,
		"data":          "uint256 nonce,string name,address[] members",
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("register schema: status %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Set("profile_schema", fmt.Sprint(id))
	return nil
}

func (s *registrySteps) attestProfile(_ context.Context, name string, nonce int) error {
	schemaID, err := strconv.ParseUint(s.tc.Var("profile_schema"), 10, 64)
	if err != nil {
		return fmt.Errorf("no profile schema registered: %w", err)
	}
	extra, err := profileCreation(uint64(nonce), name)
	if err != nil {
		return err
	}
	attester := s.tc.Address(s.tc.Current())
	return s.tc.POST("/sp/attestations", map[string]any{
		"attestation": map[string]any{
			"schema_id":     schemaID,
			"attester":      attester.Hex(),
			"data_location": 0,
			"recipients":    []string{hexutil.Encode(common.LeftPadBytes(attester.Bytes(), 32))},
			"data":          "0x",
		},
		"extra_data": hexutil.Encode(extra),
	})
}

func (s *registrySteps) fetchProfile(_ context.Context, name string, nonce int) error {
	return s.tc.GET("/registry/profiles/" + profileID(uint64(nonce), s.tc.Address(name)).Hex())
}

// profileCreation encodes (uint256 nonce, string name, address[] members).
func profileCreation(nonce uint64, name string) ([]byte, error) {
	args := abi.Arguments{
		{Type: mustType("uint256")},
		{Type: mustType("string")},
		{Type: mustType("address[]")},
	}
	return args.Pack(new(big.Int).SetUint64(nonce), name, []common.Address{})
}

func profileID(nonce uint64, owner common.Address) common.Hash {
	word := common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 32)
	return crypto.Keccak256Hash(word, owner.Bytes())
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
