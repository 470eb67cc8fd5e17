// Package e2e drives a running seal server over HTTP with godog scenarios.
package e2e

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ownerKey is the first development account, the default owner of a
// locally configured server.
const ownerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// TestContext carries state between the steps of one scenario.
type TestContext struct {
	BaseURL string
	client  *http.Client

	actors  map[string]*ecdsa.PrivateKey
	tokens  map[string]string
	current string

	lastStatus int
	lastBody   []byte
	vars       map[string]string
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears all state before a scenario.
func (tc *TestContext) Reset() {
	owner, err := crypto.HexToECDSA(ownerKey)
	if err != nil {
		panic(err)
	}
	tc.actors = map[string]*ecdsa.PrivateKey{"owner": owner}
	tc.tokens = make(map[string]string)
	tc.vars = make(map[string]string)
	tc.current = ""
	tc.lastStatus = 0
	tc.lastBody = nil
}

// Key returns the key of a named actor, generating one on first use.
func (tc *TestContext) Key(name string) *ecdsa.PrivateKey {
	if k, ok := tc.actors[name]; ok {
		return k
	}
	k, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	tc.actors[name] = k
	return k
}

func (tc *TestContext) Address(name string) common.Address {
	return crypto.PubkeyToAddress(tc.Key(name).PublicKey)
}

func (tc *TestContext) Act(name string)             { tc.current = name }
func (tc *TestContext) Current() string             { return tc.current }
func (tc *TestContext) SetToken(name, token string) { tc.tokens[name] = token }
func (tc *TestContext) Set(key, value string)       { tc.vars[key] = value }
func (tc *TestContext) Var(key string) string       { return tc.vars[key] }
func (tc *TestContext) LastStatus() int             { return tc.lastStatus }
func (tc *TestContext) LastBody() []byte            { return tc.lastBody }

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body)
}

func (tc *TestContext) PUT(path string, body any) error {
	return tc.do(http.MethodPut, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := tc.tokens[tc.current]; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var m map[string]any
	if err := json.Unmarshal(tc.lastBody, &m); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w (body: %s)", err, tc.lastBody)
	}
	v, ok := m[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}
