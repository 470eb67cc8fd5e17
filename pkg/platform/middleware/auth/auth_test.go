package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"seal/pkg/requestcontext"
	"seal/pkg/testutil"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

func TestAuthenticate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	alice := common.HexToAddress("0x00000000000000000000000000000000000a11ce")

	var seen common.Address
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Caller(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	testutil.When(t, "no authorization header is sent", func(t *testing.T) {
		seen = alice
		h := Authenticate(stubValidator{err: errors.New("unused")}, logger)(next)
		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
		testutil.Then(t, "the request continues anonymously", func(t *testing.T) {
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, common.Address{}, seen)
		})
	})

	testutil.When(t, "a valid bearer token is sent", func(t *testing.T) {
		h := Authenticate(stubValidator{claims: &JWTClaims{Caller: alice}}, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := testutil.DoRequest(h, req)
		testutil.Then(t, "the caller is the token subject", func(t *testing.T) {
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, alice, seen)
		})
	})

	testutil.When(t, "the token is invalid", func(t *testing.T) {
		h := Authenticate(stubValidator{err: errors.New("expired")}, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rr := testutil.DoRequest(h, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	testutil.When(t, "the scheme is not bearer", func(t *testing.T) {
		h := Authenticate(stubValidator{claims: &JWTClaims{Caller: alice}}, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic Zm9v")
		rr := testutil.DoRequest(h, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireCaller(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequireCaller(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := testutil.WithCaller(httptest.NewRequest(http.MethodPost, "/", nil), common.HexToAddress("0x01"))
	rr = testutil.DoRequest(h, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
