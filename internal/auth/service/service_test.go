package service_test

import (
	"context"
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"seal/internal/auth/metrics"
	"seal/internal/auth/models"
	"seal/internal/auth/service"
	"seal/internal/auth/store/challenge"
	jwttoken "seal/internal/jwt_token"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/requestcontext"
)

type AuthSuite struct {
	suite.Suite
	key     *ecdsa.PrivateKey
	addr    common.Address
	now     time.Time
	jwt     *jwttoken.JWTService
	metrics *metrics.Metrics
	svc     *service.Service
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	key, err := crypto.GenerateKey()
	s.Require().NoError(err)
	s.key = key
	s.addr = crypto.PubkeyToAddress(key.PublicKey)
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.jwt = jwttoken.NewJWTService("signing-key", "seal", "seal-api")
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())

	s.svc, err = service.New(service.Config{
		Domain:       "seal.test",
		TokenTTL:     time.Hour,
		ChallengeTTL: time.Minute,
	}, challenge.NewInMemoryStore(), s.jwt, service.WithMetrics(s.metrics))
	s.Require().NoError(err)
}

func (s *AuthSuite) ctx(at time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), at)
}

func (s *AuthSuite) sign(key *ecdsa.PrivateKey, message string) []byte {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	s.Require().NoError(err)
	return sig
}

func (s *AuthSuite) TestChallenge() {
	c, err := s.svc.Challenge(s.ctx(s.now), s.addr)
	s.Require().NoError(err)
	s.Equal(s.addr, c.Address)
	s.NotEmpty(c.Nonce)
	s.Contains(c.Message, "seal.test wants you to sign in")
	s.Contains(c.Message, s.addr.Hex())
	s.Contains(c.Message, c.Nonce)
	s.Equal(s.now.Add(time.Minute), c.ExpiresAt)

	_, err = s.svc.Challenge(s.ctx(s.now), common.Address{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AuthSuite) TestTokenForValidSignature() {
	c, err := s.svc.Challenge(s.ctx(s.now), s.addr)
	s.Require().NoError(err)

	s.Run("wallet style recovery id", func() {
		sig := s.sign(s.key, c.Message)
		sig[crypto.RecoveryIDOffset] += 27

		res, err := s.svc.Token(s.ctx(s.now.Add(10*time.Second)), s.addr, sig)
		s.Require().NoError(err)
		s.Equal("Bearer", res.TokenType)
		s.Equal(int64(3600), res.ExpiresIn)

		claims, err := s.jwt.ValidateToken(res.AccessToken)
		s.Require().NoError(err)
		s.Equal(s.addr, claims.Caller())
	})

	s.Run("the challenge cannot be replayed", func() {
		_, err := s.svc.Token(s.ctx(s.now), s.addr, s.sign(s.key, c.Message))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("no outstanding challenge", dErrors.MessageOf(err))
	})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.TokensIssued))
}

func (s *AuthSuite) TestTokenRejections() {
	other, err := crypto.GenerateKey()
	s.Require().NoError(err)

	tests := []struct {
		name string
		at   time.Duration
		sig  func(msg string) []byte
		want string
	}{
		{"signed by another key", 0, func(msg string) []byte { return s.sign(other, msg) }, "signature does not match address"},
		{"malformed signature", 0, func(string) []byte { return []byte{1, 2, 3} }, "invalid signature"},
		{"signature over another message", 0, func(string) []byte { return s.sign(s.key, "hello") }, "signature does not match address"},
		{"expired challenge", 2 * time.Minute, func(msg string) []byte { return s.sign(s.key, msg) }, "challenge expired"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			c, err := s.svc.Challenge(s.ctx(s.now), s.addr)
			s.Require().NoError(err)

			_, err = s.svc.Token(s.ctx(s.now.Add(tt.at)), s.addr, tt.sig(c.Message))
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
			s.Equal(tt.want, dErrors.MessageOf(err))
		})
	}

	s.Run("no challenge was issued", func() {
		_, err := s.svc.Token(s.ctx(s.now), common.HexToAddress("0x1234"), make([]byte, 65))
		s.Equal("no outstanding challenge", dErrors.MessageOf(err))
	})
}

func TestRecoverSigner(t *testing.T) {
	key, _ := crypto.GenerateKey()
	msg := models.ChallengeMessage("seal", crypto.PubkeyToAddress(key.PublicKey), "n", time.Unix(0, 0))
	sig, _ := crypto.Sign(accounts.TextHash([]byte(msg)), key)

	got, err := service.RecoverSigner(msg, sig)
	if err != nil || got != crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatalf("RecoverSigner() = %s, %v", got.Hex(), err)
	}

	sig[crypto.RecoveryIDOffset] = 5
	if _, err := service.RecoverSigner(msg, sig); err == nil {
		t.Fatal("expected error for recovery id 5")
	}
}
