package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"seal/internal/auth/metrics"
	"seal/internal/auth/models"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/middleware/request"
	"seal/pkg/platform/sentinel"
	"seal/pkg/requestcontext"
)

// ChallengeStore keeps at most one outstanding challenge per address. Take
// removes and returns it, or sentinel.ErrNotFound.
type ChallengeStore interface {
	Save(ctx context.Context, challenge models.Challenge, ttl time.Duration) error
	Take(ctx context.Context, address common.Address) (*models.Challenge, error)
}

type TokenIssuer interface {
	GenerateAccessToken(caller common.Address, now time.Time, expiresIn time.Duration) (string, error)
}

type Config struct {
	// Domain names the service in the signed message.
	Domain       string
	TokenTTL     time.Duration
	ChallengeTTL time.Duration
}

type Service struct {
	cfg        Config
	challenges ChallengeStore
	tokens     TokenIssuer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(cfg Config, challenges ChallengeStore, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if challenges == nil || tokens == nil {
		return nil, errors.New("auth: challenges and tokens are required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	if cfg.Domain == "" {
		cfg.Domain = "seal"
	}
	s := &Service{
		cfg:        cfg,
		challenges: challenges,
		tokens:     tokens,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Challenge issues a fresh message for address to sign, replacing any earlier one.
func (s *Service) Challenge(ctx context.Context, address common.Address) (*models.Challenge, error) {
	if address == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	now := requestcontext.Now(ctx)
	nonce := uuid.NewString()
	c := models.Challenge{
		Address:   address,
		Nonce:     nonce,
		Message:   models.ChallengeMessage(s.cfg.Domain, address, nonce, now),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.ChallengeTTL),
	}
	if err := s.challenges.Save(ctx, c, s.cfg.ChallengeTTL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save challenge")
	}
	if s.metrics != nil {
		s.metrics.ChallengesIssued.Inc()
	}
	return &c, nil
}

// Token exchanges a signature over the outstanding challenge for a caller
// token. The challenge is consumed whether or not the signature verifies.
func (s *Service) Token(ctx context.Context, address common.Address, signature []byte) (*models.TokenResult, error) {
	if address == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	now := requestcontext.Now(ctx)

	c, err := s.challenges.Take(ctx, address)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.reject(ctx, address, "no_challenge", "no outstanding challenge")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load challenge")
	}
	if c.IsExpired(now) {
		return nil, s.reject(ctx, address, "expired", "challenge expired")
	}

	signer, err := RecoverSigner(c.Message, signature)
	if err != nil {
		return nil, s.reject(ctx, address, "bad_signature", "invalid signature")
	}
	if signer != address {
		return nil, s.reject(ctx, address, "wrong_signer", "signature does not match address")
	}

	token, err := s.tokens.GenerateAccessToken(address, now, s.cfg.TokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	if s.metrics != nil {
		s.metrics.TokensIssued.Inc()
	}
	s.logger.InfoContext(ctx, "caller token issued",
		"caller", address.Hex(),
		"request_id", requestcontext.RequestID(ctx),
		"client", request.GetClient(ctx),
	)
	return &models.TokenResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.TokenTTL / time.Second),
		Caller:      address,
	}, nil
}

func (s *Service) reject(ctx context.Context, address common.Address, reason, msg string) error {
	if s.metrics != nil {
		s.metrics.IncLoginFailure(reason)
	}
	s.logger.WarnContext(ctx, "sign-in rejected",
		"address", address.Hex(),
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
		"client_ip", request.GetClientIP(ctx),
		"client", request.GetClient(ctx),
	)
	return dErrors.New(dErrors.CodeUnauthorized, msg)
}
