package service

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/access"
	"seal/internal/events"
	"seal/internal/registry/metrics"
	"seal/internal/registry/models"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

var (
	// OwnerRole administers the registry ledger.
	OwnerRole = domain.RoleID("seal_OWNER")
	// StrategyRole may consume profile credits.
	StrategyRole = domain.RoleID("seal_STRATEGY")
)

const eventSource = "registry"

// ProfileStore persists profiles. Create returns sentinel.ErrAlreadyUsed when
// the id or the anchor is taken. Execute loads a profile, runs validate and
// then mutate while holding the record, and saves the result.
type ProfileStore interface {
	Create(ctx context.Context, profile *models.Profile) error
	FindByID(ctx context.Context, id domain.ProfileID) (*models.Profile, error)
	FindByAnchor(ctx context.Context, anchor common.Address) (*models.Profile, error)
	ListByAccount(ctx context.Context, account common.Address) ([]*models.Profile, error)
	Execute(ctx context.Context, id domain.ProfileID, validate func(*models.Profile) error, mutate func(*models.Profile)) (*models.Profile, error)
}

// AccountStore persists the account ledger. Unknown accounts read as a zero
// balance without authorization; Execute creates them on first write.
type AccountStore interface {
	Find(ctx context.Context, account common.Address) (*models.Account, error)
	Execute(ctx context.Context, account common.Address, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error)
}

type SettingsStore interface {
	AttestationProvider(ctx context.Context) (common.Address, error)
	SetAttestationProvider(ctx context.Context, provider common.Address) error
}

// Service is the registry: profiles, the account credit ledger and the
// profile-creation hook.
type Service struct {
	profiles ProfileStore
	accounts AccountStore
	settings SettingsStore
	roles    *access.Roles
	tx       tx.TxRunner
	emitter  events.Emitter
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithEmitter(e events.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

func New(profiles ProfileStore, accounts AccountStore, settings SettingsStore, roles *access.Roles, runner tx.TxRunner, opts ...Option) *Service {
	s := &Service{
		profiles: profiles,
		accounts: accounts,
		settings: settings,
		roles:    roles,
		tx:       runner,
		emitter:  events.Nop{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedRoles installs the registry role hierarchy: owner administers itself
// and the strategy role.
func SeedRoles(roles *access.Roles, owner common.Address, strategies ...common.Address) {
	roles.Seed(access.DefaultAdminRole, owner)
	roles.Seed(OwnerRole, owner)
	roles.SetRoleAdmin(OwnerRole, OwnerRole)
	roles.SetRoleAdmin(StrategyRole, OwnerRole)
	roles.Seed(StrategyRole, strategies...)
}

func (s *Service) emit(ctx context.Context, t events.Type, subject string, attrs map[string]string) error {
	return s.emitter.Emit(ctx, events.Event{
		Type:       t,
		Source:     eventSource,
		Subject:    subject,
		Attributes: attrs,
	})
}

func requireAddress(a common.Address) error {
	if a == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "ZERO_ADDRESS")
	}
	return nil
}

// maxCredits bounds any amount or balance; postgres stores them as BIGINT.
const maxCredits = math.MaxInt64

func requireCredits(credits uint64) error {
	if credits == 0 || credits > maxCredits {
		return dErrors.New(dErrors.CodeValidation, "INVALID_CREDITS")
	}
	return nil
}

func requireProfileID(id domain.ProfileID) error {
	if id.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "profile id is required")
	}
	return nil
}

func unauthorized() error {
	return dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")
}

// wrapErr maps store facts to domain errors and passes domain errors through.
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "profile not found")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
