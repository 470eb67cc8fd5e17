package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/access"
	"seal/internal/events"
	"seal/internal/seal/metrics"
	"seal/internal/seal/models"
	"seal/internal/strategy"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

const eventSource = "seal"

// ActivityStore persists activities and their seals. Mint runs validate on
// the locked activity before spending its credits.
type ActivityStore interface {
	NextID(ctx context.Context) (domain.ActivityID, error)
	Create(ctx context.Context, activity *models.Activity) error
	FindByID(ctx context.Context, id domain.ActivityID) (*models.Activity, error)
	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*models.Activity, error)
	Mint(ctx context.Context, id domain.ActivityID, validate func(*models.Activity) error, recipients []common.Address, attestationID domain.AttestationID, now time.Time) ([]models.Seal, error)
	ListSeals(ctx context.Context, id domain.ActivityID) ([]models.Seal, error)
}

type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
	Put(ctx context.Context, settings models.Settings) error
}

// Config is the host's identity: the account it spends profile credits as
// and the only provider whose attestations it accepts.
type Config struct {
	Address  common.Address
	Provider common.Address
}

// Service is the activity strategy host.
type Service struct {
	cfg        Config
	owner      *access.Ownable
	registry   strategy.RegistryPort
	activities ActivityStore
	settings   SettingsStore
	tx         tx.TxRunner
	emitter    events.Emitter
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

func WithEmitter(e events.Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

func New(cfg Config, owner *access.Ownable, registry strategy.RegistryPort, activities ActivityStore, settings SettingsStore, runner tx.TxRunner, opts ...Option) (*Service, error) {
	if owner == nil || registry == nil || activities == nil || settings == nil || runner == nil {
		return nil, errors.New("seal: owner, registry, activities, settings and runner are required")
	}
	if cfg.Address == (common.Address{}) {
		return nil, errors.New("seal: address is required")
	}
	s := &Service{
		cfg:        cfg,
		owner:      owner,
		registry:   registry,
		activities: activities,
		settings:   settings,
		tx:         runner,
		emitter:    events.Nop{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Address() common.Address { return s.cfg.Address }

func (s *Service) Owner() common.Address { return s.owner.Owner() }

func (s *Service) emit(ctx context.Context, t events.Type, subject string, attrs map[string]string) error {
	return s.emitter.Emit(ctx, events.Event{
		Type:       t,
		Source:     eventSource,
		Subject:    subject,
		Attributes: attrs,
	})
}

func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "activity not found")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
