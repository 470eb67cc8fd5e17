package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/access"
	"seal/internal/certify/metrics"
	"seal/internal/certify/models"
	"seal/internal/events"
	"seal/internal/strategy"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
)

const eventSource = "certify"

// CourseStore persists courses and their certificates. NextID reserves the
// next course id; inside a transaction a rollback gives it back. Mint numbers
// certificates after the course's current supply and stores them.
type CourseStore interface {
	NextID(ctx context.Context) (domain.CourseID, error)
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id domain.CourseID) (*models.Course, error)
	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]*models.Course, error)
	Mint(ctx context.Context, id domain.CourseID, recipients []common.Address, attestationID domain.AttestationID, now time.Time) ([]models.Certificate, error)
	ListCertificates(ctx context.Context, id domain.CourseID) ([]models.Certificate, error)
}

// Config is the host's identity and pricing. Address is the account the
// host spends profile credits as; only attestations relayed by Provider are
// accepted.
type Config struct {
	Address            common.Address
	Provider           common.Address
	CourseCreationCost uint64
	MintCost           uint64
}

// Service is the course strategy host.
type Service struct {
	cfg      Config
	owner    *access.Ownable
	catalog  *strategy.Catalog
	registry strategy.RegistryPort
	courses  CourseStore
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

func New(cfg Config, owner *access.Ownable, catalog *strategy.Catalog, registry strategy.RegistryPort, courses CourseStore, runner tx.TxRunner, opts ...Option) (*Service, error) {
	if owner == nil || catalog == nil || registry == nil || courses == nil || runner == nil {
		return nil, errors.New("certify: owner, catalog, registry, courses and runner are required")
	}
	if cfg.Address == (common.Address{}) {
		return nil, errors.New("certify: address is required")
	}
	s := &Service{
		cfg:      cfg,
		owner:    owner,
		catalog:  catalog,
		registry: registry,
		courses:  courses,
		tx:       runner,
		emitter:  events.Nop{},
		logger:   slog.Default(),
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
		return dErrors.New(dErrors.CodeNotFound, "course not found")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
