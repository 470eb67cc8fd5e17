package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"seal/internal/attestation/metrics"
	"seal/internal/attestation/models"
	"seal/internal/events"
	"seal/pkg/domain"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/sentinel"
	"seal/pkg/platform/tx"
	"seal/pkg/requestcontext"
)

// Store persists schemas and attestations. Next*ID return the id the next
// Save will use; inside a transaction the reservation is released on rollback.
type Store interface {
	NextSchemaID(ctx context.Context) (domain.SchemaID, error)
	SaveSchema(ctx context.Context, schema *models.Schema) error
	GetSchema(ctx context.Context, id domain.SchemaID) (*models.Schema, error)
	NextAttestationID(ctx context.Context) (domain.AttestationID, error)
	SaveAttestation(ctx context.Context, att *models.Attestation) error
	GetAttestation(ctx context.Context, id domain.AttestationID) (*models.Attestation, error)
}

// Provider is the in-process attestation provider. It registers schemas,
// stores attestations and calls the schema hook synchronously; a failing
// hook aborts the attestation.
type Provider struct {
	address common.Address
	store   Store
	hooks   *Hooks
	tx      tx.TxRunner
	emitter events.Emitter
	logger  *slog.Logger
	metrics *metrics.Metrics

	// serializes id reservation with the hook call
	mu sync.Mutex
}

type ProviderOption func(*Provider)

func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) { p.logger = logger }
}

func WithProviderMetrics(m *metrics.Metrics) ProviderOption {
	return func(p *Provider) { p.metrics = m }
}

func WithProviderEmitter(e events.Emitter) ProviderOption {
	return func(p *Provider) { p.emitter = e }
}

func NewProvider(address common.Address, store Store, hooks *Hooks, runner tx.TxRunner, opts ...ProviderOption) *Provider {
	p := &Provider{
		address: address,
		store:   store,
		hooks:   hooks,
		tx:      runner,
		emitter: events.Nop{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Address is the provider address hooks see as the caller.
func (p *Provider) Address() common.Address { return p.address }

// RegisterSchema stores schema with the caller as registrant.
func (p *Provider) RegisterSchema(ctx context.Context, schema models.Schema) (domain.SchemaID, error) {
	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !schema.DataLocation.Valid() {
		return 0, dErrors.New(dErrors.CodeValidation, "invalid data_location")
	}

	var id domain.SchemaID
	err := p.tx.RunInTx(ctx, func(ctx context.Context) error {
		next, err := p.store.NextSchemaID(ctx)
		if err != nil {
			return err
		}
		schema.ID = next
		schema.Registrant = caller
		schema.Timestamp = requestcontext.Now(ctx)
		if err := p.store.SaveSchema(ctx, &schema); err != nil {
			return err
		}
		id = next
		return p.emitter.Emit(ctx, events.Event{
			Type:    events.SchemaRegistered,
			Source:  "sp",
			Subject: next.String(),
			Attributes: map[string]string{
				"schema_id":  next.String(),
				"registrant": caller.Hex(),
				"hook":       schema.Hook.Hex(),
			},
		})
	})
	if err != nil {
		return 0, wrapStoreErr(err, "failed to register schema")
	}
	p.logger.InfoContext(ctx, "schema registered",
		"request_id", requestcontext.RequestID(ctx),
		"schema_id", id,
		"registrant", caller.Hex(),
		"hook", schema.Hook.Hex(),
	)
	return id, nil
}

// Attest stores att and invokes the schema hook with extraData. The attester
// must be the caller; when zero it defaults to the caller.
func (p *Provider) Attest(ctx context.Context, att models.Attestation, extraData []byte) (domain.AttestationID, error) {
	caller := requestcontext.Caller(ctx)
	if caller == (common.Address{}) {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if att.Attester == (common.Address{}) {
		att.Attester = caller
	}
	if att.Attester != caller {
		return 0, dErrors.New(dErrors.CodeForbidden, "UNAUTHORIZED")
	}
	if err := att.Validate(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var id domain.AttestationID
	err := p.tx.RunInTx(ctx, func(ctx context.Context) error {
		schema, err := p.store.GetSchema(ctx, att.SchemaID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "schema not found")
			}
			return err
		}
		if att.LinkedAttestationID != 0 {
			if _, err := p.store.GetAttestation(ctx, att.LinkedAttestationID); err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "linked attestation not found")
				}
				return err
			}
		}

		now := requestcontext.Now(ctx)
		if err := checkValidity(schema, att.ValidUntil, now); err != nil {
			return err
		}

		next, err := p.store.NextAttestationID(ctx)
		if err != nil {
			return err
		}
		att.ID = next
		att.AttestTimestamp = now
		att.RevokeTimestamp = time.Time{}
		att.Revoked = false
		att.DataLocation = schema.DataLocation
		if err := p.store.SaveAttestation(ctx, &att); err != nil {
			return err
		}

		if schema.HasHook() {
			hook, ok := p.hooks.Resolve(schema.Hook)
			if !ok {
				return dErrors.Newf(dErrors.CodeUnavailable, "no hook bound at %s", schema.Hook.Hex())
			}
			if err := hook.DidReceiveAttestation(ctx, p.address, att, extraData); err != nil {
				return err
			}
		}

		id = next
		return p.emitter.Emit(ctx, events.Event{
			Type:    events.AttestationMade,
			Source:  "sp",
			Subject: next.String(),
			Attributes: map[string]string{
				"attestation_id": next.String(),
				"schema_id":      att.SchemaID.String(),
				"attester":       att.Attester.Hex(),
				"recipients":     strconv.Itoa(len(att.Recipients)),
			},
		})
	})
	if err != nil {
		p.logger.WarnContext(ctx, "attestation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"schema_id", att.SchemaID,
			"attester", att.Attester.Hex(),
			"error", err,
		)
		return 0, wrapStoreErr(err, "failed to attest")
	}
	if p.metrics != nil {
		p.metrics.IncAttestationsMade()
	}
	p.logger.InfoContext(ctx, "attestation made",
		"request_id", requestcontext.RequestID(ctx),
		"attestation_id", id,
		"schema_id", att.SchemaID,
		"attester", att.Attester.Hex(),
	)
	return id, nil
}

func (p *Provider) GetSchema(ctx context.Context, id domain.SchemaID) (*models.Schema, error) {
	schema, err := p.store.GetSchema(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "schema not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load schema")
	}
	return schema, nil
}

func (p *Provider) GetAttestation(ctx context.Context, id domain.AttestationID) (*models.Attestation, error) {
	att, err := p.store.GetAttestation(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "attestation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attestation")
	}
	return att, nil
}

// checkValidity enforces the schema's maximum validity window.
func checkValidity(schema *models.Schema, validUntil, now time.Time) error {
	if schema.MaxValidFor == 0 {
		return nil
	}
	limit := now.Add(time.Duration(schema.MaxValidFor) * time.Second)
	if validUntil.IsZero() || validUntil.After(limit) {
		return dErrors.New(dErrors.CodeValidation, "ATTESTATION_INVALID_DURATION")
	}
	return nil
}

// wrapStoreErr passes domain errors through and hides everything else.
func wrapStoreErr(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
