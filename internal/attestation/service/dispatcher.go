package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"seal/internal/attestation/metrics"
	"seal/internal/attestation/models"
	dErrors "seal/pkg/domain-errors"
	"seal/pkg/platform/tx"
	"seal/pkg/requestcontext"
)

// Deduper remembers delivered keys. Claim returns false when key was already
// claimed; Release forgets a key so a failed delivery can be retried.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Dispatcher delivers attestations observed on external providers to the
// hook bound at their schema's hook address. Deliveries are idempotent per
// (provider, attestation id).
type Dispatcher struct {
	hooks   *Hooks
	dedupe  Deduper
	tx      tx.TxRunner
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithDispatcherMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) { d.tracer = t }
}

func NewDispatcher(hooks *Hooks, dedupe Deduper, runner tx.TxRunner, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		hooks:  hooks,
		dedupe: dedupe,
		tx:     runner,
		tracer: otel.Tracer("seal/attestation"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch invokes the hook for env. delivered is false when the attestation
// had already been delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, env models.Envelope) (delivered bool, err error) {
	if err := env.Validate(); err != nil {
		return false, err
	}
	hook, ok := d.hooks.Resolve(env.Hook)
	if !ok {
		return false, dErrors.Newf(dErrors.CodeNotFound, "no hook bound at %s", env.Hook.Hex())
	}
	att := env.Attestation.ToAttestation()
	key := deliveryKey(env.Provider, att.ID.String())

	ctx, span := d.tracer.Start(ctx, "attestation.dispatch", trace.WithAttributes(
		attribute.String("provider", env.Provider.Hex()),
		attribute.String("hook", env.Hook.Hex()),
		attribute.Int64("attestation_id", int64(att.ID)),
	))
	defer span.End()

	first, err := d.dedupe.Claim(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dedupe unavailable")
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "attestation de-duplication unavailable")
	}
	if !first {
		span.SetAttributes(attribute.Bool("duplicate", true))
		d.count("duplicate")
		d.logger.InfoContext(ctx, "duplicate attestation skipped",
			"provider", env.Provider.Hex(),
			"attestation_id", att.ID,
		)
		return false, nil
	}

	start := time.Now()
	err = d.tx.RunInTx(ctx, func(ctx context.Context) error {
		return hook.DidReceiveAttestation(ctx, env.Provider, att, env.ExtraData)
	})
	if d.metrics != nil {
		d.metrics.ObserveDispatch(start)
	}
	if err != nil {
		if relErr := d.dedupe.Release(ctx, key); relErr != nil {
			d.logger.ErrorContext(ctx, "failed to release dedupe key", "key", key, "error", relErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
		d.count("rejected")
		d.logger.WarnContext(ctx, "attestation rejected by hook",
			"request_id", requestcontext.RequestID(ctx),
			"provider", env.Provider.Hex(),
			"hook", env.Hook.Hex(),
			"attestation_id", att.ID,
			"error", err,
		)
		return false, wrapStoreErr(err, "hook failed")
	}

	d.count("delivered")
	d.logger.InfoContext(ctx, "attestation delivered",
		"provider", env.Provider.Hex(),
		"hook", env.Hook.Hex(),
		"attestation_id", att.ID,
	)
	return true, nil
}

func (d *Dispatcher) count(outcome string) {
	if d.metrics != nil {
		d.metrics.IncDispatched(outcome)
	}
}

func deliveryKey(provider common.Address, attestationID string) string {
	return provider.Hex() + ":" + attestationID
}
