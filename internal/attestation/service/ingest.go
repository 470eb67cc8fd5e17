package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"seal/internal/attestation/metrics"
	"seal/internal/attestation/models"
	"seal/internal/platform/kafka/consumer"
	dErrors "seal/pkg/domain-errors"
)

// Ingest adapts the Dispatcher to the Kafka consumer. Records that do not
// decode into a valid Envelope, or that a hook rejects, are logged and
// skipped. Transient dispatch failures are returned as retryable so the
// record is redelivered.
type Ingest struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewIngest(dispatcher *Dispatcher, logger *slog.Logger, m *metrics.Metrics) *Ingest {
	return &Ingest{dispatcher: dispatcher, logger: logger, metrics: m}
}

func (i *Ingest) Handle(ctx context.Context, msg *consumer.Message) error {
	var env models.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		i.malformed(ctx, msg, err)
		return nil
	}
	if err := env.Validate(); err != nil {
		i.malformed(ctx, msg, err)
		return nil
	}
	if _, err := i.dispatcher.Dispatch(ctx, env); err != nil {
		if transient(err) {
			return consumer.Retryable(err)
		}
		i.logger.WarnContext(ctx, "attestation record rejected, skipping",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"attestation_id", env.Attestation.ID,
			"error", err,
		)
	}
	return nil
}

func transient(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnavailable, dErrors.CodeTimeout, dErrors.CodeInternal:
		return true
	}
	return false
}

func (i *Ingest) malformed(ctx context.Context, msg *consumer.Message, err error) {
	if i.metrics != nil {
		i.metrics.IncIngestMalformed()
	}
	i.logger.WarnContext(ctx, "malformed attestation record skipped",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"error", err,
	)
}
