package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"seal/internal/events/metrics"
	"seal/pkg/requestcontext"
)

// Outbox is the Emitter services use.
type Outbox struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Outbox)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Outbox) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Outbox) { o.metrics = m }
}

func NewOutbox(store Store, opts ...Option) *Outbox {
	o := &Outbox{store: store}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Emit stamps the event with an id, the request time and request id, and
// appends it to the store.
func (o *Outbox) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Attributes == nil {
		event.Attributes = map[string]string{}
	}
	stored, err := o.store.Append(ctx, event)
	if err != nil {
		return err
	}
	if o.metrics != nil {
		o.metrics.IncEmitted(string(stored.Type))
	}
	if o.logger != nil {
		o.logger.DebugContext(ctx, "event emitted",
			"event_type", stored.Type,
			"subject", stored.Subject,
			"seq", stored.Seq,
		)
	}
	return nil
}

func (o *Outbox) List(ctx context.Context, filter Filter) ([]Event, error) {
	return o.store.List(ctx, filter)
}
