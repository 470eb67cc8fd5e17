package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"seal/internal/events/metrics"
	"seal/pkg/platform/circuit"
)

// Publisher is the broker side of the relay.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Relay moves unpublished outbox events to the broker in append order.
// Publishing stops at the first failure so ordering per run is preserved;
// the breaker limits attempts while the broker is down.
type Relay struct {
	store     Store
	publisher Publisher
	topic     string
	interval  time.Duration
	batch     int
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) RelayOption {
	return func(r *Relay) { r.breaker = b }
}

func WithRelayMetrics(m *metrics.Metrics) RelayOption {
	return func(r *Relay) { r.metrics = m }
}

func WithClock(now func() time.Time) RelayOption {
	return func(r *Relay) { r.now = now }
}

func NewRelay(store Store, publisher Publisher, topic string, logger *slog.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		topic:     topic,
		interval:  time.Second,
		batch:     100,
		breaker:   circuit.New("outbox-relay", circuit.WithFailureThreshold(3), circuit.WithCooldown(10*time.Second)),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "outbox relay flush failed", "error", err)
			}
		}
	}
}

// Flush publishes one batch and returns how many events were published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	if !r.breaker.Allow(r.now()) {
		return 0, nil
	}
	pending, err := r.store.ListUnpublished(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("list unpublished events: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(pending))
	var publishErr error
	for _, ev := range pending {
		if err := r.publish(ctx, ev); err != nil {
			publishErr = err
			r.recordFailure(ctx)
			break
		}
		r.recordSuccess(ctx)
		published = append(published, ev.ID)
	}

	if len(published) > 0 {
		if err := r.store.MarkPublished(ctx, published, r.now()); err != nil {
			return 0, fmt.Errorf("mark events published: %w", err)
		}
		if r.metrics != nil {
			r.metrics.AddPublished(len(published))
		}
	}
	return len(published), publishErr
}

func (r *Relay) publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	headers := map[string]string{
		"event_type": string(ev.Type),
		"source":     ev.Source,
		"event_id":   ev.ID.String(),
	}
	return r.publisher.Publish(ctx, r.topic, []byte(ev.Subject), value, headers)
}

func (r *Relay) recordFailure(ctx context.Context) {
	if r.metrics != nil {
		r.metrics.IncPublishErrors()
	}
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.WarnContext(ctx, "outbox relay circuit opened", "breaker", r.breaker.Name())
		if r.metrics != nil {
			r.metrics.SetBreakerOpen(true)
		}
	}
}

func (r *Relay) recordSuccess(ctx context.Context) {
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "outbox relay circuit closed", "breaker", r.breaker.Name())
		if r.metrics != nil {
			r.metrics.SetBreakerOpen(false)
		}
	}
}
