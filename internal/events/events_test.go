package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"seal/internal/events"
	"seal/internal/events/store/memory"
	"seal/pkg/platform/circuit"
	"seal/pkg/platform/tx"
	"seal/pkg/requestcontext"
)

type fakePublisher struct {
	mu      sync.Mutex
	fail    bool
	records []string
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, _ []byte, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.records = append(p.records, topic+"/"+headers["event_type"]+"/"+string(key))
	return nil
}

type OutboxSuite struct {
	suite.Suite
	store     *memory.InMemoryStore
	outbox    *events.Outbox
	publisher *fakePublisher
	now       time.Time
}

func TestOutboxSuite(t *testing.T) {
	suite.Run(t, new(OutboxSuite))
}

func (s *OutboxSuite) SetupTest() {
	s.store = memory.New()
	s.outbox = events.NewOutbox(s.store)
	s.publisher = &fakePublisher{}
	s.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func (s *OutboxSuite) emit(ctx context.Context, t events.Type, subject string) {
	s.Require().NoError(s.outbox.Emit(ctx, events.Event{Type: t, Source: "registry", Subject: subject}))
}

func (s *OutboxSuite) relay(opts ...events.RelayOption) *events.Relay {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]events.RelayOption{events.WithClock(func() time.Time { return s.now })}, opts...)
	return events.NewRelay(s.store, s.publisher, "seal.events", logger, opts...)
}

func (s *OutboxSuite) TestEmit() {
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), s.now), "req-1")
	s.emit(ctx, events.ProfileCreated, "0x01")

	list, err := s.outbox.List(ctx, events.Filter{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(uint64(1), list[0].Seq)
	s.Equal(s.now, list[0].OccurredAt)
	s.Equal("req-1", list[0].RequestID)
	s.NotEmpty(list[0].ID)
}

func (s *OutboxSuite) TestListFilter() {
	ctx := context.Background()
	s.emit(ctx, events.ProfileCreated, "0x01")
	s.emit(ctx, events.CreditsAddedToAccount, "0xaa")
	s.emit(ctx, events.ProfileCreated, "0x02")

	list, err := s.outbox.List(ctx, events.Filter{Type: events.ProfileCreated})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("0x01", list[0].Subject, "oldest first")

	list, err = s.outbox.List(ctx, events.Filter{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("0x02", list[0].Subject, "limit keeps the newest")
}

func (s *OutboxSuite) TestRolledBackEmitsAreDropped() {
	runner := tx.NewMemoryRunner()
	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		s.emit(ctx, events.CreditsAddedToAccount, "0xaa")
		return errors.New("INVALID_CREDITS")
	})
	s.Require().Error(err)

	list, err := s.outbox.List(context.Background(), events.Filter{})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *OutboxSuite) TestRelayPublishesInOrder() {
	ctx := context.Background()
	s.emit(ctx, events.ProfileCreated, "0x01")
	s.emit(ctx, events.ProfileNameUpdated, "0x01")

	n, err := s.relay().Flush(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal([]string{
		"seal.events/profile_created/0x01",
		"seal.events/profile_name_updated/0x01",
	}, s.publisher.records)

	pending, err := s.store.ListUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)

	n, err = s.relay().Flush(ctx)
	s.Require().NoError(err)
	s.Zero(n, "published events are not sent twice")
}

func (s *OutboxSuite) TestRelayBreaker() {
	ctx := context.Background()
	s.now = time.Now()
	s.emit(ctx, events.ProfileCreated, "0x01")
	s.publisher.fail = true

	breaker := circuit.New("test", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1), circuit.WithCooldown(time.Minute))
	relay := s.relay(events.WithBreaker(breaker))

	_, err := relay.Flush(ctx)
	s.Require().Error(err)
	s.True(breaker.IsOpen())

	s.publisher.fail = false
	n, err := relay.Flush(ctx)
	s.Require().NoError(err)
	s.Zero(n, "open breaker skips the flush")

	s.now = s.now.Add(2 * time.Minute)
	n, err = relay.Flush(ctx)
	s.Require().NoError(err)
	s.Equal(1, n, "trial call after cooldown publishes")
	s.False(breaker.IsOpen())
}
