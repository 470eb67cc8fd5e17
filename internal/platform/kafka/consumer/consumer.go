// Package consumer runs a consumer-group loop that hands each record to a
// Handler and commits offsets of the records it has handled.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a transport-neutral view of a consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes one message. Errors marked with Retryable are retried
// with backoff and block the partition until they clear; any other error,
// including a panic, is logged and the message is skipped.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// Retryable marks err as transient so the consumer redelivers the message
// instead of skipping it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err, or anything it wraps, was marked with
// Retryable.
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

const (
	defaultRetryMin = 200 * time.Millisecond
	defaultRetryMax = 30 * time.Second
)

type Consumer struct {
	client   *kgo.Client
	handler  Handler
	logger   *slog.Logger
	retryMin time.Duration
	retryMax time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func New(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger, opts ...kgo.Opt) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return newConsumer(client, handler, logger), nil
}

func newConsumer(client *kgo.Client, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		client:   client,
		handler:  handler,
		logger:   logger,
		retryMin: defaultRetryMin,
		retryMax: defaultRetryMax,
		sleep:    sleepContext,
	}
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		var handled []*kgo.Record
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			handled = append(handled, c.process(ctx, p.Records)...)
		})
		if len(handled) > 0 {
			// the commit outlives cancellation so handled records are not redelivered
			commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			if err := c.client.CommitRecords(commitCtx, handled...); err != nil {
				c.logger.ErrorContext(ctx, "kafka commit failed", "error", err)
			}
			cancel()
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// process delivers records in order and returns the prefix that was handled
// or skipped. It stops early only when ctx ends while a retryable failure
// is pending; the remaining records stay uncommitted.
func (c *Consumer) process(ctx context.Context, records []*kgo.Record) []*kgo.Record {
	handled := make([]*kgo.Record, 0, len(records))
	for _, r := range records {
		if !c.deliver(ctx, FromRecord(r)) {
			break
		}
		handled = append(handled, r)
	}
	return handled
}

func (c *Consumer) deliver(ctx context.Context, msg *Message) bool {
	backoff := c.retryMin
	for attempt := 1; ; attempt++ {
		err := c.handle(ctx, msg)
		if err == nil {
			return true
		}
		if !IsRetryable(err) {
			c.logger.WarnContext(ctx, "message handling failed, skipping",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			return true
		}
		c.logger.WarnContext(ctx, "message handling failed, retrying",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if err := c.sleep(ctx, backoff); err != nil {
			return false
		}
		backoff = min(backoff*2, c.retryMax)
	}
}

func (c *Consumer) handle(ctx context.Context, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "message handler panicked",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return c.handler.Handle(ctx, msg)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func FromRecord(r *kgo.Record) *Message {
	msg := &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Timestamp: r.Timestamp,
	}
	if len(r.Headers) > 0 {
		msg.Headers = make(map[string]string, len(r.Headers))
		for _, h := range r.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}
