package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestRouter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var got []string
	record := func(name string) Handler {
		return HandlerFunc(func(_ context.Context, msg *Message) error {
			got = append(got, name+":"+string(msg.Key))
			return nil
		})
	}

	t.Run("routes by topic", func(t *testing.T) {
		got = nil
		r := NewRouter(logger, nil)
		r.Register("seal.attestations", record("attestations"))

		require.NoError(t, r.Handle(context.Background(), &Message{Topic: "seal.attestations", Key: []byte("1")}))
		require.NoError(t, r.Handle(context.Background(), &Message{Topic: "other", Key: []byte("2")}))
		assert.Equal(t, []string{"attestations:1"}, got)
		assert.Equal(t, []string{"seal.attestations"}, r.Topics())
	})

	t.Run("unknown topics go to the fallback", func(t *testing.T) {
		got = nil
		r := NewRouter(logger, record("fallback"))
		require.NoError(t, r.Handle(context.Background(), &Message{Topic: "other", Key: []byte("3")}))
		assert.Equal(t, []string{"fallback:3"}, got)
	})
}

func TestFromRecord(t *testing.T) {
	msg := FromRecord(&kgo.Record{
		Topic:   "seal.attestations",
		Key:     []byte("k"),
		Value:   []byte(`{}`),
		Offset:  42,
		Headers: []kgo.RecordHeader{{Key: "provider", Value: []byte("0xabc")}},
	})
	assert.Equal(t, int64(42), msg.Offset)
	assert.Equal(t, "0xabc", msg.Headers["provider"])
}
