package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcome is one recorded call result: true for success.
type outcome bool

const (
	ok   outcome = true
	fail outcome = false
)

func record(b *Breaker, outcomes ...outcome) {
	for _, o := range outcomes {
		if o {
			b.RecordSuccess()
		} else {
			b.RecordFailure()
		}
	}
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		outcomes []outcome
		want     State
	}{
		{"new breaker is closed", nil, nil, StateClosed},
		{"opens at failure threshold", []Option{WithFailureThreshold(3)}, []outcome{fail, fail, fail}, StateOpen},
		{"stays closed below threshold", []Option{WithFailureThreshold(3)}, []outcome{fail, fail}, StateClosed},
		{"success resets failure streak", []Option{WithFailureThreshold(3)}, []outcome{fail, fail, ok, fail, fail}, StateClosed},
		{"default threshold is five", nil, []outcome{fail, fail, fail, fail, fail}, StateOpen},
		{
			"closes after success threshold",
			[]Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			[]outcome{fail, ok, ok},
			StateClosed,
		},
		{
			"failure while open resets success streak",
			[]Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			[]outcome{fail, ok, ok, fail, ok, ok},
			StateOpen,
		},
		{"non-positive options keep defaults", []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)}, []outcome{fail, fail, fail, fail}, StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("outbox-relay", tt.opts...)
			record(b, tt.outcomes...)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerReportsStateChanges(t *testing.T) {
	b := New("outbox-relay", WithFailureThreshold(2), WithSuccessThreshold(1))
	assert.Equal(t, "outbox-relay", b.Name())

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.Equal(t, StateChange{}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	t.Run("further failures while open change nothing", func(t *testing.T) {
		useFallback, change := b.RecordFailure()
		assert.True(t, useFallback)
		assert.Equal(t, StateChange{}, change)
	})

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreakerReset(t *testing.T) {
	b := New("outbox-relay", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())

	// counters are cleared too
	b.RecordSuccess()
	assert.False(t, b.IsOpen())
}

func TestBreakerAllow(t *testing.T) {
	b := New("outbox-relay", WithFailureThreshold(1), WithCooldown(time.Minute))
	start := time.Now()
	assert.True(t, b.Allow(start), "closed breaker always allows")

	b.RecordFailure()
	assert.False(t, b.Allow(start))

	trial := start.Add(2 * time.Minute)
	assert.True(t, b.Allow(trial))
	assert.False(t, b.Allow(trial.Add(time.Second)), "one trial call per cooldown window")
	assert.True(t, b.Allow(trial.Add(time.Minute)))
}
