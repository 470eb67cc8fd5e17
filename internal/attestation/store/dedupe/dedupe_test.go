package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDeduper(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d := NewMemory(time.Hour)
	d.now = func() time.Time { return now }

	first, err := d.Claim(ctx, "0xprovider:1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.Claim(ctx, "0xprovider:1")
	require.NoError(t, err)
	assert.False(t, again, "second claim is a duplicate")

	require.NoError(t, d.Release(ctx, "0xprovider:1"))
	retry, err := d.Claim(ctx, "0xprovider:1")
	require.NoError(t, err)
	assert.True(t, retry, "released keys can be claimed again")

	now = now.Add(2 * time.Hour)
	expired, err := d.Claim(ctx, "0xprovider:1")
	require.NoError(t, err)
	assert.True(t, expired, "claims expire after the ttl")
}
