package cache

import (
	"context"
	"fitformula/api/internal/clock"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDenylistExpires(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	d := NewMemoryDenylist(fake)
	ctx := context.Background()

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Hour))
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	fake.Advance(time.Hour)
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}

func TestMemoryDenylistIgnoresExpiredTokens(t *testing.T) {
	d := NewMemoryDenylist(nil)
	require.NoError(t, d.Revoke(context.Background(), "jti-2", 0))
	revoked, _ := d.IsRevoked(context.Background(), "jti-2")
	assert.False(t, revoked)
	assert.Error(t, d.Revoke(context.Background(), "", time.Minute))
}

func TestMemoryTrialTrackerConsumesOncePerWindow(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	tr := NewMemoryTrialTracker(fake)
	ctx := context.Background()

	ok, err := tr.Consume(ctx, "203.0.113.7", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = tr.Consume(ctx, "203.0.113.7", 24*time.Hour)
	assert.False(t, ok)

	ok, _ = tr.Consume(ctx, "198.51.100.2", 24*time.Hour)
	assert.True(t, ok)

	fake.Advance(24 * time.Hour)
	ok, _ = tr.Consume(ctx, "203.0.113.7", 24*time.Hour)
	assert.True(t, ok)
}

func TestMemoryTrialTrackerRelease(t *testing.T) {
	tr := NewMemoryTrialTracker(nil)
	ctx := context.Background()

	ok, err := tr.Consume(ctx, "203.0.113.7", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, tr.Release(ctx, "203.0.113.7"))
	ok, _ = tr.Consume(ctx, "203.0.113.7", time.Hour)
	assert.True(t, ok)
}
