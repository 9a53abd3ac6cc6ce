package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	d, err := l.Allow(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, _ = l.Allow(ctx, "user-a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Allow(ctx, "user-a")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.ResetIn)

	t.Run("keys are independent", func(t *testing.T) {
		d, _ := l.Allow(ctx, "user-b")
		assert.True(t, d.Allowed)
	})

	t.Run("window rollover resets", func(t *testing.T) {
		now = now.Add(time.Minute)
		d, _ := l.Allow(ctx, "user-a")
		assert.True(t, d.Allowed)
	})
}

func TestUnlimited(t *testing.T) {
	d, err := Unlimited{}.Allow(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
