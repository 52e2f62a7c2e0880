package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Orders  int64 `json:"orders"`
	Revenue int64 `json:"revenue"`
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got stats
	assert.ErrorIs(t, m.Get(ctx, KeyDashboard, &got), ErrMiss)

	require.NoError(t, m.Set(ctx, KeyDashboard, stats{Orders: 3, Revenue: 47600}, TTLShort))
	require.NoError(t, m.Get(ctx, KeyDashboard, &got))
	assert.Equal(t, stats{Orders: 3, Revenue: 47600}, got)

	require.NoError(t, m.Delete(ctx, KeyDashboard, ProductKey(1)))
	assert.ErrorIs(t, m.Get(ctx, KeyDashboard, &got), ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", 1, time.Minute))
	now = now.Add(2 * time.Minute)

	var v int
	assert.ErrorIs(t, m.Get(ctx, "k", &v), ErrMiss)
}

func TestNopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	require.NoError(t, c.Set(ctx, "k", 1, TTLShort))

	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrMiss)
	assert.Equal(t, "product:42", ProductKey(42))
}
