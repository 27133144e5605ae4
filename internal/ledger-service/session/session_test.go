package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	token, err := m.Create(ctx, 42)
	require.NoError(t, err)
	_, err = uuid.Parse(token)
	require.NoError(t, err)

	id, err := m.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	require.NoError(t, m.Delete(ctx, token))
	_, err = m.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemorySessionExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	token, err := m.Create(ctx, 1)
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = m.Lookup(ctx, token)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = m.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryUnknownToken(t *testing.T) {
	_, err := NewMemory(time.Hour).Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSession)
}
