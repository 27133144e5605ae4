package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/betting-ledger/internal/ledger/ledgertest"
	"github.com/radieske/betting-ledger/internal/wager"
)

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	log := zaptest.NewLogger(t)
	eng := wager.NewEngine(store, log)

	require.NoError(t, EnsureAdmin(ctx, store, eng, log, "admin", "admin@example.com", "changeme"))
	require.NoError(t, EnsureAdmin(ctx, store, eng, log, "admin", "admin@example.com", "changeme"))

	users, err := store.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin)
	assert.NoError(t, CheckPassword(users[0].PasswordHash, "changeme"))
}

func TestEnsureAdminDisabled(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	log := zaptest.NewLogger(t)

	require.NoError(t, EnsureAdmin(ctx, store, wager.NewEngine(store, log), log, "admin", "", ""))
	users, err := store.Users(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
