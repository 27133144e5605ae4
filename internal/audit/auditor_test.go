package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/ledger/ledgertest"
	"github.com/radieske/betting-ledger/internal/wager"
	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

func TestSweepFindsDrift(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	log := zaptest.NewLogger(t)
	eng := wager.NewEngine(store, log)

	ana, err := eng.CreateUser(ctx, wager.NewUser{Username: "ana", Email: "ana@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	bo, err := eng.CreateUser(ctx, wager.NewUser{Username: "bo", Email: "bo@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = eng.AdjustBalance(ctx, ana.ID, decimal.NewFromInt(50))
	require.NoError(t, err)

	m := NewMetrics(prometheus.NewRegistry())
	a := New(store, log, m)

	drifts, err := a.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checked))

	// saldo alterado por fora do ledger
	require.NoError(t, store.WithTx(ctx, func(tx *ledger.Tx) error {
		return tx.SetBalance(ctx, bo.ID, decimal.NewFromInt(5))
	}))

	drifts, err = a.Sweep(ctx)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, bo.ID, drifts[0].UserID)
	assert.True(t, drifts[0].Sum.Equal(ledger.InitialBalance))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Drifts))
}

func TestHandleEventChecksAffectedUsers(t *testing.T) {
	ctx := context.Background()
	store := ledgertest.NewStore(t)
	log := zaptest.NewLogger(t)
	eng := wager.NewEngine(store, log)

	u, err := eng.CreateUser(ctx, wager.NewUser{Username: "ana", Email: "ana@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	m := NewMetrics(nil)
	a := New(store, log, m)

	raw, err := json.Marshal(events.LedgerEvent{Type: events.MatchSettled, MatchID: 1, Users: []int64{u.ID, 999}})
	require.NoError(t, err)
	drifts, err := a.HandleEvent(ctx, raw)
	require.NoError(t, err)
	assert.Empty(t, drifts)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checked))

	_, err = a.HandleEvent(ctx, []byte("not json"))
	assert.Error(t, err)
}
