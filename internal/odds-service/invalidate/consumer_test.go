package invalidate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

type fakeInvalidator struct {
	calls [][]int64
	err   error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, ids ...int64) error {
	f.calls = append(f.calls, ids)
	return f.err
}

func raw(t *testing.T, ev events.LedgerEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func TestHandleMatchEvents(t *testing.T) {
	ctx := context.Background()
	inv := &fakeInvalidator{}

	for _, typ := range []string{events.MatchScheduled, events.MatchSettled, events.MatchCancelled} {
		ok, err := Handle(ctx, inv, raw(t, events.LedgerEvent{Type: typ, MatchID: 7}))
		require.NoError(t, err)
		assert.True(t, ok, typ)
	}
	assert.Equal(t, [][]int64{{7}, {7}, {7}}, inv.calls)
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	inv := &fakeInvalidator{}
	ok, err := Handle(context.Background(), inv, raw(t, events.LedgerEvent{Type: events.BetPlaced, MatchID: 7}))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, inv.calls)
}

func TestHandleErrors(t *testing.T) {
	_, err := Handle(context.Background(), &fakeInvalidator{}, []byte("{"))
	assert.Error(t, err)

	inv := &fakeInvalidator{err: errors.New("redis down")}
	ok, err := Handle(context.Background(), inv, raw(t, events.LedgerEvent{Type: events.MatchSettled, MatchID: 1}))
	assert.Error(t, err)
	assert.False(t, ok)
}
