package producer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

func TestMessageKeys(t *testing.T) {
	cases := []struct {
		ev   events.LedgerEvent
		want string
	}{
		{events.LedgerEvent{Type: events.BetPlaced, UserID: 4, MatchID: 9}, "user:4"},
		{events.LedgerEvent{Type: events.MatchSettled, MatchID: 9}, "match:9"},
		{events.LedgerEvent{Type: events.ResultsImported, Count: 3}, "results_imported"},
	}
	for _, c := range cases {
		msg, err := message(c.ev)
		require.NoError(t, err)
		assert.Equal(t, c.want, string(msg.Key))
	}
}

func TestMessageStampsTime(t *testing.T) {
	msg, err := message(events.LedgerEvent{Type: events.UserRegistered, UserID: 1, Amount: "1000"})
	require.NoError(t, err)

	var got events.LedgerEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "1000", got.Amount)
	assert.NotZero(t, got.TsUnixMs)

	msg, err = message(events.LedgerEvent{Type: events.UserRegistered, TsUnixMs: 42})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, int64(42), got.TsUnixMs)
}
