package upload

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/betting-ledger/internal/ledger"
)

func TestParseResults(t *testing.T) {
	in := `home_team,away_team,match_datetime,home_score,away_score
Lions,Tigers,2024-03-01 19:30:00,2,1

Bears, Lions ,2024-03-08T20:00:00Z,0,0
`
	rows, err := ParseResults(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Lions", rows[0].HomeTeam)
	assert.Equal(t, time.Date(2024, 3, 1, 19, 30, 0, 0, time.UTC), rows[0].Kickoff)
	assert.Equal(t, 2, rows[0].HomeScore)

	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "Lions", rows[1].AwayTeam)
	assert.Equal(t, 0, rows[1].AwayScore)
}

func TestParseResultsAliasesAndOrder(t *testing.T) {
	in := "away_score,home_score,kickoff,away_team_id,home_team_id\n1,3,2024-05-05,Tigers,Lions\n"
	rows, err := ParseResults(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lions", rows[0].HomeTeam)
	assert.Equal(t, "Tigers", rows[0].AwayTeam)
	assert.Equal(t, 3, rows[0].HomeScore)
	assert.Equal(t, 1, rows[0].AwayScore)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), rows[0].Kickoff)
}

func TestParseResultsErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		msg  string
	}{
		{"empty", "", "empty"},
		{"header only", "home_team,away_team,match_datetime,home_score,away_score\n", "no data rows"},
		{"missing column", "home_team,away_team,home_score,away_score\nA,B,1,0\n", "kickoff"},
		{"bad score", "home_team,away_team,match_datetime,home_score,away_score\nA,B,2024-01-01,x,0\n", "line 2"},
		{"negative score", "home_team,away_team,match_datetime,home_score,away_score\nA,B,2024-01-01,1,0\nA,C,2024-01-01,1,-2\n", "line 3"},
		{"bad date", "home_team,away_team,match_datetime,home_score,away_score\nA,B,01/02/2024,1,0\n", "line 2"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseResults(strings.NewReader(c.in))
			require.ErrorIs(t, err, ledger.ErrValidation)
			assert.Contains(t, err.Error(), c.msg)
		})
	}
}

func TestParseKickoffLayouts(t *testing.T) {
	want := time.Date(2024, 7, 1, 15, 4, 0, 0, time.UTC)
	for _, v := range []string{"2024-07-01T15:04:00Z", "2024-07-01T12:04:00-03:00", "2024-07-01 15:04:00", "2024-07-01T15:04", "2024-07-01 15:04"} {
		got, err := ParseKickoff(v)
		require.NoError(t, err, v)
		assert.True(t, want.Equal(got), v)
	}
}
