package upload

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/wager"
)

// colunas aceitas e seus apelidos
var columns = map[string]string{
	"home_team":      "home_team",
	"home_team_id":   "home_team",
	"away_team":      "away_team",
	"away_team_id":   "away_team",
	"match_datetime": "kickoff",
	"kickoff":        "kickoff",
	"home_score":     "home_score",
	"away_score":     "away_score",
}

var required = []string{"home_team", "away_team", "kickoff", "home_score", "away_score"}

var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseKickoff aceita os formatos de data/hora do CSV; sem fuso é UTC
func ParseKickoff(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, l := range layouts {
		if t, err := time.Parse(l, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognised datetime " + strconv.Quote(v))
}

// ParseResults lê o CSV de resultados históricos. Exige cabeçalho; cada erro
// de linha vira ledger.ErrValidation com o número da linha.
func ParseResults(r io.Reader) ([]wager.ResultRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ledger.Validationf("results file is empty")
	}
	if err != nil {
		return nil, ledger.Validationf("invalid csv header: %v", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := columns[name]; ok {
			if _, dup := idx[col]; !dup {
				idx[col] = i
			}
		}
	}
	var missing []string
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, ledger.Validationf("missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []wager.ResultRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, ledger.Validationf("line %d: %v", pe.Line, pe.Err)
			}
			return nil, ledger.Validationf("invalid csv: %v", err)
		}
		line, _ := cr.FieldPos(0)

		field := func(col string) string {
			i := idx[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		row := wager.ResultRow{Line: line, HomeTeam: field("home_team"), AwayTeam: field("away_team")}
		if row.Kickoff, err = ParseKickoff(field("kickoff")); err != nil {
			return nil, ledger.Validationf("line %d: %v", line, err)
		}
		if row.HomeScore, err = score(field("home_score")); err != nil {
			return nil, ledger.Validationf("line %d: home_score: %v", line, err)
		}
		if row.AwayScore, err = score(field("away_score")); err != nil {
			return nil, ledger.Validationf("line %d: away_score: %v", line, err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ledger.Validationf("results file has no data rows")
	}
	return rows, nil
}

func score(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("not an integer: " + strconv.Quote(v))
	}
	if n < 0 {
		return 0, errors.New("must be non-negative")
	}
	return n, nil
}
