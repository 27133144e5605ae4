package events

const (
	UserRegistered  = "user_registered"
	BetPlaced       = "bet_placed"
	ComboBetPlaced  = "combo_bet_placed"
	MatchScheduled  = "match_scheduled"
	MatchSettled    = "match_settled"
	MatchCancelled  = "match_cancelled"
	BalanceAdjusted = "balance_adjusted"
	ResultsImported = "results_imported"
)

// LedgerEvent é publicado no tópico "ledger_events" depois de cada commit.
// Valores monetários trafegam como string decimal.
type LedgerEvent struct {
	Type       string  `json:"type"`
	UserID     int64   `json:"user_id,omitempty"`
	MatchID    int64   `json:"match_id,omitempty"`
	BetID      int64   `json:"bet_id,omitempty"`
	ComboBetID int64   `json:"combo_bet_id,omitempty"`
	BetType    string  `json:"bet_type,omitempty"`
	Amount     string  `json:"amount,omitempty"`
	Outcome    string  `json:"outcome,omitempty"` // HOME_WIN | DRAW | AWAY_WIN na liquidação
	Users      []int64 `json:"users,omitempty"`   // usuários cujo saldo mudou
	Count      int     `json:"count,omitempty"`
	TsUnixMs   int64   `json:"ts_unix_ms"`
}

// Affected retorna todos os usuários com saldo alterado pelo evento
func (e LedgerEvent) Affected() []int64 {
	out := make([]int64, 0, len(e.Users)+1)
	seen := map[int64]bool{}
	if e.UserID != 0 {
		out = append(out, e.UserID)
		seen[e.UserID] = true
	}
	for _, id := range e.Users {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}
