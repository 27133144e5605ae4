package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Tx é uma unidade atômica do ledger. Só existe dentro de Store.WithTx.
type Tx struct {
	reader
}

// LockMatch carrega a partida com lock exclusivo (liquidação/cancelamento)
func (t *Tx) LockMatch(ctx context.Context, id int64) (Match, error) {
	var m Match
	q := `SELECT ` + matchCols + ` FROM matches m WHERE m.id=$1` + t.d.ForUpdate()
	if err := scanMatch(t.q.QueryRowContext(ctx, q, id), &m); err != nil {
		return Match{}, notFoundOr(err, "match", id)
	}
	return m, nil
}

// ShareMatch carrega a partida com lock compartilhado (colocação de apostas)
func (t *Tx) ShareMatch(ctx context.Context, id int64) (Match, error) {
	var m Match
	q := `SELECT ` + matchCols + ` FROM matches m WHERE m.id=$1` + t.d.ForShare()
	if err := scanMatch(t.q.QueryRowContext(ctx, q, id), &m); err != nil {
		return Match{}, notFoundOr(err, "match", id)
	}
	return m, nil
}

// LockUser carrega o usuário com lock exclusivo; serializa toda alteração de saldo
func (t *Tx) LockUser(ctx context.Context, id int64) (User, error) {
	var u User
	q := `SELECT ` + userCols + ` FROM users WHERE id=$1` + t.d.ForUpdate()
	if err := scanUser(t.q.QueryRowContext(ctx, q, id), &u); err != nil {
		return User{}, notFoundOr(err, "user", id)
	}
	return u, nil
}

// LockComboBet carrega o combo com lock exclusivo para resolução
func (t *Tx) LockComboBet(ctx context.Context, id int64) (ComboBet, error) {
	var c ComboBet
	q := `SELECT ` + comboCols + ` FROM combo_bets WHERE id=$1` + t.d.ForUpdate()
	if err := scanCombo(t.q.QueryRowContext(ctx, q, id), &c); err != nil {
		return ComboBet{}, notFoundOr(err, "combo bet", id)
	}
	return c, nil
}

func (t *Tx) InsertTeam(ctx context.Context, name string) (Team, error) {
	team := Team{Name: name}
	err := t.q.QueryRowContext(ctx, `INSERT INTO teams(name) VALUES($1) RETURNING id`, name).Scan(&team.ID)
	if err != nil {
		return Team{}, t.wrap(err, "insert team")
	}
	return team, nil
}

// EnsureTeam cria o time se ainda não existir e retorna o registro
func (t *Tx) EnsureTeam(ctx context.Context, name string) (Team, error) {
	if _, err := t.q.ExecContext(ctx, `INSERT INTO teams(name) VALUES($1) ON CONFLICT DO NOTHING`, name); err != nil {
		return Team{}, t.wrap(err, "ensure team")
	}
	return t.TeamByName(ctx, name)
}

// InsertMatch cria uma partida SCHEDULED
func (t *Tx) InsertMatch(ctx context.Context, homeTeamID, awayTeamID int64, kickoff time.Time) (Match, error) {
	m := Match{HomeTeamID: homeTeamID, AwayTeamID: awayTeamID, Kickoff: kickoff, Status: MatchScheduled}
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO matches(home_team_id, away_team_id, kickoff, status)
		VALUES($1,$2,$3,$4) RETURNING id`,
		homeTeamID, awayTeamID, kickoff, MatchScheduled).Scan(&m.ID)
	if err != nil {
		return Match{}, t.wrap(err, "insert match")
	}
	return m, nil
}

// InsertResult grava uma partida histórica já finalizada.
// Retorna false quando o confronto já existe (a linha é ignorada).
func (t *Tx) InsertResult(ctx context.Context, homeTeamID, awayTeamID int64, kickoff time.Time, homeScore, awayScore int) (bool, error) {
	var id int64
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO matches(home_team_id, away_team_id, kickoff, home_score, away_score, status)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		homeTeamID, awayTeamID, kickoff, homeScore, awayScore, MatchCompleted).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, t.wrap(err, "insert result")
	}
	return true, nil
}

func (t *Tx) CompleteMatch(ctx context.Context, id int64, homeScore, awayScore int) error {
	_, err := t.q.ExecContext(ctx, `UPDATE matches SET home_score=$1, away_score=$2, status=$3 WHERE id=$4`,
		homeScore, awayScore, MatchCompleted, id)
	return t.wrap(err, "complete match")
}

func (t *Tx) CancelMatch(ctx context.Context, id int64) error {
	_, err := t.q.ExecContext(ctx, `UPDATE matches SET status=$1 WHERE id=$2`, MatchCancelled, id)
	return t.wrap(err, "cancel match")
}

func (t *Tx) InsertOdds(ctx context.Context, o Odds) error {
	_, err := t.q.ExecContext(ctx, `INSERT INTO odds(match_id, odds_home, odds_draw, odds_away) VALUES($1,$2,$3,$4)`,
		o.MatchID, o.Home, o.Draw, o.Away)
	return t.wrap(err, "insert odds")
}

func (t *Tx) InsertUser(ctx context.Context, u User) (User, error) {
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO users(username, email, password_hash, token_balance, is_admin, created_at)
		VALUES($1,$2,$3,$4,$5,$6) RETURNING id`,
		u.Username, u.Email, u.PasswordHash, u.Balance, u.IsAdmin, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		return User{}, t.wrap(err, "insert user")
	}
	return u, nil
}

// SetBalance grava o novo saldo projetado. Deve ser chamado com o usuário travado.
func (t *Tx) SetBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return Validationf("balance of user %d would become negative", userID)
	}
	res, err := t.q.ExecContext(ctx, `UPDATE users SET token_balance=$1 WHERE id=$2`, balance, userID)
	if err != nil {
		return t.wrap(err, "update balance")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFoundf("user %d not found", userID)
	}
	return nil
}

func (t *Tx) InsertComboBet(ctx context.Context, c ComboBet) (ComboBet, error) {
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO combo_bets(user_id, total_wager, potential_payout, status, created_at)
		VALUES($1,$2,$3,$4,$5) RETURNING id`,
		c.UserID, c.TotalWager, c.PotentialPayout, c.Status, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return ComboBet{}, t.wrap(err, "insert combo bet")
	}
	return c, nil
}

func (t *Tx) SetComboPayout(ctx context.Context, id int64, payout decimal.Decimal) error {
	_, err := t.q.ExecContext(ctx, `UPDATE combo_bets SET potential_payout=$1 WHERE id=$2`, payout, id)
	return t.wrap(err, "update combo payout")
}

func (t *Tx) SetComboStatus(ctx context.Context, id int64, status BetStatus) error {
	_, err := t.q.ExecContext(ctx, `UPDATE combo_bets SET status=$1 WHERE id=$2`, status, id)
	return t.wrap(err, "update combo status")
}

func (t *Tx) InsertBet(ctx context.Context, b Bet) (Bet, error) {
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO bets(user_id, match_id, combo_bet_id, bet_type, wager, odds_at_placement, potential_payout, status, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		b.UserID, b.MatchID, b.ComboBetID, b.Type, b.Wager, b.OddsAtPlacement, b.PotentialPayout, b.Status, b.CreatedAt).Scan(&b.ID)
	if err != nil {
		return Bet{}, t.wrap(err, "insert bet")
	}
	return b, nil
}

// SetBetStatus só altera apostas ainda ACTIVE; estados finais são imutáveis
func (t *Tx) SetBetStatus(ctx context.Context, id int64, status BetStatus) error {
	res, err := t.q.ExecContext(ctx, `UPDATE bets SET status=$1 WHERE id=$2 AND status=$3`, status, id, BetActive)
	if err != nil {
		return t.wrap(err, "update bet status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Conflictf("bet %d is not active", id)
	}
	return nil
}

func (t *Tx) InsertTransaction(ctx context.Context, e Transaction) (Transaction, error) {
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO transactions(user_id, bet_id, combo_bet_id, type, amount, created_at)
		VALUES($1,$2,$3,$4,$5,$6) RETURNING id`,
		e.UserID, e.BetID, e.ComboBetID, e.Type, e.Amount, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return Transaction{}, t.wrap(err, "insert transaction")
	}
	return e, nil
}

// Post registra a transação e aplica o valor ao saldo do usuário travado,
// atualizando u.Balance.
func (t *Tx) Post(ctx context.Context, u *User, e Transaction) (Transaction, error) {
	next := u.Balance.Add(e.Amount)
	if err := t.SetBalance(ctx, u.ID, next); err != nil {
		return Transaction{}, err
	}
	e.UserID = u.ID
	rec, err := t.InsertTransaction(ctx, e)
	if err != nil {
		return Transaction{}, err
	}
	u.Balance = next
	return rec, nil
}
