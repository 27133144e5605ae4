package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// reader agrupa as consultas usadas tanto fora quanto dentro de transação
type reader struct {
	q querier
	d Dialect
}

const (
	matchCols = `m.id, m.home_team_id, m.away_team_id, m.kickoff, m.home_score, m.away_score, m.status`
	userCols  = `id, username, email, password_hash, token_balance, is_admin, created_at`
	betCols   = `b.id, b.user_id, b.match_id, b.combo_bet_id, b.bet_type, b.wager, b.odds_at_placement, b.potential_payout, b.status, b.created_at`
	comboCols = `id, user_id, total_wager, potential_payout, status, created_at`
	txCols    = `id, user_id, bet_id, combo_bet_id, type, amount, created_at`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(s scanner, m *Match) error {
	return s.Scan(&m.ID, &m.HomeTeamID, &m.AwayTeamID, &m.Kickoff, &m.HomeScore, &m.AwayScore, &m.Status)
}

func scanUser(s scanner, u *User) error {
	return s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Balance, &u.IsAdmin, &u.CreatedAt)
}

func scanBet(s scanner, b *Bet, extra ...any) error {
	dest := []any{&b.ID, &b.UserID, &b.MatchID, &b.ComboBetID, &b.Type, &b.Wager, &b.OddsAtPlacement, &b.PotentialPayout, &b.Status, &b.CreatedAt}
	return s.Scan(append(dest, extra...)...)
}

func scanCombo(s scanner, c *ComboBet) error {
	return s.Scan(&c.ID, &c.UserID, &c.TotalWager, &c.PotentialPayout, &c.Status, &c.CreatedAt)
}

func scanTransaction(s scanner, t *Transaction) error {
	return s.Scan(&t.ID, &t.UserID, &t.BetID, &t.ComboBetID, &t.Type, &t.Amount, &t.CreatedAt)
}

func (r reader) TeamByName(ctx context.Context, name string) (Team, error) {
	var t Team
	err := r.q.QueryRowContext(ctx, `SELECT id, name FROM teams WHERE name=$1`, name).Scan(&t.ID, &t.Name)
	if err != nil {
		return Team{}, notFoundOr(err, "team", name)
	}
	return t, nil
}

func (r reader) Teams(ctx context.Context) ([]Team, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name FROM teams ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list teams")
	}
	defer rows.Close()

	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, errors.Wrap(err, "scan team")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r reader) TeamIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id FROM teams ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list team ids")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan team id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r reader) Match(ctx context.Context, id int64) (Match, error) {
	var m Match
	if err := scanMatch(r.q.QueryRowContext(ctx, `SELECT `+matchCols+` FROM matches m WHERE m.id=$1`, id), &m); err != nil {
		return Match{}, notFoundOr(err, "match", id)
	}
	return m, nil
}

// CompletedMatches retorna o histórico finalizado em ordem de kickoff
func (r reader) CompletedMatches(ctx context.Context) ([]Match, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+matchCols+`
		FROM matches m
		WHERE m.status = $1
		ORDER BY m.kickoff ASC, m.id ASC`, MatchCompleted)
	if err != nil {
		return nil, errors.Wrap(err, "list completed matches")
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := scanMatch(rows, &m); err != nil {
			return nil, errors.Wrap(err, "scan match")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// FixtureTaken informa se já existe partida ativa ou finalizada para o confronto
func (r reader) FixtureTaken(ctx context.Context, homeTeamID, awayTeamID int64, kickoff time.Time) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM matches
		WHERE home_team_id=$1 AND away_team_id=$2 AND kickoff=$3 AND status IN ($4,$5)`,
		homeTeamID, awayTeamID, kickoff, MatchScheduled, MatchCompleted).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "check fixture")
	}
	return n > 0, nil
}

func (r reader) Odds(ctx context.Context, matchID int64) (Odds, error) {
	o := Odds{MatchID: matchID}
	err := r.q.QueryRowContext(ctx, `SELECT odds_home, odds_draw, odds_away FROM odds WHERE match_id=$1`, matchID).
		Scan(&o.Home, &o.Draw, &o.Away)
	if err != nil {
		return Odds{}, notFoundOr(err, "odds for match", matchID)
	}
	return o, nil
}

const fixtureQuery = `
	SELECT ` + matchCols + `, th.name, ta.name, o.odds_home, o.odds_draw, o.odds_away
	FROM matches m
	JOIN teams th ON th.id = m.home_team_id
	JOIN teams ta ON ta.id = m.away_team_id
	LEFT JOIN odds o ON o.match_id = m.id`

func scanFixture(s scanner) (Fixture, error) {
	var (
		f                Fixture
		home, draw, away decimal.NullDecimal
	)
	err := s.Scan(&f.ID, &f.HomeTeamID, &f.AwayTeamID, &f.Kickoff, &f.HomeScore, &f.AwayScore, &f.Status,
		&f.HomeTeam, &f.AwayTeam, &home, &draw, &away)
	if err != nil {
		return Fixture{}, err
	}
	if home.Valid {
		f.Odds = &Odds{MatchID: f.ID, Home: home.Decimal, Draw: draw.Decimal, Away: away.Decimal}
	}
	return f, nil
}

// ScheduledFixtures é o quadro de apostas: partidas abertas com odds, por kickoff
func (r reader) ScheduledFixtures(ctx context.Context) ([]Fixture, error) {
	rows, err := r.q.QueryContext(ctx, fixtureQuery+`
		WHERE m.status = $1
		ORDER BY m.kickoff ASC, m.id ASC`, MatchScheduled)
	if err != nil {
		return nil, errors.Wrap(err, "list fixtures")
	}
	defer rows.Close()

	var out []Fixture
	for rows.Next() {
		f, err := scanFixture(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan fixture")
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r reader) Fixture(ctx context.Context, matchID int64) (Fixture, error) {
	f, err := scanFixture(r.q.QueryRowContext(ctx, fixtureQuery+` WHERE m.id = $1`, matchID))
	if err != nil {
		return Fixture{}, notFoundOr(err, "match", matchID)
	}
	return f, nil
}

func (r reader) User(ctx context.Context, id int64) (User, error) {
	var u User
	if err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id), &u); err != nil {
		return User{}, notFoundOr(err, "user", id)
	}
	return u, nil
}

func (r reader) UserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	if err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email), &u); err != nil {
		return User{}, notFoundOr(err, "user", email)
	}
	return u, nil
}

func (r reader) Users(ctx context.Context) ([]User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY username`)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// BetsForMatch lista as apostas de uma partida (simples e pernas de combo) num status
func (r reader) BetsForMatch(ctx context.Context, matchID int64, status BetStatus) ([]Bet, error) {
	return r.bets(ctx, `SELECT `+betCols+` FROM bets b WHERE b.match_id=$1 AND b.status=$2 ORDER BY b.id`, matchID, status)
}

// ComboLegs lista as apostas filhas de um combo
func (r reader) ComboLegs(ctx context.Context, comboBetID int64) ([]Bet, error) {
	return r.bets(ctx, `SELECT `+betCols+` FROM bets b WHERE b.combo_bet_id=$1 ORDER BY b.id`, comboBetID)
}

func (r reader) bets(ctx context.Context, q string, args ...any) ([]Bet, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list bets")
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var b Bet
		if err := scanBet(rows, &b); err != nil {
			return nil, errors.Wrap(err, "scan bet")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r reader) ComboBet(ctx context.Context, id int64) (ComboBet, error) {
	var c ComboBet
	if err := scanCombo(r.q.QueryRowContext(ctx, `SELECT `+comboCols+` FROM combo_bets WHERE id=$1`, id), &c); err != nil {
		return ComboBet{}, notFoundOr(err, "combo bet", id)
	}
	return c, nil
}

const betViewQuery = `
	SELECT ` + betCols + `, m.kickoff, th.name, ta.name, m.status
	FROM bets b
	JOIN matches m ON m.id = b.match_id
	JOIN teams th ON th.id = m.home_team_id
	JOIN teams ta ON ta.id = m.away_team_id`

func (r reader) betViews(ctx context.Context, q string, args ...any) ([]BetView, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list bet views")
	}
	defer rows.Close()

	var out []BetView
	for rows.Next() {
		var v BetView
		if err := scanBet(rows, &v.Bet, &v.Kickoff, &v.HomeTeam, &v.AwayTeam, &v.MatchStatus); err != nil {
			return nil, errors.Wrap(err, "scan bet view")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// BetsByUser retorna as apostas simples do usuário, mais recentes primeiro
func (r reader) BetsByUser(ctx context.Context, userID int64) ([]BetView, error) {
	return r.betViews(ctx, betViewQuery+`
		WHERE b.user_id=$1 AND b.combo_bet_id IS NULL
		ORDER BY b.id DESC`, userID)
}

// CombosByUser retorna os combos do usuário com suas seleções
func (r reader) CombosByUser(ctx context.Context, userID int64) ([]ComboView, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+comboCols+` FROM combo_bets WHERE user_id=$1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list combo bets")
	}

	var out []ComboView
	for rows.Next() {
		var c ComboView
		if err := scanCombo(rows, &c.ComboBet); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan combo bet")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// fecha antes das consultas das pernas; o SQLite usa uma única conexão
	rows.Close()

	for i := range out {
		legs, err := r.betViews(ctx, betViewQuery+` WHERE b.combo_bet_id=$1 ORDER BY b.id`, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Legs = legs
	}
	return out, nil
}

func (r reader) TransactionsByUser(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+txCols+` FROM transactions WHERE user_id=$1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, errors.Wrap(err, "scan transaction")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Projection retorna o saldo gravado e a soma do histórico de transações.
// Os dois precisam ser iguais; a soma é feita em Go para valer nos dois dialetos.
func (r reader) Projection(ctx context.Context, userID int64) (balance, sum decimal.Decimal, err error) {
	u, err := r.User(ctx, userID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	rows, err := r.q.QueryContext(ctx, `SELECT amount FROM transactions WHERE user_id=$1`, userID)
	if err != nil {
		return decimal.Zero, decimal.Zero, errors.Wrap(err, "sum transactions")
	}
	defer rows.Close()

	sum = decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, decimal.Zero, errors.Wrap(err, "scan amount")
		}
		sum = sum.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return u.Balance, sum, nil
}
