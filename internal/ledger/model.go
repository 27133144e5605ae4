package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitialBalance é o crédito concedido a todo usuário no cadastro
var InitialBalance = decimal.NewFromInt(1000)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchCompleted MatchStatus = "COMPLETED"
	MatchCancelled MatchStatus = "CANCELLED"
)

type BetType string

const (
	HomeWin BetType = "HOME_WIN"
	Draw    BetType = "DRAW"
	AwayWin BetType = "AWAY_WIN"
)

// Valid informa se o tipo de aposta é um dos três resultados 1x2
func (t BetType) Valid() bool {
	switch t {
	case HomeWin, Draw, AwayWin:
		return true
	}
	return false
}

// Outcome deriva o resultado de uma partida pelo placar
func Outcome(homeScore, awayScore int) BetType {
	switch {
	case homeScore > awayScore:
		return HomeWin
	case homeScore < awayScore:
		return AwayWin
	default:
		return Draw
	}
}

type BetStatus string

const (
	BetActive    BetStatus = "ACTIVE"
	BetWon       BetStatus = "WON"
	BetLost      BetStatus = "LOST"
	BetCancelled BetStatus = "CANCELLED"
)

type TxType string

const (
	TxInitial        TxType = "INITIAL"
	TxBetPlaced      TxType = "BET_PLACED"
	TxComboBetPlaced TxType = "COMBO_BET_PLACED"
	TxWinnings       TxType = "WINNINGS"
	TxBetRefund      TxType = "BET_REFUND"
	TxAdminAdd       TxType = "ADMIN_ADD"
	TxAdminSubtract  TxType = "ADMIN_SUBTRACT"
)

type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Match struct {
	ID         int64       `json:"id"`
	HomeTeamID int64       `json:"home_team_id"`
	AwayTeamID int64       `json:"away_team_id"`
	Kickoff    time.Time   `json:"kickoff"`
	HomeScore  *int        `json:"home_score,omitempty"`
	AwayScore  *int        `json:"away_score,omitempty"`
	Status     MatchStatus `json:"status"`
}

// Odds é o snapshot imutável gerado no agendamento da partida
type Odds struct {
	MatchID int64           `json:"match_id"`
	Home    decimal.Decimal `json:"home"`
	Draw    decimal.Decimal `json:"draw"`
	Away    decimal.Decimal `json:"away"`
}

// For retorna a odd correspondente ao tipo de aposta
func (o Odds) For(t BetType) decimal.Decimal {
	switch t {
	case HomeWin:
		return o.Home
	case Draw:
		return o.Draw
	default:
		return o.Away
	}
}

type User struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"token_balance"`
	IsAdmin      bool            `json:"is_admin"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Bet struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	MatchID         int64           `json:"match_id"`
	ComboBetID      *int64          `json:"combo_bet_id,omitempty"`
	Type            BetType         `json:"bet_type"`
	Wager           decimal.Decimal `json:"wager"`
	OddsAtPlacement decimal.Decimal `json:"odds_at_placement"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Status          BetStatus       `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

type ComboBet struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	TotalWager      decimal.Decimal `json:"total_wager"`
	PotentialPayout decimal.Decimal `json:"potential_payout"`
	Status          BetStatus       `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Transaction struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	BetID      *int64          `json:"bet_id,omitempty"`
	ComboBetID *int64          `json:"combo_bet_id,omitempty"`
	Type       TxType          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BetView junta a aposta com os dados da partida para exibição
type BetView struct {
	Bet
	Kickoff     time.Time   `json:"kickoff"`
	HomeTeam    string      `json:"home_team"`
	AwayTeam    string      `json:"away_team"`
	MatchStatus MatchStatus `json:"match_status"`
}

type ComboView struct {
	ComboBet
	Legs []BetView `json:"legs"`
}

// Fixture é uma partida com nomes dos times e odds, usada no quadro de apostas
type Fixture struct {
	Match
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Odds     *Odds  `json:"odds,omitempty"`
}
