package dto

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/betting-ledger/internal/wager"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PlaceBetRequest struct {
	MatchID int64           `json:"match_id"`
	BetType string          `json:"bet_type"` // HOME_WIN | DRAW | AWAY_WIN
	Amount  decimal.Decimal `json:"amount"`
}

type ComboBetRequest struct {
	Selections []wager.Selection `json:"selections"`
	Amount     decimal.Decimal   `json:"amount"`
}

type TeamRequest struct {
	Name string `json:"name"`
}

type MatchRequest struct {
	HomeTeamID    int64  `json:"home_team_id"`
	AwayTeamID    int64  `json:"away_team_id"`
	MatchDatetime string `json:"match_datetime"`
}

type SettleRequest struct {
	HomeScore *int `json:"home_score"`
	AwayScore *int `json:"away_score"`
}

// BalanceRequest: positivo credita, negativo debita
type BalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
