package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchOdds é uma partida agendada do quadro com suas odds 1x2
type MatchOdds struct {
	MatchID  int64           `json:"match_id"`
	HomeTeam string          `json:"home_team"`
	AwayTeam string          `json:"away_team"`
	Kickoff  time.Time       `json:"match_datetime"`
	Status   string          `json:"status"`
	HomeOdd  decimal.Decimal `json:"home_win_odds"`
	DrawOdd  decimal.Decimal `json:"draw_odds"`
	AwayOdd  decimal.Decimal `json:"away_win_odds"`
	Margin   decimal.Decimal `json:"overround"`
}

// Team representa um time cadastrado
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TeamRating é o Elo atual de um time
type TeamRating struct {
	TeamID int64   `json:"team_id"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}
