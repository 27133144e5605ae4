package dto

import (
	"github.com/radieske/betting-ledger/internal/ledger"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SessionResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"` // segundos
	User      ledger.User `json:"user"`
}

type BetsResponse struct {
	Bets      []ledger.BetView   `json:"bets"`
	ComboBets []ledger.ComboView `json:"combo_bets"`
}

type TransactionsResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
}
