package rating

import (
	"math"
	"sort"
	"time"
)

const (
	InitialRating = 1500.0
	HomeAdvantage = 100.0
	KFactor       = 32.0
)

// Result é uma partida finalizada usada para recalcular o Elo
type Result struct {
	HomeTeamID int64
	AwayTeamID int64
	HomeScore  int
	AwayScore  int
	Kickoff    time.Time
}

// Ratings mapeia team id -> Elo
type Ratings map[int64]float64

// Of retorna o rating do time, ou o rating inicial se ele não tiver histórico
func (r Ratings) Of(teamID int64) float64 {
	if v, ok := r[teamID]; ok {
		return v
	}
	return InitialRating
}

// ExpectedHomeWin aplica a curva logística com vantagem de mando
func ExpectedHomeWin(home, away float64) float64 {
	return 1 / (1 + math.Pow(10, (away-home-HomeAdvantage)/400))
}

// actual pontua o resultado do ponto de vista do mandante
func actual(r Result) float64 {
	switch {
	case r.HomeScore > r.AwayScore:
		return 1
	case r.HomeScore < r.AwayScore:
		return 0
	default:
		return 0.5
	}
}

// Compute recalcula do zero os ratings de todos os times a partir do histórico.
// A ordem é sempre por kickoff crescente, independente da ordem recebida.
func Compute(teamIDs []int64, history []Result) Ratings {
	out := make(Ratings, len(teamIDs))
	for _, id := range teamIDs {
		out[id] = InitialRating
	}

	ordered := make([]Result, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kickoff.Before(ordered[j].Kickoff)
	})

	for _, m := range ordered {
		home, away := out.Of(m.HomeTeamID), out.Of(m.AwayTeamID)
		exp := ExpectedHomeWin(home, away)
		score := actual(m)

		out[m.HomeTeamID] = home + KFactor*(score-exp)
		out[m.AwayTeamID] = away + KFactor*((1-score)-(1-exp))
	}
	return out
}
