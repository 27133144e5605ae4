package odds

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/radieske/betting-ledger/internal/rating"
)

const (
	DrawProbability = 0.25
	Margin          = 0.05

	// casas decimais das odds persistidas
	Precision = 4
)

// Probabilities são as probabilidades implícitas 1x2 de uma partida
type Probabilities struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
}

// Prices são as odds decimais publicadas (já com margem)
type Prices struct {
	Home decimal.Decimal `json:"home"`
	Draw decimal.Decimal `json:"draw"`
	Away decimal.Decimal `json:"away"`
}

// fallback quando as expectativas não somam algo utilizável
var degenerate = Probabilities{HomeWin: 0.33, Draw: 0.34, AwayWin: 0.33}

// FromRatings converte dois ratings Elo em probabilidades 1x2.
// O empate é fixo e o restante é dividido proporcionalmente às expectativas.
func FromRatings(home, away float64) Probabilities {
	expHome := rating.ExpectedHomeWin(home, away)
	expAway := 1 - expHome

	// expectativa saturada em 0 ou 1 geraria odd infinita
	total := expHome + expAway
	if !(expHome > 0) || !(expAway > 0) || math.IsInf(total, 0) {
		return degenerate
	}

	return Probabilities{
		HomeWin: expHome / total * (1 - DrawProbability),
		Draw:    DrawProbability,
		AwayWin: expAway / total * (1 - DrawProbability),
	}
}

// Convert aplica a margem da casa e inverte as probabilidades
func Convert(p Probabilities) Prices {
	if !(p.HomeWin > 0) || !(p.Draw > 0) || !(p.AwayWin > 0) {
		p = degenerate
	}
	return Prices{
		Home: price(p.HomeWin),
		Draw: price(p.Draw),
		Away: price(p.AwayWin),
	}
}

func price(p float64) decimal.Decimal {
	return decimal.NewFromFloat(1 / (p * (1 + Margin))).Round(Precision)
}

// ForFixture calcula as odds de um confronto a partir da tabela de ratings
func ForFixture(r rating.Ratings, homeTeamID, awayTeamID int64) Prices {
	return Convert(FromRatings(r.Of(homeTeamID), r.Of(awayTeamID)))
}

// Overround retorna a soma das probabilidades implícitas (> 1 quando há margem)
func (p Prices) Overround() decimal.Decimal {
	one := decimal.NewFromInt(1)
	return one.Div(p.Home).Add(one.Div(p.Draw)).Add(one.Div(p.Away))
}
