package wager

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/radieske/betting-ledger/internal/ledger"
)

// Metrics do engine. Com Registerer nil os coletores existem mas não são expostos.
type Metrics struct {
	Operations *prometheus.CounterVec
	BetsPlaced *prometheus.CounterVec
	Tokens     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by name and outcome",
		}, []string{"op", "outcome"}),
		BetsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_bets_placed_total",
			Help: "Bets accepted by kind (single|combo)",
		}, []string{"kind"}),
		Tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_tokens_total",
			Help: "Tokens moved by flow (wagered|paid|refunded|adjusted)",
		}, []string{"flow"}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.BetsPlaced, m.Tokens)
	}
	return m
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ledger.ErrValidation):
		return "validation"
	case errors.Is(err, ledger.ErrConflict), errors.Is(err, ledger.ErrIntegrity):
		return "conflict"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (m *Metrics) observe(op string, err error) {
	m.Operations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) tokens(flow string, v decimal.Decimal) {
	f, _ := v.Abs().Float64()
	m.Tokens.WithLabelValues(flow).Add(f)
}
