package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/shared/kafka"
	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

// Ledger é o que o auditor precisa ler do ledger
type Ledger interface {
	Users(ctx context.Context) ([]ledger.User, error)
	Projection(ctx context.Context, userID int64) (balance, sum decimal.Decimal, err error)
}

// Drift é um usuário cujo saldo não bate com o histórico de transações
type Drift struct {
	UserID  int64           `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
	Sum     decimal.Decimal `json:"sum"`
}

type Metrics struct {
	Checked prometheus.Counter
	Drifts  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_audit_checked_total",
			Help: "Users whose balance projection was checked.",
		}),
		Drifts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_audit_drift_total",
			Help: "Users found with balance different from the sum of their transactions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Checked, m.Drifts)
	}
	return m
}

type Auditor struct {
	ledger  Ledger
	log     *zap.Logger
	metrics *Metrics
}

func New(l Ledger, log *zap.Logger, m *Metrics) *Auditor {
	if m == nil {
		m = NewMetrics(nil)
	}
	return &Auditor{ledger: l, log: log, metrics: m}
}

// Check confere saldo == soma das transações para cada usuário
func (a *Auditor) Check(ctx context.Context, userIDs ...int64) ([]Drift, error) {
	var out []Drift
	for _, id := range userIDs {
		bal, sum, err := a.ledger.Projection(ctx, id)
		if errors.Is(err, ledger.ErrNotFound) {
			continue
		}
		if err != nil {
			return out, err
		}
		a.metrics.Checked.Inc()
		if !bal.Equal(sum) {
			a.metrics.Drifts.Inc()
			a.log.Error("ledger drift detected",
				zap.Int64("user_id", id),
				zap.String("balance", bal.String()),
				zap.String("transactions_sum", sum.String()))
			out = append(out, Drift{UserID: id, Balance: bal, Sum: sum})
		}
	}
	return out, nil
}

// Sweep audita todos os usuários (roda na subida do worker)
func (a *Auditor) Sweep(ctx context.Context) ([]Drift, error) {
	users, err := a.ledger.Users(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	drifts, err := a.Check(ctx, ids...)
	if err != nil {
		return drifts, err
	}
	a.log.Info("ledger sweep finished", zap.Int("users", len(ids)), zap.Int("drifts", len(drifts)))
	return drifts, nil
}

// HandleEvent audita os usuários afetados por um evento do ledger
func (a *Auditor) HandleEvent(ctx context.Context, raw []byte) ([]Drift, error) {
	var ev events.LedgerEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return a.Check(ctx, ev.Affected()...)
}

// Run consome ledger_events; mensagens ilegíveis vão para a DLQ (quando configurada)
func (a *Auditor) Run(ctx context.Context, r *kafka.Reader, dlq *kafka.Writer) {
	for {
		key, value, err := kafka.ReadNext(ctx, r)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if _, err := a.HandleEvent(ctx, value); err != nil {
			var syn *json.SyntaxError
			var typ *json.UnmarshalTypeError
			if errors.As(err, &syn) || errors.As(err, &typ) {
				a.log.Error("unmarshal ledger event", zap.Error(err))
				if dlq != nil {
					_ = kafka.WriteJSON(ctx, dlq, string(key), value)
				}
				continue
			}
			a.log.Error("audit ledger event", zap.String("key", string(key)), zap.Error(err))
			// backoff simples para não inundar o banco
			time.Sleep(500 * time.Millisecond)
		}
	}
}
