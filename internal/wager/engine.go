package wager

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

// casas decimais aceitas em valores monetários (mesma escala do NUMERIC do ledger)
const AmountPrecision = 4

// Store é o que o engine precisa do ledger: uma transação com escopo
type Store interface {
	WithTx(ctx context.Context, fn func(tx *ledger.Tx) error) error
}

// Publisher recebe os eventos do ledger após o commit
type Publisher interface {
	Publish(ctx context.Context, e events.LedgerEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.LedgerEvent) error { return nil }

// Engine executa cada operação do ledger como uma única transação atômica.
// Não guarda estado entre chamadas e não cria goroutines.
type Engine struct {
	store   Store
	log     *zap.Logger
	pub     Publisher
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Engine)

func WithPublisher(p Publisher) Option { return func(e *Engine) { e.pub = p } }

func WithMetrics(m *Metrics) Option { return func(e *Engine) { e.metrics = m } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func NewEngine(store Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   log,
		pub:   nopPublisher{},
		now:   time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

func (e *Engine) clock() time.Time { return e.now().UTC() }

// publish é best-effort: o commit já aconteceu e não é desfeito
func (e *Engine) publish(ctx context.Context, ev events.LedgerEvent) {
	ev.TsUnixMs = e.now().UnixMilli()
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("publish ledger event", zap.String("type", ev.Type), zap.Error(err))
	}
}

// finish registra o resultado da operação nas métricas
func (e *Engine) finish(op string, err error) error {
	e.metrics.observe(op, err)
	return err
}

func validAmount(v decimal.Decimal) bool {
	return v.Equal(v.Round(AmountPrecision))
}

func validWager(w decimal.Decimal) error {
	if !w.IsPositive() {
		return ledger.Validationf("wager must be positive")
	}
	if !validAmount(w) {
		return ledger.Validationf("wager supports at most %d decimal places", AmountPrecision)
	}
	return nil
}

func payout(wager, price decimal.Decimal) decimal.Decimal {
	return wager.Mul(price).Round(AmountPrecision)
}
