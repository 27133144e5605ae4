package invalidate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/shared/kafka"
	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

// Invalidator remove do cache o quadro e as odds das partidas indicadas
type Invalidator interface {
	Invalidate(ctx context.Context, matchIDs ...int64) error
}

// Handle aplica um evento do ledger ao cache. Retorna true quando algo foi invalidado.
// Só eventos que mudam o quadro importam: agendamento, liquidação e cancelamento.
func Handle(ctx context.Context, inv Invalidator, raw []byte) (bool, error) {
	var ev events.LedgerEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return false, err
	}
	switch ev.Type {
	case events.MatchScheduled, events.MatchSettled, events.MatchCancelled:
	default:
		return false, nil
	}

	var ids []int64
	if ev.MatchID != 0 {
		ids = append(ids, ev.MatchID)
	}
	if err := inv.Invalidate(ctx, ids...); err != nil {
		return false, err
	}
	return true, nil
}

// Run consome o tópico de eventos do ledger até o contexto encerrar
func Run(ctx context.Context, r *kafka.Reader, inv Invalidator, log *zap.Logger) {
	for {
		_, value, err := kafka.ReadNext(ctx, r)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		done, err := Handle(ctx, inv, value)
		if err != nil {
			log.Warn("cache invalidation failed", zap.Error(err))
			continue
		}
		if done {
			log.Debug("odds cache invalidated")
		}
	}
}
