package wager

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

// Settlement resume o que uma liquidação ou cancelamento fez no ledger
type Settlement struct {
	MatchID         int64              `json:"match_id"`
	Status          ledger.MatchStatus `json:"status"`
	Outcome         ledger.BetType     `json:"outcome,omitempty"`
	Won             int                `json:"won"`
	Lost            int                `json:"lost"`
	Cancelled       int                `json:"cancelled"`
	CombosWon       int                `json:"combos_won"`
	CombosLost      int                `json:"combos_lost"`
	CombosCancelled int                `json:"combos_cancelled"`
	Paid            decimal.Decimal    `json:"paid"`
	Refunded        decimal.Decimal    `json:"refunded"`
	Users           []int64            `json:"users,omitempty"`
}

// settlement carrega o estado de uma liquidação dentro da transação
type settlement struct {
	tx      *ledger.Tx
	now     func() time.Time
	users   map[int64]*ledger.User
	combos  map[int64]ledger.ComboBet
	summary *Settlement
	touched map[int64]bool
}

// SettleMatch registra o placar e liquida todas as apostas ativas da partida
func (e *Engine) SettleMatch(ctx context.Context, matchID int64, homeScore, awayScore int) (Settlement, error) {
	if homeScore < 0 || awayScore < 0 {
		return Settlement{}, e.finish("settle_match", ledger.Validationf("scores must be non-negative"))
	}

	result := ledger.Outcome(homeScore, awayScore)
	sum := Settlement{MatchID: matchID, Status: ledger.MatchCompleted, Outcome: result, Paid: decimal.Zero, Refunded: decimal.Zero}

	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		m, err := tx.LockMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != ledger.MatchScheduled {
			return ledger.Conflictf("match %d is already %s", matchID, m.Status)
		}
		if err := tx.CompleteMatch(ctx, matchID, homeScore, awayScore); err != nil {
			return err
		}

		st, bets, err := e.prepare(ctx, tx, matchID, &sum)
		if err != nil {
			return err
		}

		for _, b := range bets {
			status := ledger.BetLost
			if b.Type == result {
				status = ledger.BetWon
			}
			if err := tx.SetBetStatus(ctx, b.ID, status); err != nil {
				return err
			}
			if status == ledger.BetLost {
				sum.Lost++
				continue
			}
			sum.Won++
			if err := st.credit(ctx, b.UserID, ledger.Transaction{
				BetID:  &b.ID,
				Type:   ledger.TxWinnings,
				Amount: b.PotentialPayout,
			}); err != nil {
				return err
			}
			sum.Paid = sum.Paid.Add(b.PotentialPayout)
		}
		return st.resolveCombos(ctx)
	})
	if err != nil {
		return Settlement{}, e.finish("settle_match", err)
	}

	e.metrics.tokens("paid", sum.Paid)
	e.metrics.tokens("refunded", sum.Refunded)
	e.log.Info("match settled",
		zap.Int64("match_id", matchID),
		zap.String("outcome", string(result)),
		zap.Int("won", sum.Won),
		zap.Int("lost", sum.Lost),
		zap.String("paid", sum.Paid.String()))
	e.publish(ctx, events.LedgerEvent{
		Type:    events.MatchSettled,
		MatchID: matchID,
		Outcome: string(result),
		Amount:  sum.Paid.String(),
		Users:   sum.Users,
		Count:   sum.Won + sum.Lost,
	})
	return sum, e.finish("settle_match", nil)
}

// CancelMatch cancela a partida e devolve o valor apostado de cada aposta ativa
func (e *Engine) CancelMatch(ctx context.Context, matchID int64) (Settlement, error) {
	sum := Settlement{MatchID: matchID, Status: ledger.MatchCancelled, Paid: decimal.Zero, Refunded: decimal.Zero}

	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		m, err := tx.LockMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != ledger.MatchScheduled {
			return ledger.Conflictf("match %d is already %s", matchID, m.Status)
		}
		if err := tx.CancelMatch(ctx, matchID); err != nil {
			return err
		}

		st, bets, err := e.prepare(ctx, tx, matchID, &sum)
		if err != nil {
			return err
		}

		for _, b := range bets {
			if err := tx.SetBetStatus(ctx, b.ID, ledger.BetCancelled); err != nil {
				return err
			}
			sum.Cancelled++
			if err := st.credit(ctx, b.UserID, ledger.Transaction{
				BetID:  &b.ID,
				Type:   ledger.TxBetRefund,
				Amount: b.Wager,
			}); err != nil {
				return err
			}
			sum.Refunded = sum.Refunded.Add(b.Wager)
		}
		return st.resolveCombos(ctx)
	})
	if err != nil {
		return Settlement{}, e.finish("cancel_match", err)
	}

	e.metrics.tokens("paid", sum.Paid)
	e.metrics.tokens("refunded", sum.Refunded)
	e.log.Info("match cancelled",
		zap.Int64("match_id", matchID),
		zap.Int("cancelled", sum.Cancelled),
		zap.String("refunded", sum.Refunded.String()))
	e.publish(ctx, events.LedgerEvent{
		Type:    events.MatchCancelled,
		MatchID: matchID,
		Amount:  sum.Refunded.String(),
		Users:   sum.Users,
		Count:   sum.Cancelled,
	})
	return sum, e.finish("cancel_match", nil)
}

// prepare carrega as apostas ativas e trava combos e usuários envolvidos,
// sempre em ordem crescente de id: partida -> combos -> usuários
func (e *Engine) prepare(ctx context.Context, tx *ledger.Tx, matchID int64, sum *Settlement) (*settlement, []ledger.Bet, error) {
	bets, err := tx.BetsForMatch(ctx, matchID, ledger.BetActive)
	if err != nil {
		return nil, nil, err
	}

	st := &settlement{
		tx:      tx,
		now:     e.clock,
		users:   map[int64]*ledger.User{},
		combos:  map[int64]ledger.ComboBet{},
		summary: sum,
		touched: map[int64]bool{},
	}

	var comboIDs []int64
	seenCombo := map[int64]bool{}
	for _, b := range bets {
		if b.ComboBetID != nil && !seenCombo[*b.ComboBetID] {
			seenCombo[*b.ComboBetID] = true
			comboIDs = append(comboIDs, *b.ComboBetID)
		}
	}
	sort.Slice(comboIDs, func(i, j int) bool { return comboIDs[i] < comboIDs[j] })

	userIDs := map[int64]bool{}
	for _, id := range comboIDs {
		c, err := tx.LockComboBet(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		st.combos[id] = c
		userIDs[c.UserID] = true
	}
	for _, b := range bets {
		userIDs[b.UserID] = true
	}

	ordered := make([]int64, 0, len(userIDs))
	for id := range userIDs {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	for _, id := range ordered {
		u, err := tx.LockUser(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		st.users[id] = &u
	}
	return st, bets, nil
}

// credit lança a transação para um usuário já travado em prepare
func (s *settlement) credit(ctx context.Context, userID int64, e ledger.Transaction) error {
	u, ok := s.users[userID]
	if !ok {
		return ledger.NotFoundf("user %d not locked for settlement", userID)
	}
	e.CreatedAt = s.now()
	if _, err := s.tx.Post(ctx, u, e); err != nil {
		return err
	}
	if !s.touched[userID] {
		s.touched[userID] = true
		s.summary.Users = append(s.summary.Users, userID)
	}
	return nil
}

// resolveCombos atualiza o rótulo de cada combo afetado a partir das pernas.
// Não movimenta saldo: cada perna já foi paga ou reembolsada como aposta própria.
// Uma perna perdida marca LOST; com todas as pernas encerradas, WON se todas
// ganharam e CANCELLED caso contrário.
func (s *settlement) resolveCombos(ctx context.Context) error {
	ids := make([]int64, 0, len(s.combos))
	for id := range s.combos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if s.combos[id].Status != ledger.BetActive {
			continue
		}
		legs, err := s.tx.ComboLegs(ctx, id)
		if err != nil {
			return err
		}

		var active, won, lost int
		for _, l := range legs {
			switch l.Status {
			case ledger.BetActive:
				active++
			case ledger.BetWon:
				won++
			case ledger.BetLost:
				lost++
			}
		}

		var status ledger.BetStatus
		switch {
		case lost > 0:
			status = ledger.BetLost
			s.summary.CombosLost++
		case active > 0:
			continue
		case won == len(legs):
			status = ledger.BetWon
			s.summary.CombosWon++
		default:
			status = ledger.BetCancelled
			s.summary.CombosCancelled++
		}
		if err := s.tx.SetComboStatus(ctx, id, status); err != nil {
			return err
		}
	}
	return nil
}
