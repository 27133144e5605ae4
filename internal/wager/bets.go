package wager

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

// PlaceSingleBet debita o valor apostado e grava a aposta com a odd do momento
func (e *Engine) PlaceSingleBet(ctx context.Context, userID, matchID int64, betType ledger.BetType, wager decimal.Decimal) (ledger.Bet, error) {
	if err := validWager(wager); err != nil {
		return ledger.Bet{}, e.finish("place_bet", err)
	}
	if !betType.Valid() {
		return ledger.Bet{}, e.finish("place_bet", ledger.Validationf("invalid bet type %q", betType))
	}

	var bet ledger.Bet
	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		// partida antes do usuário: mesma ordem de lock da liquidação
		m, err := tx.ShareMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != ledger.MatchScheduled {
			return ledger.Validationf("match %d is not open for betting", matchID)
		}
		o, err := tx.Odds(ctx, matchID)
		if err != nil {
			return err
		}

		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.Balance.LessThan(wager) {
			return ledger.Validationf("insufficient balance: have %s, need %s", u.Balance, wager)
		}

		now := e.clock()
		price := o.For(betType)
		b, err := tx.InsertBet(ctx, ledger.Bet{
			UserID:          userID,
			MatchID:         matchID,
			Type:            betType,
			Wager:           wager,
			OddsAtPlacement: price,
			PotentialPayout: payout(wager, price),
			Status:          ledger.BetActive,
			CreatedAt:       now,
		})
		if err != nil {
			return err
		}

		if _, err := tx.Post(ctx, &u, ledger.Transaction{
			BetID:     &b.ID,
			Type:      ledger.TxBetPlaced,
			Amount:    wager.Neg(),
			CreatedAt: now,
		}); err != nil {
			return err
		}
		bet = b
		return nil
	})
	if err != nil {
		return ledger.Bet{}, e.finish("place_bet", err)
	}

	e.metrics.BetsPlaced.WithLabelValues("single").Inc()
	e.metrics.tokens("wagered", wager)
	e.log.Info("bet placed",
		zap.Int64("bet_id", bet.ID),
		zap.Int64("user_id", userID),
		zap.Int64("match_id", matchID),
		zap.String("bet_type", string(betType)),
		zap.String("wager", wager.String()),
		zap.String("odds", bet.OddsAtPlacement.String()))
	e.publish(ctx, events.LedgerEvent{
		Type:    events.BetPlaced,
		UserID:  userID,
		MatchID: matchID,
		BetID:   bet.ID,
		BetType: string(betType),
		Amount:  wager.String(),
	})
	return bet, e.finish("place_bet", nil)
}

// Selection é uma perna de combo: uma partida e o resultado escolhido
type Selection struct {
	MatchID int64          `json:"match_id"`
	Type    ledger.BetType `json:"bet_type"`
}

// ComboPlacement é o combo criado junto com suas pernas
type ComboPlacement struct {
	ComboBet  ledger.ComboBet `json:"combo_bet"`
	Legs      []ledger.Bet    `json:"legs"`
	TotalOdds decimal.Decimal `json:"total_odds"`
}

func validateSelections(sel []Selection) error {
	if len(sel) < 2 {
		return ledger.Validationf("a combo bet needs at least two selections")
	}
	seen := make(map[int64]bool, len(sel))
	for _, s := range sel {
		if seen[s.MatchID] {
			return ledger.Validationf("match %d selected more than once", s.MatchID)
		}
		seen[s.MatchID] = true
		if !s.Type.Valid() {
			return ledger.Validationf("invalid bet type %q for match %d", s.Type, s.MatchID)
		}
	}
	return nil
}

// PlaceComboBet grava o combo, uma aposta filha por seleção e um único débito.
// Qualquer falha no meio desfaz tudo, inclusive pernas já gravadas.
func (e *Engine) PlaceComboBet(ctx context.Context, userID int64, selections []Selection, wager decimal.Decimal) (ComboPlacement, error) {
	if err := validWager(wager); err != nil {
		return ComboPlacement{}, e.finish("place_combo", err)
	}
	if err := validateSelections(selections); err != nil {
		return ComboPlacement{}, e.finish("place_combo", err)
	}

	var out ComboPlacement
	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		ids := make([]int64, 0, len(selections))
		for _, s := range selections {
			ids = append(ids, s.MatchID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		matches := make(map[int64]ledger.Match, len(ids))
		for _, id := range ids {
			m, err := tx.ShareMatch(ctx, id)
			if err != nil {
				return err
			}
			matches[id] = m
		}

		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.Balance.LessThan(wager) {
			return ledger.Validationf("insufficient balance: have %s, need %s", u.Balance, wager)
		}

		now := e.clock()
		combo, err := tx.InsertComboBet(ctx, ledger.ComboBet{
			UserID:          userID,
			TotalWager:      wager,
			PotentialPayout: decimal.Zero,
			Status:          ledger.BetActive,
			CreatedAt:       now,
		})
		if err != nil {
			return err
		}

		total := decimal.NewFromInt(1)
		legs := make([]ledger.Bet, 0, len(selections))
		for _, s := range selections {
			if matches[s.MatchID].Status != ledger.MatchScheduled {
				return ledger.Validationf("match %d is not open for betting", s.MatchID)
			}
			o, err := tx.Odds(ctx, s.MatchID)
			if errors.Is(err, ledger.ErrNotFound) {
				return ledger.Validationf("no odds for match %d", s.MatchID)
			}
			if err != nil {
				return err
			}

			price := o.For(s.Type)
			total = total.Mul(price)
			leg, err := tx.InsertBet(ctx, ledger.Bet{
				UserID:          userID,
				MatchID:         s.MatchID,
				ComboBetID:      &combo.ID,
				Type:            s.Type,
				Wager:           wager,
				OddsAtPlacement: price,
				PotentialPayout: payout(wager, price),
				Status:          ledger.BetActive,
				CreatedAt:       now,
			})
			if err != nil {
				return err
			}
			legs = append(legs, leg)
		}

		combo.PotentialPayout = payout(wager, total)
		if err := tx.SetComboPayout(ctx, combo.ID, combo.PotentialPayout); err != nil {
			return err
		}

		if _, err := tx.Post(ctx, &u, ledger.Transaction{
			ComboBetID: &combo.ID,
			Type:       ledger.TxComboBetPlaced,
			Amount:     wager.Neg(),
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		out = ComboPlacement{ComboBet: combo, Legs: legs, TotalOdds: total}
		return nil
	})
	if err != nil {
		return ComboPlacement{}, e.finish("place_combo", err)
	}

	e.metrics.BetsPlaced.WithLabelValues("combo").Inc()
	e.metrics.tokens("wagered", wager)
	e.log.Info("combo bet placed",
		zap.Int64("combo_bet_id", out.ComboBet.ID),
		zap.Int64("user_id", userID),
		zap.Int("legs", len(out.Legs)),
		zap.String("wager", wager.String()),
		zap.String("total_odds", out.TotalOdds.String()))
	e.publish(ctx, events.LedgerEvent{
		Type:       events.ComboBetPlaced,
		UserID:     userID,
		ComboBetID: out.ComboBet.ID,
		Amount:     wager.String(),
		Count:      len(out.Legs),
	})
	return out, e.finish("place_combo", nil)
}
