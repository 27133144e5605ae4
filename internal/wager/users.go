package wager

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/pkg/contracts/events"
)

// NewUser são os dados de cadastro; a senha já chega com hash
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// CreateUser cria o usuário e o crédito INITIAL na mesma transação
func (e *Engine) CreateUser(ctx context.Context, in NewUser) (ledger.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.PasswordHash == "" {
		return ledger.User{}, e.finish("create_user", ledger.Validationf("username, email and password are required"))
	}

	var user ledger.User
	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		now := e.clock()
		u, err := tx.InsertUser(ctx, ledger.User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: in.PasswordHash,
			Balance:      decimal.Zero,
			IsAdmin:      in.IsAdmin,
			CreatedAt:    now,
		})
		if errors.Is(err, ledger.ErrIntegrity) {
			return ledger.Conflictf("username or email already registered")
		}
		if err != nil {
			return err
		}

		if _, err := tx.Post(ctx, &u, ledger.Transaction{
			Type:      ledger.TxInitial,
			Amount:    ledger.InitialBalance,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return ledger.User{}, e.finish("create_user", err)
	}

	e.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	e.publish(ctx, events.LedgerEvent{
		Type:   events.UserRegistered,
		UserID: user.ID,
		Amount: ledger.InitialBalance.String(),
	})
	return user, e.finish("create_user", nil)
}

// Adjustment é o resultado de um ajuste administrativo de saldo
type Adjustment struct {
	Transaction ledger.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"token_balance"`
}

// AdjustBalance credita (amount > 0) ou debita (amount < 0) tokens do usuário.
// O saldo nunca fica negativo.
func (e *Engine) AdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal) (Adjustment, error) {
	if amount.IsZero() {
		return Adjustment{}, e.finish("adjust_balance", ledger.Validationf("amount must be non-zero"))
	}
	if !validAmount(amount) {
		return Adjustment{}, e.finish("adjust_balance", ledger.Validationf("amount supports at most %d decimal places", AmountPrecision))
	}

	kind := ledger.TxAdminAdd
	if amount.IsNegative() {
		kind = ledger.TxAdminSubtract
	}

	var out Adjustment
	err := e.store.WithTx(ctx, func(tx *ledger.Tx) error {
		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.Balance.Add(amount).IsNegative() {
			return ledger.Validationf("cannot subtract %s tokens: balance is %s", amount.Abs(), u.Balance)
		}

		rec, err := tx.Post(ctx, &u, ledger.Transaction{Type: kind, Amount: amount, CreatedAt: e.clock()})
		if err != nil {
			return err
		}
		out = Adjustment{Transaction: rec, Balance: u.Balance}
		return nil
	})
	if err != nil {
		return Adjustment{}, e.finish("adjust_balance", err)
	}

	e.metrics.tokens("adjusted", amount)
	e.log.Info("balance adjusted",
		zap.Int64("user_id", userID),
		zap.String("amount", amount.String()),
		zap.String("balance", out.Balance.String()))
	e.publish(ctx, events.LedgerEvent{
		Type:   events.BalanceAdjusted,
		UserID: userID,
		Amount: amount.String(),
	})
	return out, e.finish("adjust_balance", nil)
}
