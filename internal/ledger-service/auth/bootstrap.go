package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/betting-ledger/internal/ledger"
	"github.com/radieske/betting-ledger/internal/wager"
)

type userLookup interface {
	UserByEmail(ctx context.Context, email string) (ledger.User, error)
}

type userCreator interface {
	CreateUser(ctx context.Context, in wager.NewUser) (ledger.User, error)
}

// EnsureAdmin cria o administrador inicial se o e-mail ainda não existir.
// Sem e-mail ou senha configurados não faz nada.
func EnsureAdmin(ctx context.Context, users userLookup, engine userCreator, log *zap.Logger, username, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := users.UserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u, err := engine.CreateUser(ctx, wager.NewUser{Username: username, Email: email, PasswordHash: hash, IsAdmin: true})
	if errors.Is(err, ledger.ErrConflict) {
		// outro processo criou no meio do caminho
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("admin user created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
