package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"duel-arena/internal/auth"
	"duel-arena/internal/model"
	"duel-arena/internal/repository"
)

// MaxHistoryLimit caps a single History page.
const MaxHistoryLimit = 100

// AccountService handles player wallets.
type AccountService struct {
	store           repository.Store
	startingBalance int64
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(store repository.Store, startingBalance int64) *AccountService {
	return &AccountService{
		store:           store,
		startingBalance: startingBalance,
	}
}

// EnsureWallet ensures the caller has a wallet, creating one with the
// starting balance if necessary. Returns the balance and whether the wallet
// was newly created.
func (s *AccountService) EnsureWallet(ctx context.Context, caller auth.Caller) (int64, bool, error) {
	if !caller.IsVerified() {
		return 0, false, ErrUnauthenticated
	}

	var (
		balance int64
		created bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		created, err = ensureWallet(ctx, tx, caller.PlayerID, s.startingBalance)
		if err != nil {
			return err
		}
		balance, err = tx.Balance(ctx, caller.PlayerID)
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to ensure wallet: %w", err)
	}

	if created {
		log.Info().Int64("player_id", caller.PlayerID).Int64("balance", balance).Msg("Wallet created")
	}
	return balance, created, nil
}

// Balance retrieves the caller's current balance.
func (s *AccountService) Balance(ctx context.Context, caller auth.Caller) (int64, error) {
	if !caller.IsVerified() {
		return 0, ErrUnauthenticated
	}
	var balance int64
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		balance, err = tx.Balance(ctx, caller.PlayerID)
		if errors.Is(err, repository.ErrWalletNotFound) {
			balance, err = 0, nil
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Deposit credits a player's wallet from outside the game economy.
// It is reserved for admins; the transport enforces that.
func (s *AccountService) Deposit(ctx context.Context, playerID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if playerID <= 0 {
		return 0, ErrUnauthenticated
	}

	var balance int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := ensureWallet(ctx, tx, playerID, s.startingBalance); err != nil {
			return err
		}
		var err error
		balance, err = tx.AdjustBalance(ctx, playerID, amount)
		if err != nil {
			return err
		}
		return tx.RecordTransaction(ctx, &model.Transaction{
			AccountID: playerID,
			Amount:    amount,
			Type:      model.TxTypeDeposit,
		})
	})
	if err != nil {
		return 0, translate(err, "deposit")
	}

	log.Info().Int64("player_id", playerID).Int64("amount", amount).Int64("balance", balance).Msg("Deposit")
	return balance, nil
}

// History returns the caller's latest balance movements, newest first.
// A non-positive limit returns nothing; larger pages are capped at
// MaxHistoryLimit.
func (s *AccountService) History(ctx context.Context, caller auth.Caller, limit int) ([]*model.Transaction, error) {
	if !caller.IsVerified() {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 {
		return []*model.Transaction{}, nil
	}
	limit = min(limit, MaxHistoryLimit)

	var txs []*model.Transaction
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		txs, err = tx.ListTransactions(ctx, caller.PlayerID, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return txs, nil
}

// ensureWallet creates a player wallet with the starting balance and logs
// the initial credit.
func ensureWallet(ctx context.Context, tx repository.Tx, playerID, initial int64) (bool, error) {
	created, err := tx.EnsureWallet(ctx, playerID, initial)
	if err != nil || !created || initial == 0 {
		return created, err
	}
	return true, tx.RecordTransaction(ctx, &model.Transaction{
		AccountID: playerID,
		Amount:    initial,
		Type:      model.TxTypeInitial,
	})
}

// collect draws an attached payment from the payer's wallet into a system
// account. The price check is the caller's job; collect only checks funds.
func collect(ctx context.Context, tx repository.Tx, payer, into, payment int64, txType string, refID int64) error {
	balance, err := tx.Balance(ctx, payer)
	if errors.Is(err, repository.ErrWalletNotFound) {
		return ErrInsufficientFunds
	}
	if err != nil {
		return err
	}
	if balance < payment {
		return ErrInsufficientFunds
	}
	return move(ctx, tx, payer, into, payment, txType, refID)
}

// move transfers amount between two existing accounts and records both legs.
func move(ctx context.Context, tx repository.Tx, from, to, amount int64, txType string, refID int64) error {
	if amount == 0 {
		return nil
	}
	if _, err := tx.AdjustBalance(ctx, from, -amount); err != nil {
		return err
	}
	if _, err := tx.AdjustBalance(ctx, to, amount); err != nil {
		return err
	}
	if err := tx.RecordTransaction(ctx, &model.Transaction{AccountID: from, Amount: -amount, Type: txType, RefID: refID}); err != nil {
		return err
	}
	return tx.RecordTransaction(ctx, &model.Transaction{AccountID: to, Amount: amount, Type: txType, RefID: refID})
}
