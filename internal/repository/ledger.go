package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"duel-arena/internal/model"
)

// numericOutOfRange is the SQLSTATE of a bigint overflow.
const numericOutOfRange = "22003"

// LedgerRepository handles wallet balances and the transaction log.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// EnsureWallet creates a wallet with the initial balance if it is missing.
func (r *LedgerRepository) EnsureWallet(ctx context.Context, accountID, initial int64) (bool, error) {
	const query = `
		INSERT INTO wallets (account_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (account_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, accountID, initial)
	if err != nil {
		return false, fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// Balance returns the balance of a wallet.
// System accounts read as zero until first used.
func (r *LedgerRepository) Balance(ctx context.Context, accountID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE account_id = $1`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if IsSystemAccount(accountID) {
				return 0, nil
			}
			return 0, ErrWalletNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// AdjustBalance adds delta to a wallet and returns the new balance.
func (r *LedgerRepository) AdjustBalance(ctx context.Context, accountID, delta int64) (int64, error) {
	if IsSystemAccount(accountID) {
		if _, err := r.EnsureWallet(ctx, accountID, 0); err != nil {
			return 0, err
		}
	}

	const query = `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE account_id = $1
		RETURNING balance
	`
	var balance int64
	err := r.db.QueryRow(ctx, query, accountID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrWalletNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange {
			return 0, ErrBalanceOverflow
		}
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}
	return balance, nil
}

// RecordTransaction appends a balance movement to the log.
func (r *LedgerRepository) RecordTransaction(ctx context.Context, tx *model.Transaction) error {
	const query = `
		INSERT INTO transactions (account_id, amount, type, ref_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, tx.AccountID, tx.Amount, tx.Type, tx.RefID).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactions retrieves the latest movements of an account, newest first.
func (r *LedgerRepository) ListTransactions(ctx context.Context, accountID int64, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, account_id, amount, type, ref_id, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var tx model.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Amount,
			&tx.Type,
			&tx.RefID,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
