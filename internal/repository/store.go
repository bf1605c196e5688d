// Package repository provides data access layer implementations.
//
// Every state-changing operation runs inside Store.InTx. The callback either
// returns nil and all of its writes commit together, or returns an error and
// none of them are ever visible to another reader.
package repository

import (
	"context"
	"errors"

	"duel-arena/internal/model"
)

// Common errors for repository operations.
var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrDuelNotFound      = errors.New("duel not found")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrUnknownKind       = errors.New("unknown equipment kind")
	ErrBalanceOverflow   = errors.New("balance out of range")
)

// CharacterStore is the character table.
type CharacterStore interface {
	// NextCharacterID returns the id the next created character will take.
	NextCharacterID(ctx context.Context) (int64, error)
	CreateCharacter(ctx context.Context, c *model.Character) error
	GetCharacter(ctx context.Context, id int64) (*model.Character, error)
	// UpdateCharacter writes the mutable fields: battle record, KO flag and
	// equipment references. Stats, class and rarity are never rewritten.
	UpdateCharacter(ctx context.Context, c *model.Character) error
	ListCharactersByOwner(ctx context.Context, owner int64) ([]*model.Character, error)
	CountCharacters(ctx context.Context) (int64, error)
	TopCharacters(ctx context.Context, limit int) ([]*model.Character, error)
}

// EquipmentStore holds the weapon and artifact tables.
type EquipmentStore interface {
	NextEquipmentID(ctx context.Context, kind model.EquipmentKind) (int64, error)
	CreateEquipment(ctx context.Context, e *model.Equipment) error
	GetEquipment(ctx context.Context, kind model.EquipmentKind, id int64) (*model.Equipment, error)
	// UpdateEquipment writes the equipped-to reference and artifact charges.
	UpdateEquipment(ctx context.Context, e *model.Equipment) error
	ListEquipmentByOwner(ctx context.Context, kind model.EquipmentKind, owner int64) ([]*model.Equipment, error)
}

// DuelStore holds the duel table and the per-player battle index.
type DuelStore interface {
	NextDuelID(ctx context.Context) (int64, error)
	CreateDuel(ctx context.Context, d *model.Duel) error
	UpdateDuel(ctx context.Context, d *model.Duel) error
	GetDuel(ctx context.Context, id int64) (*model.Duel, error)
	// AppendPlayerBattle appends to the never-pruned index of a player.
	AppendPlayerBattle(ctx context.Context, playerID, duelID int64) error
	ListPlayerBattles(ctx context.Context, playerID int64) ([]int64, error)
}

// LedgerStore holds wallet balances and the transaction log.
type LedgerStore interface {
	// EnsureWallet creates the wallet with the given balance if it does not
	// exist and reports whether it was created.
	EnsureWallet(ctx context.Context, accountID, initial int64) (bool, error)
	Balance(ctx context.Context, accountID int64) (int64, error)
	// AdjustBalance adds delta to a wallet and returns the new balance.
	// System accounts are created on first use. A sum outside int64 fails
	// with ErrBalanceOverflow and leaves the wallet unchanged.
	AdjustBalance(ctx context.Context, accountID, delta int64) (int64, error)
	RecordTransaction(ctx context.Context, tx *model.Transaction) error
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]*model.Transaction, error)
}

// Tx is the unit of work every operation runs against.
type Tx interface {
	CharacterStore
	EquipmentStore
	DuelStore
	LedgerStore
}

// Store opens units of work. Write units are globally serialized, which is
// what makes the Next*ID allocators gapless and race free.
type Store interface {
	// InTx runs fn in a serialized read-write unit of work.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close()
}

// IsSystemAccount reports whether the account is held by the engine.
func IsSystemAccount(accountID int64) bool {
	return accountID == model.TreasuryAccount || accountID == model.EscrowAccount
}
