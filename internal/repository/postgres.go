package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ledgerLockKey is the advisory lock that serializes every write unit,
// across all processes sharing the database.
const ledgerLockKey int64 = 0x6475656c61726e61

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the Store backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// pgTx bundles the repositories over one pgx transaction.
type pgTx struct {
	*CharacterRepository
	*EquipmentRepository
	*DuelRepository
	*LedgerRepository
}

func newPgTx(db DBTX) *pgTx {
	return &pgTx{
		CharacterRepository: NewCharacterRepository(db),
		EquipmentRepository: NewEquipmentRepository(db),
		DuelRepository:      NewDuelRepository(db),
		LedgerRepository:    NewLedgerRepository(db),
	}
}

// InTx implements Store. The transaction holds the ledger advisory lock
// until it commits or rolls back.
func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
			return fmt.Errorf("failed to acquire ledger lock: %w", err)
		}
		return fn(ctx, newPgTx(tx))
	})
}

// View implements Store.
func (s *PostgresStore) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(ctx, newPgTx(tx))
	})
}

// Close implements Store. The pool is owned by the caller.
func (s *PostgresStore) Close() {}

// Migrate applies the database schema.
func Migrate(ctx context.Context, db DBTX) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS characters (
		id BIGINT PRIMARY KEY,
		owner_id BIGINT NOT NULL,
		class SMALLINT NOT NULL,
		rarity SMALLINT NOT NULL,
		health BIGINT NOT NULL,
		attack BIGINT NOT NULL,
		defense BIGINT NOT NULL,
		speed BIGINT NOT NULL,
		magic BIGINT NOT NULL,
		luck BIGINT NOT NULL,
		level INT NOT NULL DEFAULT 1,
		experience BIGINT NOT NULL DEFAULT 0,
		wins BIGINT NOT NULL DEFAULT 0,
		losses BIGINT NOT NULL DEFAULT 0,
		ko BOOLEAN NOT NULL DEFAULT FALSE,
		last_battle_at BIGINT NOT NULL DEFAULT 0,
		weapon_id BIGINT,
		artifact_id BIGINT,
		created_at BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_characters_owner ON characters(owner_id, id);
	CREATE INDEX IF NOT EXISTS idx_characters_wins ON characters(wins DESC, losses ASC, id ASC);`,

	equipmentTable("weapons"),

	equipmentTable("artifacts"),

	`CREATE TABLE IF NOT EXISTS duels (
		id BIGINT PRIMARY KEY,
		kind VARCHAR(32) NOT NULL,
		character_a BIGINT NOT NULL,
		character_b BIGINT NOT NULL,
		player_a BIGINT NOT NULL,
		player_b BIGINT NOT NULL,
		state VARCHAR(16) NOT NULL,
		winner_id BIGINT NOT NULL DEFAULT 0,
		prize_pool BIGINT NOT NULL,
		created_at BIGINT NOT NULL,
		seed_nonce BIGINT NOT NULL,
		seed_entropy BIGINT NOT NULL,
		fighters JSONB,
		rounds INT NOT NULL DEFAULT 0,
		final_health_a BIGINT NOT NULL DEFAULT 0,
		final_health_b BIGINT NOT NULL DEFAULT 0,
		digest BIGINT NOT NULL DEFAULT 0
	);`,

	`CREATE TABLE IF NOT EXISTS player_battles (
		seq BIGSERIAL PRIMARY KEY,
		player_id BIGINT NOT NULL,
		duel_id BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_player_battles_player ON player_battles(player_id, seq);`,

	`CREATE TABLE IF NOT EXISTS wallets (
		account_id BIGINT PRIMARY KEY,
		balance BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL,
		amount BIGINT NOT NULL,
		type VARCHAR(32) NOT NULL,
		ref_id BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_account_time ON transactions(account_id, created_at DESC);`,
}

func equipmentTable(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
		id BIGINT PRIMARY KEY,
		owner_id BIGINT NOT NULL,
		rarity SMALLINT NOT NULL,
		health BIGINT NOT NULL DEFAULT 0,
		attack BIGINT NOT NULL DEFAULT 0,
		defense BIGINT NOT NULL DEFAULT 0,
		speed BIGINT NOT NULL DEFAULT 0,
		magic BIGINT NOT NULL DEFAULT 0,
		luck BIGINT NOT NULL DEFAULT 0,
		effect_kind VARCHAR(16),
		effect_power BIGINT NOT NULL DEFAULT 0,
		charges INT NOT NULL DEFAULT 0,
		max_charges INT NOT NULL DEFAULT 0,
		equipped_to BIGINT,
		created_at BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_owner ON %[1]s(owner_id, id);`, name)
}
