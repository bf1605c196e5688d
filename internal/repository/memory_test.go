package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"duel-arena/internal/model"
)

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateCharacter(ctx, newCharacter(1, 1))
	}))

	require.NoError(t, store.View(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.GetCharacter(ctx, 1)
		require.NoError(t, err)
		c.Wins = 100
		again, err := tx.GetCharacter(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), again.Wins)
		return nil
	}))
}

func TestMemoryStore_ViewRejectsWrites(t *testing.T) {
	store := NewMemoryStore()
	assert.Panics(t, func() {
		_ = store.View(context.Background(), func(ctx context.Context, tx Tx) error {
			return tx.CreateCharacter(ctx, newCharacter(1, 1))
		})
	})
}

func TestMemoryStore_PanicRollsBack(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.EnsureWallet(ctx, 1, 100)
		return err
	}))

	assert.PanicsWithValue(t, "boom", func() {
		_ = store.InTx(ctx, func(ctx context.Context, tx Tx) error {
			_, err := tx.AdjustBalance(ctx, 1, -10)
			require.NoError(t, err)
			_, err = tx.AdjustBalance(ctx, model.EscrowAccount, 10)
			require.NoError(t, err)
			require.NoError(t, tx.CreateDuel(ctx, &model.Duel{ID: 1, Kind: model.DuelStandard, State: model.DuelCreated}))
			panic("boom")
		})
	})

	require.NoError(t, store.View(ctx, func(ctx context.Context, tx Tx) error {
		balance, err := tx.Balance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(100), balance)

		escrow, err := tx.Balance(ctx, model.EscrowAccount)
		require.NoError(t, err)
		assert.Zero(t, escrow)

		_, err = tx.GetDuel(ctx, 1)
		assert.ErrorIs(t, err, ErrDuelNotFound)
		return nil
	}))

	// The store lock was released.
	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx Tx) error { return nil }))
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.InTx(ctx, func(ctx context.Context, tx Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

// TestMemoryStore_RollbackProperty checks that any sequence of balance moves
// followed by a failure leaves every wallet exactly as it was.
func TestMemoryStore_RollbackProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := NewMemoryStore()
		ctx := context.Background()
		accounts := []int64{1, 2, 3, model.EscrowAccount, model.TreasuryAccount}

		before := make(map[int64]int64)
		if err := store.InTx(ctx, func(ctx context.Context, tx Tx) error {
			for _, id := range accounts[:3] {
				initial := rapid.Int64Range(0, 10_000).Draw(rt, "initial")
				if _, err := tx.EnsureWallet(ctx, id, initial); err != nil {
					return err
				}
				before[id] = initial
			}
			return nil
		}); err != nil {
			rt.Fatalf("seed wallets: %v", err)
		}

		moves := rapid.IntRange(1, 20).Draw(rt, "moves")
		fail := errors.New("abort")
		err := store.InTx(ctx, func(ctx context.Context, tx Tx) error {
			for i := 0; i < moves; i++ {
				from := rapid.SampledFrom(accounts).Draw(rt, "from")
				to := rapid.SampledFrom(accounts).Draw(rt, "to")
				amount := rapid.Int64Range(0, 500).Draw(rt, "amount")
				if _, err := tx.AdjustBalance(ctx, from, -amount); err != nil {
					return err
				}
				if _, err := tx.AdjustBalance(ctx, to, amount); err != nil {
					return err
				}
			}
			return fail
		})
		if !errors.Is(err, fail) {
			rt.Fatalf("expected abort, got %v", err)
		}

		_ = store.View(ctx, func(ctx context.Context, tx Tx) error {
			for _, id := range accounts {
				got, err := tx.Balance(ctx, id)
				if err != nil {
					rt.Fatalf("balance %d: %v", id, err)
				}
				if got != before[id] {
					rt.Fatalf("account %d: expected %d after rollback, got %d", id, before[id], got)
				}
			}
			return nil
		})
	})
}
