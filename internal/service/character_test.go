package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duel-arena/internal/auth"
	"duel-arena/internal/model"
	"duel-arena/internal/repository"
)

func TestMint(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	alice := env.player(1)

	c, err := env.characters.Mint(ctx, alice, testMintPrice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, int64(1), c.Owner)
	assert.Equal(t, 1, c.Level)
	assert.False(t, c.KnockedOut)
	assert.Positive(t, c.BaseStats.Health)

	second, err := env.characters.Mint(ctx, alice, testMintPrice+5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)

	// Overpayment is collected in full.
	assert.Equal(t, int64(testStartingBalance-2*testMintPrice-5), env.balance(1))
	assert.Equal(t, int64(2*testMintPrice+5), env.balance(model.TreasuryAccount))

	stored := env.character(1)
	assert.Equal(t, c.BaseStats, stored.BaseStats)
	assert.Equal(t, c.Class, stored.Class)
	assert.Equal(t, c.Rarity, stored.Rarity)
}

func TestMint_ScenarioB(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	alice := env.player(1)

	_, err := env.characters.Mint(ctx, alice, testMintPrice-1)
	assert.ErrorIs(t, err, ErrInsufficientPayment)
	assert.ErrorIs(t, err, ErrPrecondition)

	count, err := env.characters.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	_, err = env.characters.GetStats(ctx, 1)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
	assert.Equal(t, int64(testStartingBalance), env.balance(1))
}

func TestMint_Rejections(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()

	_, err := env.characters.Mint(ctx, auth.Caller{}, testMintPrice)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// No wallet at all.
	_, err = env.characters.Mint(ctx, auth.Verified(9, ""), testMintPrice)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	poor := env.player(2)
	_, err = env.characters.Mint(ctx, poor, testStartingBalance+1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	count, err := env.characters.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestHeal(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	alice, bob := env.player(1), env.player(2)
	id := env.putCharacter(1, scenarioA)

	tests := []struct {
		name    string
		caller  auth.Caller
		payment int64
		ko      bool
		wantErr error
	}{
		{"not owner checked first", bob, 0, false, ErrNotOwner},
		{"payment checked before KO", alice, testHealPrice - 1, false, ErrInsufficientPayment},
		{"not knocked out", alice, testHealPrice, false, ErrNotKnockedOut},
		{"not owner even when KO", bob, testHealPrice, true, ErrNotOwner},
		{"low payment when KO", alice, 0, true, ErrInsufficientPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ko {
				knockOut(env, id)
			}
			err := env.characters.Heal(ctx, tt.caller, id, tt.payment)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.ko, env.character(id).KnockedOut)
			assert.Equal(t, int64(testStartingBalance), env.balance(1))
		})
	}

	require.NoError(t, env.characters.Heal(ctx, alice, id, testHealPrice))
	healed := env.character(id)
	assert.False(t, healed.KnockedOut)
	assert.Equal(t, scenarioA, healed.BaseStats)
	assert.Equal(t, int64(testStartingBalance-testHealPrice), env.balance(1))

	err := env.characters.Heal(ctx, alice, 404, testHealPrice)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestEffectiveStatsAndListing(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	a := env.putCharacter(1, model.Stats{Health: 100, Attack: 50, Speed: 300, Luck: 200})
	env.putCharacter(2, scenarioB)
	c := env.putCharacter(1, scenarioA)

	eff, err := env.characters.EffectiveStats(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(50), eff.Stats.Attack)
	assert.Equal(t, int64(1500), eff.CritBps)
	assert.Equal(t, int64(1500), eff.DodgeBps)

	list, err := env.characters.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0].ID)
	assert.Equal(t, c, list[1].ID)

	_, err = env.characters.EffectiveStats(ctx, 404)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestDuelAuthority(t *testing.T) {
	env := newTestEnv(nil)
	ctx := context.Background()
	id := env.putCharacter(1, scenarioA)

	assert.ErrorIs(t, env.characters.GrantDuelAuthority("another"), ErrAuthorityAlreadyGranted)

	err := env.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return env.characters.RecordDuelOutcome(ctx, tx, "forged", id, true, 1)
	})
	assert.ErrorIs(t, err, ErrUnauthorizedAuthority)
	assert.Equal(t, int64(0), env.character(id).Wins)

	fresh := NewCharacterService(env.store, env.source, env.agg, testMintPrice, testHealPrice)
	err = env.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fresh.RecordDuelOutcome(ctx, tx, "", id, true, 1)
	})
	assert.ErrorIs(t, err, ErrUnauthorizedAuthority)

	err = env.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return env.characters.RecordDuelOutcome(ctx, tx, testAuthority, id, false, 42)
	})
	require.NoError(t, err)
	c := env.character(id)
	assert.Equal(t, int64(1), c.Losses)
	assert.True(t, c.KnockedOut)
	assert.Equal(t, int64(42), c.LastBattleAt)
	assert.Equal(t, int64(lossXP), c.Experience)
}
