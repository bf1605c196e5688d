package service

import (
	"context"
	"errors"
	"time"

	"duel-arena/internal/auth"
	"duel-arena/internal/fighter"
	"duel-arena/internal/game"
	"duel-arena/internal/game/combat"
	"duel-arena/internal/model"
	"duel-arena/internal/random"
	"duel-arena/internal/repository"
)

const (
	testMintPrice       = 100
	testHealPrice       = 25
	testDuelFee         = 10
	testForgePrice      = 50
	testStartingBalance = 1000
	testAuthority       = "engine-authority"
)

var (
	testLimits = fighter.Limits{
		Ceiling:        1000,
		CritCapBps:     3000,
		DodgeCapBps:    3000,
		CritHalfPoint:  200,
		DodgeHalfPoint: 300,
	}
	testRules = combat.Rules{MaxRounds: 30, MinDamage: 1, CritMultiplierPct: 150}
	testNow   = time.Unix(1700000000, 0)
)

type testEnv struct {
	store      *repository.MemoryStore
	source     *random.Source
	agg        *fighter.Aggregator
	accounts   *AccountService
	characters *CharacterService
	equipment  *EquipmentService
	duels      *DuelService
	ranking    *RankingService
}

// newTestEnv wires every service over a fresh memory store. A nil ruleset
// means the standard one.
func newTestEnv(rs game.Ruleset) *testEnv {
	if rs == nil {
		std, err := combat.NewStandard(testRules)
		if err != nil {
			panic(err)
		}
		rs = std
	}
	registry := game.NewRegistry()
	if err := registry.Register(rs); err != nil {
		panic(err)
	}

	store := repository.NewMemoryStore()
	source := random.NewSource("test-secret", 0)
	source.SetClock(func() time.Time { return testNow })
	agg := fighter.NewAggregator(testLimits)

	characters := NewCharacterService(store, source, agg, testMintPrice, testHealPrice)
	characters.SetClock(func() time.Time { return testNow })
	if err := characters.GrantDuelAuthority(testAuthority); err != nil {
		panic(err)
	}
	equipment := NewEquipmentService(store, source, testForgePrice)
	duels := NewDuelService(store, characters, agg, source, registry, testAuthority, testDuelFee)
	duels.SetClock(func() time.Time { return testNow })

	return &testEnv{
		store:      store,
		source:     source,
		agg:        agg,
		accounts:   NewAccountService(store, testStartingBalance),
		characters: characters,
		equipment:  equipment,
		duels:      duels,
		ranking:    NewRankingService(store),
	}
}

// player returns a verified caller with a funded wallet.
func (e *testEnv) player(id int64) auth.Caller {
	caller := auth.Verified(id, "")
	if _, _, err := e.accounts.EnsureWallet(context.Background(), caller); err != nil {
		panic(err)
	}
	return caller
}

// putCharacter stores a character with exact base stats, bypassing mint.
func (e *testEnv) putCharacter(owner int64, stats model.Stats) int64 {
	var id int64
	err := e.store.InTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		id, err = tx.NextCharacterID(ctx)
		if err != nil {
			return err
		}
		return tx.CreateCharacter(ctx, &model.Character{
			ID:        id,
			Owner:     owner,
			BaseStats: stats,
			Level:     1,
			CreatedAt: testNow.Unix(),
		})
	})
	if err != nil {
		panic(err)
	}
	return id
}

func (e *testEnv) balance(account int64) int64 {
	var b int64
	err := e.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		b, err = tx.Balance(ctx, account)
		return err
	})
	if err != nil {
		panic(err)
	}
	return b
}

func (e *testEnv) character(id int64) *model.Character {
	c, err := e.characters.GetStats(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return c
}

// steadyRuleset resolves with draws that never crit or dodge.
type steadyRuleset struct {
	*combat.Standard
}

func newSteadyRuleset() steadyRuleset {
	std, err := combat.NewStandard(testRules)
	if err != nil {
		panic(err)
	}
	return steadyRuleset{std}
}

func (r steadyRuleset) Resolve(fighters [2]game.Fighter, _ *random.Stream) (*game.Outcome, error) {
	return r.Simulate(fighters, combat.NoDraws(r.DrawCount()))
}

var errRulesetDown = errors.New("ruleset unavailable")

// failingRuleset fails every resolution.
type failingRuleset struct{}

func (failingRuleset) Kind() model.DuelKind { return model.DuelStandard }
func (failingRuleset) Name() string         { return "failing" }
func (failingRuleset) Resolve([2]game.Fighter, *random.Stream) (*game.Outcome, error) {
	return nil, errRulesetDown
}

// panickingRuleset panics in the middle of a resolution.
type panickingRuleset struct{ failingRuleset }

func (panickingRuleset) Resolve([2]game.Fighter, *random.Stream) (*game.Outcome, error) {
	panic("ruleset crashed")
}

// drawRuleset reports a draw, which is never a valid outcome.
type drawRuleset struct{ failingRuleset }

func (drawRuleset) Resolve(f [2]game.Fighter, _ *random.Stream) (*game.Outcome, error) {
	return &game.Outcome{WinnerID: f[0].CharacterID, LoserID: f[0].CharacterID}, nil
}

var scenarioA = model.Stats{Health: 150, Attack: 120, Defense: 80, Speed: 90}
var scenarioB = model.Stats{Health: 160, Attack: 90, Defense: 100, Speed: 70}
