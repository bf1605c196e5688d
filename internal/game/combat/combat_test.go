package combat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"duel-arena/internal/game"
	"duel-arena/internal/model"
	"duel-arena/internal/random"
)

var testRules = Rules{MaxRounds: 30, MinDamage: 1, CritMultiplierPct: 150}

func newTestStandard(t testing.TB) *Standard {
	s, err := NewStandard(testRules)
	require.NoError(t, err)
	return s
}

func fighterOf(id int64, st model.Stats) game.Fighter {
	return game.Fighter{CharacterID: id, Stats: model.EffectiveStats{Stats: st}}
}

func TestNewStandard_RejectsBadRules(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
	}{
		{"no rounds", Rules{MaxRounds: 0, MinDamage: 1, CritMultiplierPct: 150}},
		{"no forward progress", Rules{MaxRounds: 30, MinDamage: 0, CritMultiplierPct: 150}},
		{"crit weakens", Rules{MaxRounds: 30, MinDamage: 1, CritMultiplierPct: 90}},
		{"crit multiplier too large", Rules{MaxRounds: 30, MinDamage: 1, CritMultiplierPct: MaxCritMultiplierPct + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStandard(tt.rules)
			assert.ErrorIs(t, err, ErrBadRules)
		})
	}
}

// TestSimulate_ScenarioA: A (atk 120, def 80, spd 90, hp 150) against
// B (atk 90, def 100, spd 70, hp 160) with no crits and no dodges.
func TestSimulate_ScenarioA(t *testing.T) {
	s := newTestStandard(t)
	a := fighterOf(1, model.Stats{Health: 150, Attack: 120, Defense: 80, Speed: 90})
	b := fighterOf(2, model.Stats{Health: 160, Attack: 90, Defense: 100, Speed: 70})

	out, err := s.Simulate([2]game.Fighter{a, b}, NoDraws(s.DrawCount()))
	require.NoError(t, err)

	assert.Equal(t, int64(1), out.FirstActorID)
	assert.Equal(t, int64(1), out.WinnerID)
	assert.Equal(t, int64(2), out.LoserID)
	assert.True(t, out.Knockout)
	assert.Equal(t, 8, out.Rounds)
	assert.Equal(t, [2]int64{80, 0}, out.FinalHealth)
	require.Len(t, out.Trajectory, 15)
	assert.Equal(t, int64(20), out.Trajectory[0].Damage)
	assert.Equal(t, int64(10), out.Trajectory[1].Damage)

	// Order of the input pair does not change the result.
	swapped, err := s.Simulate([2]game.Fighter{b, a}, NoDraws(s.DrawCount()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), swapped.WinnerID)
	assert.Equal(t, [2]int64{0, 80}, swapped.FinalHealth)
}

func TestFirstActor(t *testing.T) {
	tests := []struct {
		name   string
		speeds [2]int64
		ids    [2]int64
		want   int
	}{
		{"faster first", [2]int64{10, 20}, [2]int64{1, 2}, 1},
		{"faster first reversed", [2]int64{30, 20}, [2]int64{1, 2}, 0},
		{"tie goes to lower id", [2]int64{50, 50}, [2]int64{9, 4}, 1},
		{"tie goes to lower id first", [2]int64{50, 50}, [2]int64{4, 9}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := [2]game.Fighter{
				fighterOf(tt.ids[0], model.Stats{Speed: tt.speeds[0]}),
				fighterOf(tt.ids[1], model.Stats{Speed: tt.speeds[1]}),
			}
			assert.Equal(t, tt.want, FirstActor(f))
		})
	}
}

func TestSimulate_Errors(t *testing.T) {
	s := newTestStandard(t)
	a := fighterOf(1, model.Stats{Health: 10})

	_, err := s.Simulate([2]game.Fighter{a, a}, NoDraws(s.DrawCount()))
	assert.ErrorIs(t, err, ErrSameFighter)

	_, err = s.Simulate([2]game.Fighter{a, fighterOf(2, model.Stats{Health: 10})}, NoDraws(3))
	assert.ErrorIs(t, err, ErrShortDraws)
}

func TestSimulate_CritAndDodge(t *testing.T) {
	s := newTestStandard(t)
	a := fighterOf(1, model.Stats{Health: 1000, Attack: 60, Speed: 10})
	a.Stats.CritBps = 3000
	b := fighterOf(2, model.Stats{Health: 1000, Attack: 60, Defense: 20})
	b.Stats.DodgeBps = 3000

	draws := NoDraws(s.DrawCount())
	draws[0] = Draw{Crit: 0, Dodge: random.BpsScale} // A crits
	draws[2] = Draw{Crit: 0, Dodge: 0}               // A crits, B dodges

	out, err := s.Simulate([2]game.Fighter{a, b}, draws)
	require.NoError(t, err)

	first := out.Trajectory[0]
	assert.True(t, first.Crit)
	assert.Equal(t, int64(60), first.Damage) // (60-20) * 150%

	dodged := out.Trajectory[2]
	assert.True(t, dodged.Dodged)
	assert.Zero(t, dodged.Damage)
}

func TestSimulate_Effects(t *testing.T) {
	s := newTestStandard(t)

	t.Run("burn adds to every hit", func(t *testing.T) {
		a := fighterOf(1, model.Stats{Health: 100, Attack: 30, Speed: 10})
		a.Stats.Effect = &model.SpecialEffect{Kind: model.EffectBurn, Power: 7, Charges: 1}
		b := fighterOf(2, model.Stats{Health: 100, Attack: 30, Defense: 10})

		out, err := s.Simulate([2]game.Fighter{a, b}, NoDraws(s.DrawCount()))
		require.NoError(t, err)
		assert.Equal(t, int64(27), out.Trajectory[0].Damage)
		assert.Equal(t, [2]bool{true, false}, out.EffectUsed)
	})

	t.Run("ward never goes below min damage", func(t *testing.T) {
		a := fighterOf(1, model.Stats{Health: 100, Attack: 30, Speed: 10})
		b := fighterOf(2, model.Stats{Health: 100, Attack: 30})
		b.Stats.Effect = &model.SpecialEffect{Kind: model.EffectWard, Power: 100, Charges: 1}

		out, err := s.Simulate([2]game.Fighter{a, b}, NoDraws(s.DrawCount()))
		require.NoError(t, err)
		assert.Equal(t, testRules.MinDamage, out.Trajectory[0].Damage)
		assert.Equal(t, int64(2), out.WinnerID)
	})

	t.Run("regen heals up to starting health", func(t *testing.T) {
		a := fighterOf(1, model.Stats{Health: 100, Attack: 5, Speed: 10})
		b := fighterOf(2, model.Stats{Health: 100, Attack: 3})
		b.Stats.Effect = &model.SpecialEffect{Kind: model.EffectRegen, Power: 50, Charges: 1}

		out, err := s.Simulate([2]game.Fighter{a, b}, NoDraws(s.DrawCount()))
		require.NoError(t, err)
		assert.Equal(t, 30, out.Rounds)
		assert.Equal(t, int64(100), out.FinalHealth[1])
		assert.Equal(t, int64(2), out.WinnerID)
		healed := out.Trajectory[2]
		assert.Equal(t, int64(5), healed.Healed)
	})

	t.Run("spent effect is inert", func(t *testing.T) {
		a := fighterOf(1, model.Stats{Health: 100, Attack: 30, Speed: 10})
		a.Stats.Effect = &model.SpecialEffect{Kind: model.EffectBurn, Power: 7, Charges: 0}
		b := fighterOf(2, model.Stats{Health: 100, Attack: 30, Defense: 10})

		out, err := s.Simulate([2]game.Fighter{a, b}, NoDraws(s.DrawCount()))
		require.NoError(t, err)
		assert.Equal(t, int64(20), out.Trajectory[0].Damage)
		assert.Equal(t, [2]bool{false, false}, out.EffectUsed)
	})
}

func TestDecide_HealthFraction(t *testing.T) {
	a := fighterOf(7, model.Stats{})
	b := fighterOf(3, model.Stats{})

	assert.Equal(t, 0, decide([2]game.Fighter{a, b}, [2]int64{100, 200}, [2]int64{60, 100}))
	assert.Equal(t, 1, decide([2]game.Fighter{a, b}, [2]int64{100, 200}, [2]int64{40, 100}))
	// 50% each: the lower id wins.
	assert.Equal(t, 1, decide([2]game.Fighter{a, b}, [2]int64{100, 200}, [2]int64{50, 100}))
	assert.Equal(t, 0, decide([2]game.Fighter{a, b}, [2]int64{100, 200}, [2]int64{1, 0}))
}

func TestDigest_CoversWinner(t *testing.T) {
	traj := []game.Exchange{{Round: 1, Attacker: 1, Defender: 2, Damage: 5, Health: [2]int64{10, 5}}}
	assert.Equal(t, Digest(traj, 1), Digest(traj, 1))
	assert.NotEqual(t, Digest(traj, 1), Digest(traj, 2))
	assert.NotEqual(t, Digest(traj, 1), Digest(nil, 1))
}

func drawFighter(t *rapid.T, id int64) game.Fighter {
	f := fighterOf(id, model.Stats{
		Health:  rapid.Int64Range(1, 1000).Draw(t, "health"),
		Attack:  rapid.Int64Range(0, 1000).Draw(t, "attack"),
		Defense: rapid.Int64Range(0, 1000).Draw(t, "defense"),
		Speed:   rapid.Int64Range(0, 1000).Draw(t, "speed"),
	})
	f.Stats.CritBps = rapid.Int64Range(0, 3000).Draw(t, "crit")
	f.Stats.DodgeBps = rapid.Int64Range(0, 3000).Draw(t, "dodge")
	if rapid.Bool().Draw(t, "effect") {
		f.Stats.Effect = &model.SpecialEffect{
			Kind:    rapid.SampledFrom([]model.EffectKind{model.EffectBurn, model.EffectWard, model.EffectRegen}).Draw(t, "kind"),
			Power:   rapid.Int64Range(0, 1000).Draw(t, "power"),
			Charges: rapid.IntRange(0, 3).Draw(t, "charges"),
		}
	}
	return f
}

// TestResolveProperty checks that any pair of fighters resolves to exactly
// one winner within the round budget, with health never negative, and that
// the same seed always reproduces the same trajectory.
func TestResolveProperty(t *testing.T) {
	s := newTestStandard(t)
	src := random.NewSource("combat-test", 0)
	src.SetClock(func() time.Time { return time.Unix(1700000000, 0) })

	rapid.Check(t, func(t *rapid.T) {
		a := drawFighter(t, rapid.Int64Range(1, 1000).Draw(t, "idA"))
		b := drawFighter(t, rapid.Int64Range(1001, 2000).Draw(t, "idB"))
		seed := src.Next(random.DomainDuel, 1, 1, a.CharacterID, b.CharacterID)

		out, err := s.Resolve([2]game.Fighter{a, b}, src.Stream(seed))
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if out.WinnerID == out.LoserID {
			t.Fatalf("draw: winner and loser are both %d", out.WinnerID)
		}
		if out.WinnerID != a.CharacterID && out.WinnerID != b.CharacterID {
			t.Fatalf("winner %d is not a participant", out.WinnerID)
		}
		if out.Rounds < 1 || out.Rounds > testRules.MaxRounds {
			t.Fatalf("rounds %d outside budget", out.Rounds)
		}
		for _, ex := range out.Trajectory {
			if ex.Health[0] < 0 || ex.Health[1] < 0 || ex.Damage < 0 {
				t.Fatalf("negative value in exchange %+v", ex)
			}
		}
		if out.Knockout {
			loser := 0
			if out.LoserID == b.CharacterID {
				loser = 1
			}
			if out.FinalHealth[loser] != 0 {
				t.Fatalf("knockout with loser health %d", out.FinalHealth[loser])
			}
		}

		again, err := s.Resolve([2]game.Fighter{a, b}, src.Stream(seed))
		if err != nil {
			t.Fatalf("resolve again: %v", err)
		}
		if again.Digest != out.Digest || again.WinnerID != out.WinnerID || again.FinalHealth != out.FinalHealth {
			t.Fatalf("same seed diverged")
		}
	})
}
