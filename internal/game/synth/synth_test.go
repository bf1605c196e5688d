package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"duel-arena/internal/model"
	"duel-arena/internal/random"
)

func testSource() *random.Source {
	s := random.NewSource("synth-test", 0)
	s.SetClock(func() time.Time { return time.Unix(1700000000, 0) })
	return s
}

func TestBase_TiersAreOrdered(t *testing.T) {
	for r := model.RarityCommon; r < model.RarityMythic; r++ {
		lo, hi := Base(r), Base(r+1)
		assert.Less(t, lo.Health, hi.Health, "health %s", r)
		assert.Less(t, lo.Attack, hi.Attack, "attack %s", r)
		assert.Less(t, JitterSpan(r), JitterSpan(r+1))
	}
}

func TestRarityWeights_Decrease(t *testing.T) {
	var total int64
	for i, w := range RarityWeights {
		total += w
		if i > 0 {
			assert.Less(t, w, RarityWeights[i-1])
		}
	}
	assert.Equal(t, int64(random.BpsScale), total)
}

func TestSkew_MageLeansMagic(t *testing.T) {
	st := testSource().Stream(random.Seed{Domain: random.DomainMint, Subject: 1})
	mage := Roll(model.ClassMage, model.RarityRare, st.Sub("a"))
	warrior := Roll(model.ClassWarrior, model.RarityRare, st.Sub("a"))
	assert.Greater(t, mage.Magic, warrior.Magic)
	assert.Greater(t, warrior.Attack, mage.Attack)
	assert.Equal(t, model.Stats{}, Skew(model.Class(99)))
}

func TestSynthesize_RarityDistribution(t *testing.T) {
	src := testSource()
	var counts [model.RarityCount]int
	for i := int64(1); i <= 5000; i++ {
		res := Synthesize(src.Stream(src.Next(random.DomainMint, i, 1)))
		counts[res.Rarity]++
	}
	assert.Greater(t, counts[model.RarityCommon], counts[model.RarityUncommon])
	assert.Greater(t, counts[model.RarityUncommon], counts[model.RarityRare])
	assert.Greater(t, counts[model.RarityRare], counts[model.RarityLegendary])
}

// TestSynthesizeProperty checks that every synthesized character is valid,
// inside its tier's range and reproducible from its seed.
func TestSynthesizeProperty(t *testing.T) {
	src := testSource()
	rapid.Check(t, func(t *rapid.T) {
		seed := random.Seed{
			Domain:  random.DomainMint,
			Subject: rapid.Int64Range(1, 1<<40).Draw(t, "id"),
			Caller:  rapid.Int64Range(1, 1<<40).Draw(t, "caller"),
			Nonce:   rapid.Uint64().Draw(t, "nonce"),
		}
		res := Synthesize(src.Stream(seed))

		if res.Class < 0 || int(res.Class) >= model.ClassCount {
			t.Fatalf("class %d out of range", res.Class)
		}
		if res.Rarity < 0 || int(res.Rarity) >= model.RarityCount {
			t.Fatalf("rarity %d out of range", res.Rarity)
		}
		base, skew, span := Base(res.Rarity), Skew(res.Class), JitterSpan(res.Rarity)
		check := func(name string, got, b, pct int64) {
			lo := b + b*pct/100
			if lo < 1 {
				lo = 1
			}
			if got < lo || got > b+b*pct/100+span {
				t.Fatalf("%s=%d outside [%d, %d]", name, got, lo, b+b*pct/100+span)
			}
		}
		check("health", res.Stats.Health, base.Health, skew.Health)
		check("attack", res.Stats.Attack, base.Attack, skew.Attack)
		check("defense", res.Stats.Defense, base.Defense, skew.Defense)
		check("speed", res.Stats.Speed, base.Speed, skew.Speed)
		check("magic", res.Stats.Magic, base.Magic, skew.Magic)
		check("luck", res.Stats.Luck, base.Luck, skew.Luck)

		if again := Synthesize(src.Stream(seed)); again != res {
			t.Fatalf("same seed synthesized %+v then %+v", res, again)
		}
	})
}
