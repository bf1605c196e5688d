package forge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"duel-arena/internal/model"
	"duel-arena/internal/random"
)

func TestForge_UnknownKind(t *testing.T) {
	st := random.NewSource("forge-test", 0).Stream(random.Seed{Domain: random.DomainForge})
	_, err := Forge(model.EquipmentKind("shield"), st)
	assert.Error(t, err)
}

func TestForge_WeaponHasNoEffect(t *testing.T) {
	src := random.NewSource("forge-test", 0)
	res, err := Forge(model.KindWeapon, src.Stream(src.Next(random.DomainForge, 1, 1)))
	require.NoError(t, err)
	assert.Nil(t, res.Effect)
	assert.Zero(t, res.Bonus.Magic)
	assert.Zero(t, res.Bonus.Health)
}

// TestForgeProperty checks bonus vectors stay non-negative and on the
// blueprint's attributes, and that effects start fully charged.
func TestForgeProperty(t *testing.T) {
	src := random.NewSource("forge-test", 0)
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.SampledFrom([]model.EquipmentKind{model.KindWeapon, model.KindArtifact}).Draw(t, "kind")
		seed := random.Seed{
			Domain:  random.DomainForge,
			Subject: rapid.Int64Range(1, 1<<30).Draw(t, "id"),
			Nonce:   rapid.Uint64().Draw(t, "nonce"),
		}
		res, err := Forge(kind, src.Stream(seed))
		if err != nil {
			t.Fatalf("forge: %v", err)
		}

		b := res.Bonus
		b.Map(func(v int64) int64 {
			if v < 0 {
				t.Fatalf("negative bonus in %+v", res.Bonus)
			}
			return v
		})

		bp := Blueprints[kind]
		allowed := map[Attribute]bool{bp.Primary: true}
		for _, a := range bp.Secondary {
			allowed[a] = true
		}
		values := map[Attribute]int64{
			AttrHealth: b.Health, AttrAttack: b.Attack, AttrDefense: b.Defense,
			AttrSpeed: b.Speed, AttrMagic: b.Magic, AttrLuck: b.Luck,
		}
		extras := 0
		for a, v := range values {
			if v > 0 && !allowed[a] {
				t.Fatalf("%s rolled attribute %d outside its blueprint", kind, a)
			}
			if v > 0 && a != bp.Primary {
				extras++
			}
		}
		if values[bp.Primary] <= 0 {
			t.Fatalf("%s is missing its primary bonus", kind)
		}
		if extras != bp.Extra {
			t.Fatalf("%s rolled %d secondaries, want %d", kind, extras, bp.Extra)
		}

		if kind == model.KindArtifact {
			if res.Effect == nil || res.Effect.Charges != res.Effect.MaxCharges || res.Effect.Charges != 3+int(res.Rarity) {
				t.Fatalf("artifact effect wrong: %+v", res.Effect)
			}
		} else if res.Effect != nil {
			t.Fatalf("weapon rolled an effect")
		}
	})
}
