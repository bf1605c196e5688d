// Package forge synthesizes equipment at forge time.
package forge

import (
	"fmt"

	"duel-arena/internal/game/synth"
	"duel-arena/internal/model"
	"duel-arena/internal/random"
)

// Attribute names one of the six stats.
type Attribute int

const (
	AttrHealth Attribute = iota
	AttrAttack
	AttrDefense
	AttrSpeed
	AttrMagic
	AttrLuck
)

// Blueprint describes what a forged piece of equipment can roll.
type Blueprint struct {
	Kind      model.EquipmentKind
	Name      string
	Emoji     string
	Primary   Attribute   // always present in the bonus vector
	Secondary []Attribute // pool of extra bonuses
	Extra     int         // how many secondaries are drawn
	Effects   []model.EffectKind
}

// Blueprints contains the forgeable equipment kinds.
var Blueprints = map[model.EquipmentKind]Blueprint{
	model.KindWeapon: {
		Kind:      model.KindWeapon,
		Name:      "武器",
		Emoji:     "🗡️",
		Primary:   AttrAttack,
		Secondary: []Attribute{AttrSpeed, AttrLuck},
		Extra:     1,
	},
	model.KindArtifact: {
		Kind:      model.KindArtifact,
		Name:      "神器",
		Emoji:     "🔮",
		Primary:   AttrMagic,
		Secondary: []Attribute{AttrHealth, AttrDefense, AttrLuck},
		Extra:     2,
		Effects:   []model.EffectKind{model.EffectBurn, model.EffectWard, model.EffectRegen},
	},
}

// Result is a forged template.
type Result struct {
	Rarity model.Rarity
	Bonus  model.Stats
	Effect *model.SpecialEffect
}

// Forge rolls a piece of equipment of the given kind.
func Forge(kind model.EquipmentKind, st *random.Stream) (Result, error) {
	bp, ok := Blueprints[kind]
	if !ok {
		return Result{}, fmt.Errorf("unknown equipment kind %q", kind)
	}

	rarity := synth.DrawRarity(st.Sub("rarity"))
	t := int64(rarity)
	bonuses := st.Sub("bonus")

	var bonus model.Stats
	add(&bonus, bp.Primary, 8+6*t+bonuses.Intn(5+2*t))

	// Pick Extra distinct secondaries by partial shuffle.
	pool := append([]Attribute(nil), bp.Secondary...)
	for i := 0; i < bp.Extra && i < len(pool); i++ {
		j := i + int(bonuses.Intn(int64(len(pool)-i)))
		pool[i], pool[j] = pool[j], pool[i]
		add(&bonus, pool[i], 3+3*t+bonuses.Intn(4+t))
	}

	res := Result{Rarity: rarity, Bonus: bonus}
	if len(bp.Effects) > 0 {
		effects := st.Sub("effect")
		charges := 3 + int(t)
		res.Effect = &model.SpecialEffect{
			Kind:       bp.Effects[effects.Intn(int64(len(bp.Effects)))],
			Power:      4 + 3*t + effects.Intn(3+t),
			Charges:    charges,
			MaxCharges: charges,
		}
	}
	return res, nil
}

func add(s *model.Stats, a Attribute, v int64) {
	switch a {
	case AttrHealth:
		s.Health += v
	case AttrAttack:
		s.Attack += v
	case AttrDefense:
		s.Defense += v
	case AttrSpeed:
		s.Speed += v
	case AttrMagic:
		s.Magic += v
	case AttrLuck:
		s.Luck += v
	}
}
