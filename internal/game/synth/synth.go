// Package synth synthesizes a character's immutable stats at mint time.
package synth

import (
	"duel-arena/internal/model"
	"duel-arena/internal/random"
)

// RarityWeights are the draw weights of each tier out of 10000. Each tier is
// roughly half as likely as the previous one, the top tiers much rarer.
var RarityWeights = [model.RarityCount]int64{5200, 2600, 1300, 650, 200, 50}

// classSkew biases each attribute by a percentage of the tier base.
var classSkew = [model.ClassCount]model.Stats{
	model.ClassWarrior:  {Health: 15, Attack: 25, Defense: 5, Speed: 0, Magic: -30, Luck: 0},
	model.ClassMage:     {Health: -10, Attack: -20, Defense: -15, Speed: 0, Magic: 40, Luck: 5},
	model.ClassRogue:    {Health: -15, Attack: 5, Defense: -10, Speed: 35, Magic: -10, Luck: 25},
	model.ClassGuardian: {Health: 30, Attack: -10, Defense: 35, Speed: -20, Magic: 0, Luck: -5},
	model.ClassRanger:   {Health: 0, Attack: 15, Defense: -10, Speed: 20, Magic: -5, Luck: 10},
}

// Result is a synthesized character template.
type Result struct {
	Class  model.Class
	Rarity model.Rarity
	Stats  model.Stats
}

// Synthesize draws rarity, class and stats from independent sub streams.
func Synthesize(st *random.Stream) Result {
	rarity := DrawRarity(st.Sub("rarity"))
	class := model.Class(st.Sub("class").Intn(model.ClassCount))
	return Result{
		Class:  class,
		Rarity: rarity,
		Stats:  Roll(class, rarity, st.Sub("stats")),
	}
}

// DrawRarity draws a tier from RarityWeights.
func DrawRarity(st *random.Stream) model.Rarity {
	return model.Rarity(st.Weighted(RarityWeights[:]))
}

// Base returns the tier base of every attribute.
func Base(r model.Rarity) model.Stats {
	t := int64(r)
	other := 40 + 15*t
	return model.Stats{
		Health:  100 + 30*t,
		Attack:  other,
		Defense: other,
		Speed:   other,
		Magic:   other,
		Luck:    other,
	}
}

// JitterSpan returns the inclusive upper bound of the per-attribute jitter.
func JitterSpan(r model.Rarity) int64 {
	return 10 + 4*int64(r)
}

// Skew returns the class bias in percent.
func Skew(c model.Class) model.Stats {
	if c < 0 || int(c) >= model.ClassCount {
		return model.Stats{}
	}
	return classSkew[c]
}

// Roll derives the stats of a class and tier. Attributes are drawn in the
// fixed order health, attack, defense, speed, magic, luck.
func Roll(class model.Class, rarity model.Rarity, st *random.Stream) model.Stats {
	base, skew, span := Base(rarity), Skew(class), JitterSpan(rarity)
	attr := func(b, pct int64) int64 {
		v := b + b*pct/100 + st.Intn(span+1)
		if v < 1 {
			return 1
		}
		return v
	}
	return model.Stats{
		Health:  attr(base.Health, skew.Health),
		Attack:  attr(base.Attack, skew.Attack),
		Defense: attr(base.Defense, skew.Defense),
		Speed:   attr(base.Speed, skew.Speed),
		Magic:   attr(base.Magic, skew.Magic),
		Luck:    attr(base.Luck, skew.Luck),
	}
}
