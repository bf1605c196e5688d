// Package fighter derives the effective combat stats of a character.
// Nothing here is cached: stats are recomputed from the registries on every
// call so an equipment change is always visible to the next duel.
package fighter

import (
	"context"
	"fmt"

	"duel-arena/internal/model"
	"duel-arena/internal/random"
)

// Limits bounds every derived value.
type Limits struct {
	Ceiling        int64 // every attribute is clamped into [0, Ceiling]
	CritCapBps     int64
	DodgeCapBps    int64
	CritHalfPoint  int64 // luck at which crit chance reaches half its cap
	DodgeHalfPoint int64 // speed at which dodge chance reaches half its cap
}

// Reader is the read side of the registries the aggregator needs.
type Reader interface {
	GetCharacter(ctx context.Context, id int64) (*model.Character, error)
	GetEquipment(ctx context.Context, kind model.EquipmentKind, id int64) (*model.Equipment, error)
}

// Aggregator computes effective stats.
type Aggregator struct {
	limits Limits
}

// NewAggregator creates an Aggregator.
func NewAggregator(limits Limits) *Aggregator {
	return &Aggregator{limits: limits}
}

// Limits returns the configured bounds.
func (a *Aggregator) Limits() Limits {
	return a.limits
}

// Compute reads the character and whatever it has equipped and aggregates.
// Equipment whose back-reference does not point at the character is ignored.
func (a *Aggregator) Compute(ctx context.Context, r Reader, characterID int64) (model.EffectiveStats, error) {
	c, err := r.GetCharacter(ctx, characterID)
	if err != nil {
		return model.EffectiveStats{}, err
	}

	weapon, err := a.equipped(ctx, r, model.KindWeapon, c.ID, c.EquippedWeaponID)
	if err != nil {
		return model.EffectiveStats{}, err
	}
	artifact, err := a.equipped(ctx, r, model.KindArtifact, c.ID, c.EquippedArtifactID)
	if err != nil {
		return model.EffectiveStats{}, err
	}

	return Aggregate(c.BaseStats, weapon, artifact, a.limits), nil
}

func (a *Aggregator) equipped(ctx context.Context, r Reader, kind model.EquipmentKind, characterID int64, id *int64) (*model.Equipment, error) {
	if id == nil {
		return nil, nil
	}
	eq, err := r.GetEquipment(ctx, kind, *id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve equipped %s %d: %w", kind, *id, err)
	}
	if eq.EquippedTo == nil || *eq.EquippedTo != characterID {
		return nil, nil
	}
	return eq, nil
}

// Aggregate merges base stats with the optional weapon and artifact bonuses.
// The result never leaves [0, lim.Ceiling] on any attribute.
func Aggregate(base model.Stats, weapon, artifact *model.Equipment, lim Limits) model.EffectiveStats {
	sum := clampStats(base, lim.Ceiling)
	if weapon != nil {
		sum = clampStats(sum.Add(clampStats(weapon.Bonus, lim.Ceiling)), lim.Ceiling)
	}
	if artifact != nil {
		sum = clampStats(sum.Add(clampStats(artifact.Bonus, lim.Ceiling)), lim.Ceiling)
	}

	eff := model.EffectiveStats{
		Stats:    sum,
		CritBps:  Chance(sum.Luck, lim.CritHalfPoint, lim.CritCapBps),
		DodgeBps: Chance(sum.Speed, lim.DodgeHalfPoint, lim.DodgeCapBps),
	}

	if artifact != nil && artifact.Effect.Active() {
		effect := *artifact.Effect
		effect.Power = clamp(effect.Power+sum.Magic/10, 0, lim.Ceiling)
		eff.Effect = &effect
		id := artifact.ID
		eff.ArtifactID = &id
	}
	return eff
}

// Chance maps a non-negative attribute onto [0, capBps] with a saturating
// curve: capBps * x / (x + halfPoint). It is monotonic non-decreasing in x.
func Chance(x, halfPoint, capBps int64) int64 {
	if x <= 0 || capBps <= 0 {
		return 0
	}
	if capBps > random.BpsScale {
		capBps = random.BpsScale
	}
	if halfPoint <= 0 {
		return capBps
	}
	v := capBps * x / (x + halfPoint)
	return clamp(v, 0, capBps)
}

func clampStats(s model.Stats, ceiling int64) model.Stats {
	return s.Map(func(v int64) int64 { return clamp(v, 0, ceiling) })
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
