// Package combat implements the standard duel ruleset.
//
// # Determinism
//
// Simulate is a pure function of the fighters, the rules and the draw
// sequence. Resolve derives the draw sequence from the stream, so the same
// seed always reproduces the same winner and the same health trajectory.
//
// # Rounds
//
// A round is one action by each living fighter. The faster fighter acts
// first; equal speed goes to the lower character id. Each action consumes
// exactly one Draw, so a duel never needs more than 2*MaxRounds draws.
package combat

import (
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"

	"duel-arena/internal/game"
	"duel-arena/internal/model"
	"duel-arena/internal/random"
)

// Errors returned by the ruleset.
var (
	ErrSameFighter = errors.New("a fighter cannot duel itself")
	ErrShortDraws  = errors.New("draw sequence shorter than the round budget")
	ErrBadRules    = errors.New("invalid combat rules")
)

// Rules are the combat constants.
type Rules struct {
	MaxRounds         int
	MinDamage         int64
	CritMultiplierPct int64
}

// Draw holds the crit and dodge rolls for one action, in basis points.
// A crit lands when Crit < attacker.CritBps, a dodge when Dodge < defender.DodgeBps.
type Draw struct {
	Crit  int64
	Dodge int64
}

// NoDraws returns n draws that never crit and never dodge.
func NoDraws(n int) []Draw {
	draws := make([]Draw, n)
	for i := range draws {
		draws[i] = Draw{Crit: random.BpsScale, Dodge: random.BpsScale}
	}
	return draws
}

// DrawSequence takes n draws from st.
func DrawSequence(st *random.Stream, n int) []Draw {
	draws := make([]Draw, n)
	for i := range draws {
		draws[i] = Draw{Crit: st.Bps(), Dodge: st.Bps()}
	}
	return draws
}

// MaxCritMultiplierPct bounds the crit multiplier so that a clamped attack
// times the multiplier stays far from overflow.
const MaxCritMultiplierPct = 1000

// Standard is the ruleset of model.DuelStandard.
type Standard struct {
	rules Rules
}

// NewStandard creates the standard ruleset.
func NewStandard(rules Rules) (*Standard, error) {
	if rules.MaxRounds <= 0 || rules.MinDamage <= 0 || rules.CritMultiplierPct < 100 || rules.CritMultiplierPct > MaxCritMultiplierPct {
		return nil, ErrBadRules
	}
	return &Standard{rules: rules}, nil
}

// Kind implements game.Ruleset.
func (s *Standard) Kind() model.DuelKind { return model.DuelStandard }

// Name implements game.Ruleset.
func (s *Standard) Name() string { return "Standard duel" }

// DrawCount returns the fixed length of the draw sequence.
func (s *Standard) DrawCount() int { return 2 * s.rules.MaxRounds }

// Resolve implements game.Ruleset.
func (s *Standard) Resolve(fighters [2]game.Fighter, st *random.Stream) (*game.Outcome, error) {
	return s.Simulate(fighters, DrawSequence(st.Sub("combat"), s.DrawCount()))
}

// FirstActor returns the index of the fighter that acts first.
func FirstActor(fighters [2]game.Fighter) int {
	s0, s1 := fighters[0].Stats.Stats.Speed, fighters[1].Stats.Stats.Speed
	switch {
	case s0 > s1:
		return 0
	case s1 > s0:
		return 1
	case fighters[0].CharacterID < fighters[1].CharacterID:
		return 0
	default:
		return 1
	}
}

// Simulate runs the round loop over a fixed draw sequence.
func (s *Standard) Simulate(fighters [2]game.Fighter, draws []Draw) (*game.Outcome, error) {
	if fighters[0].CharacterID == fighters[1].CharacterID {
		return nil, ErrSameFighter
	}
	if len(draws) < s.DrawCount() {
		return nil, ErrShortDraws
	}

	first := FirstActor(fighters)
	order := [2]int{first, 1 - first}
	start := [2]int64{fighters[0].Stats.Stats.Health, fighters[1].Stats.Stats.Health}
	hp := start

	out := &game.Outcome{
		FirstActorID: fighters[first].CharacterID,
		Trajectory:   make([]game.Exchange, 0, s.DrawCount()),
	}
	for i := range fighters {
		out.EffectUsed[i] = fighters[i].Stats.Effect.Active()
	}

	next := 0
	for out.Rounds < s.rules.MaxRounds && hp[0] > 0 && hp[1] > 0 {
		out.Rounds++
		for _, atk := range order {
			def := 1 - atk
			if hp[atk] == 0 || hp[def] == 0 {
				break
			}
			ex := s.strike(fighters, atk, def, draws[next], &hp)
			next++
			ex.Round = out.Rounds
			out.Trajectory = append(out.Trajectory, ex)
		}
		if hp[0] == 0 || hp[1] == 0 {
			break
		}
		for _, i := range order {
			if healed := regen(fighters[i].Stats.Effect, hp[i], start[i]); healed > 0 {
				hp[i] += healed
				out.Trajectory = append(out.Trajectory, game.Exchange{
					Round:    out.Rounds,
					Attacker: fighters[i].CharacterID,
					Defender: fighters[i].CharacterID,
					Healed:   healed,
					Health:   hp,
				})
			}
		}
	}

	winner := decide(fighters, start, hp)
	out.WinnerID = fighters[winner].CharacterID
	out.LoserID = fighters[1-winner].CharacterID
	out.Knockout = hp[1-winner] == 0
	out.FinalHealth = hp
	out.Digest = Digest(out.Trajectory, out.WinnerID)
	return out, nil
}

func (s *Standard) strike(fighters [2]game.Fighter, atk, def int, draw Draw, hp *[2]int64) game.Exchange {
	a, d := fighters[atk].Stats, fighters[def].Stats

	dmg := a.Stats.Attack - d.Stats.Defense
	if dmg < s.rules.MinDamage {
		dmg = s.rules.MinDamage
	}
	if a.Effect.Active() && a.Effect.Kind == model.EffectBurn {
		dmg += a.Effect.Power
	}

	crit := draw.Crit < a.CritBps
	if crit {
		dmg = dmg * s.rules.CritMultiplierPct / 100
	}

	if d.Effect.Active() && d.Effect.Kind == model.EffectWard {
		dmg -= d.Effect.Power
		if dmg < s.rules.MinDamage {
			dmg = s.rules.MinDamage
		}
	}

	dodged := draw.Dodge < d.DodgeBps
	if dodged {
		dmg = 0
	}
	if dmg > hp[def] {
		dmg = hp[def]
	}
	hp[def] -= dmg

	return game.Exchange{
		Attacker: fighters[atk].CharacterID,
		Defender: fighters[def].CharacterID,
		Damage:   dmg,
		Crit:     crit,
		Dodged:   dodged,
		Health:   *hp,
	}
}

func regen(e *model.SpecialEffect, hp, start int64) int64 {
	if !e.Active() || e.Kind != model.EffectRegen || hp == 0 || hp >= start {
		return 0
	}
	if missing := start - hp; e.Power > missing {
		return missing
	}
	return e.Power
}

// decide returns the winning index. A fighter still standing beats a knocked
// out one; otherwise the higher remaining health fraction wins and an exact
// tie goes to the lower character id.
func decide(fighters [2]game.Fighter, start, hp [2]int64) int {
	switch {
	case hp[0] == 0 && hp[1] > 0:
		return 1
	case hp[1] == 0 && hp[0] > 0:
		return 0
	}

	// hp[0]/start[0] vs hp[1]/start[1] without division.
	left, right := hp[0]*start[1], hp[1]*start[0]
	switch {
	case left > right:
		return 0
	case right > left:
		return 1
	case fighters[0].CharacterID < fighters[1].CharacterID:
		return 0
	default:
		return 1
	}
}

// Digest hashes a health trajectory and its winner.
func Digest(trajectory []game.Exchange, winnerID int64) uint64 {
	h := xxhash.New()
	var b [8]byte
	put := func(v int64) {
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		_, _ = h.Write(b[:])
	}
	for _, ex := range trajectory {
		put(int64(ex.Round))
		put(ex.Attacker)
		put(ex.Defender)
		put(ex.Damage)
		put(ex.Healed)
		put(boolBit(ex.Crit)<<1 | boolBit(ex.Dodged))
		put(ex.Health[0])
		put(ex.Health[1])
	}
	put(winnerID)
	return h.Sum64()
}

func boolBit(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
