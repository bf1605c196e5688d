// Package game defines the duel ruleset interface and the registry that maps
// a duel kind to the ruleset resolving it.
package game

import (
	"duel-arena/internal/model"
	"duel-arena/internal/random"
)

// Fighter is one side of a duel as seen by a ruleset.
type Fighter struct {
	CharacterID int64
	Stats       model.EffectiveStats
}

// Exchange is one action inside a duel. Exchanges live only in memory while a
// duel resolves; only their digest is persisted.
type Exchange struct {
	Round    int
	Attacker int64
	Defender int64
	Damage   int64
	Crit     bool
	Dodged   bool
	Healed   int64
	// Health is the remaining health of both fighters after the exchange,
	// in the order the fighters were given to Resolve.
	Health [2]int64
}

// Outcome is the result of resolving a duel. A draw is not representable:
// WinnerID and LoserID are always the two distinct participants.
type Outcome struct {
	WinnerID     int64
	LoserID      int64
	FirstActorID int64
	Rounds       int
	Knockout     bool // false when decided on remaining health fraction
	FinalHealth  [2]int64
	EffectUsed   [2]bool
	Trajectory   []Exchange
	Digest       uint64
}

// Ruleset resolves a duel of one kind.
type Ruleset interface {
	// Kind returns the duel kind this ruleset resolves.
	Kind() model.DuelKind

	// Name returns a human-readable name.
	Name() string

	// Resolve computes the outcome of a duel between the two fighters from
	// the given stream. It must be a pure function of its inputs.
	Resolve(fighters [2]Fighter, st *random.Stream) (*Outcome, error)
}
