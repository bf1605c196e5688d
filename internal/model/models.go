// Package model defines the data models of the duel arena.
package model

import "time"

// Class is the fighting style of a character.
type Class int

const (
	ClassWarrior Class = iota
	ClassMage
	ClassRogue
	ClassGuardian
	ClassRanger
)

// ClassCount is the number of character classes.
const ClassCount = 5

var classNames = [ClassCount]string{"warrior", "mage", "rogue", "guardian", "ranger"}

func (c Class) String() string {
	if c < 0 || int(c) >= ClassCount {
		return "unknown"
	}
	return classNames[c]
}

// Rarity is an ordered tier; every tier is statistically stronger than the last.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
	RarityMythic
)

// RarityCount is the number of rarity tiers.
const RarityCount = 6

var rarityNames = [RarityCount]string{"common", "uncommon", "rare", "epic", "legendary", "mythic"}

func (r Rarity) String() string {
	if r < 0 || int(r) >= RarityCount {
		return "unknown"
	}
	return rarityNames[r]
}

// Stats holds the six combat attributes.
// Bonus vectors reuse the type with zero for attributes they do not touch.
type Stats struct {
	Health  int64 `json:"health"`
	Attack  int64 `json:"attack"`
	Defense int64 `json:"defense"`
	Speed   int64 `json:"speed"`
	Magic   int64 `json:"magic"`
	Luck    int64 `json:"luck"`
}

// Add returns the attribute-wise sum.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Health:  s.Health + o.Health,
		Attack:  s.Attack + o.Attack,
		Defense: s.Defense + o.Defense,
		Speed:   s.Speed + o.Speed,
		Magic:   s.Magic + o.Magic,
		Luck:    s.Luck + o.Luck,
	}
}

// Map applies fn to every attribute.
func (s Stats) Map(fn func(int64) int64) Stats {
	return Stats{
		Health:  fn(s.Health),
		Attack:  fn(s.Attack),
		Defense: fn(s.Defense),
		Speed:   fn(s.Speed),
		Magic:   fn(s.Magic),
		Luck:    fn(s.Luck),
	}
}

// Character is the persistent collectible combat unit.
// BaseStats, Class and Rarity never change after mint.
type Character struct {
	ID                 int64  `db:"id"`
	Owner              int64  `db:"owner_id"`
	Class              Class  `db:"class"`
	Rarity             Rarity `db:"rarity"`
	BaseStats          Stats  `db:"-"`
	Level              int    `db:"level"`
	Experience         int64  `db:"experience"`
	Wins               int64  `db:"wins"`
	Losses             int64  `db:"losses"`
	KnockedOut         bool   `db:"ko"`
	LastBattleAt       int64  `db:"last_battle_at"`
	EquippedWeaponID   *int64 `db:"weapon_id"`
	EquippedArtifactID *int64 `db:"artifact_id"`
	CreatedAt          int64  `db:"created_at"`
}

// EquipmentKind distinguishes the two equipment registries.
type EquipmentKind string

const (
	KindWeapon   EquipmentKind = "weapon"
	KindArtifact EquipmentKind = "artifact"
)

// Valid reports whether k names a known registry.
func (k EquipmentKind) Valid() bool {
	return k == KindWeapon || k == KindArtifact
}

// EffectKind is the special effect carried by an artifact.
type EffectKind string

const (
	EffectBurn  EffectKind = "burn"  // extra damage on every landed hit
	EffectWard  EffectKind = "ward"  // reduces every incoming hit
	EffectRegen EffectKind = "regen" // restores health after every round
)

// SpecialEffect describes an artifact's charged effect.
type SpecialEffect struct {
	Kind       EffectKind `json:"kind"`
	Power      int64      `json:"power"`
	Charges    int        `json:"charges"`
	MaxCharges int        `json:"max_charges"`
}

// Active reports whether the effect still has charges.
func (e *SpecialEffect) Active() bool {
	return e != nil && e.Charges > 0
}

// Equipment is a weapon or an artifact. Bonus values never change after forge.
// EquippedTo is a weak back-reference and never implies ownership of the character.
type Equipment struct {
	ID         int64          `db:"id"`
	Kind       EquipmentKind  `db:"-"`
	Owner      int64          `db:"owner_id"`
	Rarity     Rarity         `db:"rarity"`
	Bonus      Stats          `db:"-"`
	Effect     *SpecialEffect `db:"-"`
	EquippedTo *int64         `db:"equipped_to"`
	CreatedAt  int64          `db:"created_at"`
}

// EffectiveStats are base stats merged with equipped bonuses, clamped, plus
// the derived probabilities in basis points.
type EffectiveStats struct {
	Stats    Stats          `json:"stats"`
	CritBps  int64          `json:"crit_bps"`
	DodgeBps int64          `json:"dodge_bps"`
	Effect   *SpecialEffect `json:"effect,omitempty"`
	// ArtifactID is set when Effect comes from an equipped artifact.
	ArtifactID *int64 `json:"artifact_id,omitempty"`
}

// DuelKind tags the ruleset that resolves a duel.
type DuelKind string

// DuelStandard is the only duel kind.
const DuelStandard DuelKind = "standard"

// DuelState is the lifecycle state of a duel. Resolved is terminal.
type DuelState string

const (
	DuelCreated  DuelState = "created"
	DuelResolved DuelState = "resolved"
)

// SeedRecord is the recorded entropy a duel was resolved with.
type SeedRecord struct {
	Nonce   uint64 `json:"nonce"`
	Entropy int64  `json:"entropy"`
}

// Duel is a single-call, two-character combat.
// Index 0 is always the initiator, index 1 the targeted opponent.
type Duel struct {
	ID           int64             `db:"id"`
	Kind         DuelKind          `db:"kind"`
	CharacterIDs [2]int64          `db:"-"`
	Players      [2]int64          `db:"-"`
	State        DuelState         `db:"state"`
	WinnerID     int64             `db:"winner_id"`
	PrizePool    int64             `db:"prize_pool"`
	CreatedAt    int64             `db:"created_at"`
	Seed         SeedRecord        `db:"-"`
	Fighters     [2]EffectiveStats `db:"-"`
	Rounds       int               `db:"rounds"`
	FinalHealth  [2]int64          `db:"-"`
	Digest       uint64            `db:"digest"`
}

// BattleInfo is the summary projection of a duel.
type BattleInfo struct {
	ID           int64
	CharacterIDs [2]int64
	Players      [2]int64
	WinnerID     int64
	PrizePool    int64
	State        DuelState
}

// Info returns the summary projection.
func (d *Duel) Info() BattleInfo {
	return BattleInfo{
		ID:           d.ID,
		CharacterIDs: d.CharacterIDs,
		Players:      d.Players,
		WinnerID:     d.WinnerID,
		PrizePool:    d.PrizePool,
		State:        d.State,
	}
}

// System ledger accounts. Player accounts are the positive player ids.
const (
	TreasuryAccount int64 = -1 // mint, heal and forge income
	EscrowAccount   int64 = -2 // duel prize pools during resolution
)

// Transaction represents a balance change record.
type Transaction struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	Amount    int64     `db:"amount"`
	Type      string    `db:"type"`
	RefID     int64     `db:"ref_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeDeposit   = "deposit"    // admin or external funding
	TxTypeInitial   = "initial"    // starting balance on wallet creation
	TxTypeMint      = "mint"       // mint payment
	TxTypeHeal      = "heal"       // heal payment
	TxTypeForge     = "forge"      // forge payment
	TxTypeDuelFee   = "duel_fee"   // fee moved into the duel escrow
	TxTypeDuelPrize = "duel_prize" // prize pool paid out of escrow
)
