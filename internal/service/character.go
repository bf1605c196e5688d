package service

import (
	"context"
	"crypto/subtle"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"

	"duel-arena/internal/auth"
	"duel-arena/internal/fighter"
	"duel-arena/internal/game/synth"
	"duel-arena/internal/model"
	"duel-arena/internal/random"
	"duel-arena/internal/repository"
)

// Experience awarded per duel. Every full levelXP raises the level by one.
const (
	winXP   = 10
	lossXP  = 3
	levelXP = 100
)

// CharacterService is the character registry.
type CharacterService struct {
	store     repository.Store
	source    *random.Source
	agg       *fighter.Aggregator
	mintPrice int64
	healPrice int64
	now       func() time.Time

	granted   *atomic.Bool
	authority *atomic.String
}

// NewCharacterService creates a new CharacterService instance.
func NewCharacterService(
	store repository.Store,
	source *random.Source,
	agg *fighter.Aggregator,
	mintPrice, healPrice int64,
) *CharacterService {
	return &CharacterService{
		store:     store,
		source:    source,
		agg:       agg,
		mintPrice: mintPrice,
		healPrice: healPrice,
		now:       time.Now,
		granted:   atomic.NewBool(false),
		authority: atomic.NewString(""),
	}
}

// SetClock replaces the clock used for timestamps.
func (s *CharacterService) SetClock(now func() time.Time) {
	s.now = now
}

// Mint pays for and creates a new character with synthesized stats.
func (s *CharacterService) Mint(ctx context.Context, caller auth.Caller, payment int64) (*model.Character, error) {
	if !caller.IsVerified() {
		return nil, ErrUnauthenticated
	}
	if payment < s.mintPrice {
		log.Debug().Int64("player_id", caller.PlayerID).Int64("payment", payment).Msg("Mint rejected: payment too low")
		return nil, ErrInsufficientPayment
	}

	var c *model.Character
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		id, err := tx.NextCharacterID(ctx)
		if err != nil {
			return err
		}
		if err := collect(ctx, tx, caller.PlayerID, model.TreasuryAccount, payment, model.TxTypeMint, id); err != nil {
			return err
		}

		seed := s.source.Next(random.DomainMint, id, caller.PlayerID)
		res := synth.Synthesize(s.source.Stream(seed))

		c = &model.Character{
			ID:        id,
			Owner:     caller.PlayerID,
			Class:     res.Class,
			Rarity:    res.Rarity,
			BaseStats: res.Stats,
			Level:     1,
			CreatedAt: s.now().Unix(),
		}
		return tx.CreateCharacter(ctx, c)
	})
	if err != nil {
		return nil, translate(err, "mint character")
	}

	log.Info().
		Int64("character_id", c.ID).
		Int64("owner", c.Owner).
		Str("class", c.Class.String()).
		Str("rarity", c.Rarity.String()).
		Msg("Character minted")
	return c, nil
}

// Heal clears the KO flag of a character the caller controls.
// The three precondition failures are checked in order: ownership, payment,
// KO state.
func (s *CharacterService) Heal(ctx context.Context, caller auth.Caller, characterID, payment int64) error {
	if !caller.IsVerified() {
		return ErrUnauthenticated
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.GetCharacter(ctx, characterID)
		if err != nil {
			return err
		}
		if !caller.Controls(c.Owner) {
			return ErrNotOwner
		}
		if payment < s.healPrice {
			return ErrInsufficientPayment
		}
		if !c.KnockedOut {
			return ErrNotKnockedOut
		}
		if err := collect(ctx, tx, caller.PlayerID, model.TreasuryAccount, payment, model.TxTypeHeal, c.ID); err != nil {
			return err
		}
		c.KnockedOut = false
		return tx.UpdateCharacter(ctx, c)
	})
	if err != nil {
		log.Debug().Err(err).Int64("character_id", characterID).Msg("Heal rejected")
		return translate(err, "heal character")
	}

	log.Info().Int64("character_id", characterID).Int64("player_id", caller.PlayerID).Msg("Character healed")
	return nil
}

// GetStats returns the stored character record.
func (s *CharacterService) GetStats(ctx context.Context, characterID int64) (*model.Character, error) {
	var c *model.Character
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		c, err = tx.GetCharacter(ctx, characterID)
		return err
	})
	if err != nil {
		return nil, translate(err, "get character")
	}
	return c, nil
}

// ListByOwner returns every character of an owner in id order.
func (s *CharacterService) ListByOwner(ctx context.Context, owner int64) ([]*model.Character, error) {
	var list []*model.Character
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		list, err = tx.ListCharactersByOwner(ctx, owner)
		return err
	})
	if err != nil {
		return nil, translate(err, "list characters")
	}
	return list, nil
}

// Count returns the number of characters ever minted.
func (s *CharacterService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		n, err = tx.CountCharacters(ctx)
		return err
	})
	if err != nil {
		return 0, translate(err, "count characters")
	}
	return n, nil
}

// EffectiveStats computes the current effective stats of a character.
func (s *CharacterService) EffectiveStats(ctx context.Context, characterID int64) (model.EffectiveStats, error) {
	var eff model.EffectiveStats
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		eff, err = s.agg.Compute(ctx, tx, characterID)
		return err
	})
	if err != nil {
		return model.EffectiveStats{}, translate(err, "compute effective stats")
	}
	return eff, nil
}

// GrantDuelAuthority installs the key the duel engine presents to
// RecordDuelOutcome. It can be granted exactly once.
func (s *CharacterService) GrantDuelAuthority(key string) error {
	if key == "" {
		return ErrUnauthorizedAuthority
	}
	if !s.granted.CAS(false, true) {
		return ErrAuthorityAlreadyGranted
	}
	s.authority.Store(key)
	return nil
}

// RecordDuelOutcome applies one side of a duel result inside the caller's
// unit of work. Only the holder of the granted authority may call it.
func (s *CharacterService) RecordDuelOutcome(ctx context.Context, tx repository.Tx, key string, characterID int64, won bool, at int64) error {
	want := s.authority.Load()
	if want == "" || subtle.ConstantTimeCompare([]byte(key), []byte(want)) != 1 {
		return ErrUnauthorizedAuthority
	}

	c, err := tx.GetCharacter(ctx, characterID)
	if err != nil {
		return err
	}
	if c.Wins == math.MaxInt64 || c.Losses == math.MaxInt64 || c.Experience > math.MaxInt64-winXP {
		return ErrStatOverflow
	}
	if won {
		c.Wins++
		c.Experience += winXP
	} else {
		c.Losses++
		c.Experience += lossXP
		c.KnockedOut = true
	}
	c.Level = 1 + int(c.Experience/levelXP)
	c.LastBattleAt = at
	return tx.UpdateCharacter(ctx, c)
}
