package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"duel-arena/internal/auth"
	"duel-arena/internal/game/forge"
	"duel-arena/internal/model"
	"duel-arena/internal/random"
	"duel-arena/internal/repository"
)

// EquipmentService manages the weapon and artifact registries.
type EquipmentService struct {
	store      repository.Store
	source     *random.Source
	forgePrice int64
	now        func() time.Time
}

// NewEquipmentService creates a new EquipmentService instance.
func NewEquipmentService(store repository.Store, source *random.Source, forgePrice int64) *EquipmentService {
	return &EquipmentService{
		store:      store,
		source:     source,
		forgePrice: forgePrice,
		now:        time.Now,
	}
}

// Forge pays for and creates a new piece of equipment owned by the caller.
func (s *EquipmentService) Forge(ctx context.Context, caller auth.Caller, kind model.EquipmentKind, payment int64) (*model.Equipment, error) {
	if !caller.IsVerified() {
		return nil, ErrUnauthenticated
	}
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	if payment < s.forgePrice {
		return nil, ErrInsufficientPayment
	}

	var eq *model.Equipment
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		id, err := tx.NextEquipmentID(ctx, kind)
		if err != nil {
			return err
		}
		if err := collect(ctx, tx, caller.PlayerID, model.TreasuryAccount, payment, model.TxTypeForge, id); err != nil {
			return err
		}

		// Weapons and artifacts share ids, so the kind goes into the seed.
		seed := s.source.Next(random.DomainForge, id, caller.PlayerID, kindTag(kind))
		res, err := forge.Forge(kind, s.source.Stream(seed))
		if err != nil {
			return err
		}

		eq = &model.Equipment{
			ID:        id,
			Kind:      kind,
			Owner:     caller.PlayerID,
			Rarity:    res.Rarity,
			Bonus:     res.Bonus,
			Effect:    res.Effect,
			CreatedAt: s.now().Unix(),
		}
		return tx.CreateEquipment(ctx, eq)
	})
	if err != nil {
		return nil, translate(err, "forge equipment")
	}

	log.Info().
		Str("kind", string(kind)).
		Int64("equipment_id", eq.ID).
		Int64("owner", eq.Owner).
		Str("rarity", eq.Rarity.String()).
		Msg("Equipment forged")
	return eq, nil
}

// Equip puts a piece of equipment into a character's slot. The caller must
// own both. The piece is detached from any previous holder and whatever
// occupied the slot is unequipped, all in one unit of work.
func (s *EquipmentService) Equip(ctx context.Context, caller auth.Caller, characterID int64, kind model.EquipmentKind, equipmentID int64) error {
	if !caller.IsVerified() {
		return ErrUnauthenticated
	}
	if !kind.Valid() {
		return ErrUnknownKind
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.GetCharacter(ctx, characterID)
		if err != nil {
			return err
		}
		if !caller.Controls(c.Owner) {
			return ErrNotOwner
		}
		eq, err := tx.GetEquipment(ctx, kind, equipmentID)
		if err != nil {
			return err
		}
		if !caller.Controls(eq.Owner) {
			return ErrNotOwner
		}

		if cur := slotOf(c, kind); *cur != nil && **cur == eq.ID {
			return nil
		}

		if eq.EquippedTo != nil && *eq.EquippedTo != c.ID {
			if err := detachHolder(ctx, tx, *eq.EquippedTo, kind, eq.ID); err != nil {
				return err
			}
		}
		if cur := *slotOf(c, kind); cur != nil {
			if err := releaseEquipment(ctx, tx, kind, *cur, c.ID); err != nil {
				return err
			}
		}

		id, holder := eq.ID, c.ID
		*slotOf(c, kind) = &id
		eq.EquippedTo = &holder
		if err := tx.UpdateEquipment(ctx, eq); err != nil {
			return err
		}
		return tx.UpdateCharacter(ctx, c)
	})
	if err != nil {
		return translate(err, "equip")
	}

	log.Info().
		Int64("character_id", characterID).
		Str("kind", string(kind)).
		Int64("equipment_id", equipmentID).
		Msg("Equipment equipped")
	return nil
}

// Unequip empties a character's slot. An empty slot is not an error.
func (s *EquipmentService) Unequip(ctx context.Context, caller auth.Caller, characterID int64, kind model.EquipmentKind) error {
	if !caller.IsVerified() {
		return ErrUnauthenticated
	}
	if !kind.Valid() {
		return ErrUnknownKind
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		c, err := tx.GetCharacter(ctx, characterID)
		if err != nil {
			return err
		}
		if !caller.Controls(c.Owner) {
			return ErrNotOwner
		}
		slot := slotOf(c, kind)
		if *slot == nil {
			return nil
		}
		if err := releaseEquipment(ctx, tx, kind, **slot, c.ID); err != nil {
			return err
		}
		*slot = nil
		return tx.UpdateCharacter(ctx, c)
	})
	if err != nil {
		return translate(err, "unequip")
	}
	return nil
}

// GetBonus returns the bonus vector of a piece of equipment and, for
// artifacts, its special effect.
func (s *EquipmentService) GetBonus(ctx context.Context, kind model.EquipmentKind, id int64) (model.Stats, *model.SpecialEffect, error) {
	eq, err := s.Get(ctx, kind, id)
	if err != nil {
		return model.Stats{}, nil, err
	}
	return eq.Bonus, eq.Effect, nil
}

// Get returns a piece of equipment.
func (s *EquipmentService) Get(ctx context.Context, kind model.EquipmentKind, id int64) (*model.Equipment, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	var eq *model.Equipment
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		eq, err = tx.GetEquipment(ctx, kind, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "get equipment")
	}
	return eq, nil
}

// ListByOwner returns an owner's equipment of one kind in id order.
func (s *EquipmentService) ListByOwner(ctx context.Context, kind model.EquipmentKind, owner int64) ([]*model.Equipment, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	var list []*model.Equipment
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		list, err = tx.ListEquipmentByOwner(ctx, kind, owner)
		return err
	})
	if err != nil {
		return nil, translate(err, "list equipment")
	}
	return list, nil
}

func slotOf(c *model.Character, kind model.EquipmentKind) **int64 {
	if kind == model.KindWeapon {
		return &c.EquippedWeaponID
	}
	return &c.EquippedArtifactID
}

func kindTag(kind model.EquipmentKind) int64 {
	if kind == model.KindWeapon {
		return 1
	}
	return 2
}

// detachHolder clears the slot of the character currently holding
// equipmentID, if it still points at it.
func detachHolder(ctx context.Context, tx repository.Tx, holderID int64, kind model.EquipmentKind, equipmentID int64) error {
	holder, err := tx.GetCharacter(ctx, holderID)
	if err != nil {
		return err
	}
	slot := slotOf(holder, kind)
	if *slot == nil || **slot != equipmentID {
		return nil
	}
	*slot = nil
	return tx.UpdateCharacter(ctx, holder)
}

// releaseEquipment clears the back-reference of equipmentID if it points at
// characterID.
func releaseEquipment(ctx context.Context, tx repository.Tx, kind model.EquipmentKind, equipmentID, characterID int64) error {
	eq, err := tx.GetEquipment(ctx, kind, equipmentID)
	if err != nil {
		return err
	}
	if eq.EquippedTo == nil || *eq.EquippedTo != characterID {
		return nil
	}
	eq.EquippedTo = nil
	return tx.UpdateEquipment(ctx, eq)
}
