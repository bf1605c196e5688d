package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"duel-arena/internal/auth"
	"duel-arena/internal/fighter"
	"duel-arena/internal/game"
	"duel-arena/internal/model"
	"duel-arena/internal/random"
	"duel-arena/internal/repository"
)

// DuelService is the duel engine. A duel is created, resolved and settled in
// a single unit of work; nothing in between is ever visible.
type DuelService struct {
	store      repository.Store
	characters *CharacterService
	agg        *fighter.Aggregator
	source     *random.Source
	rulesets   *game.Registry
	authority  string
	duelFee    int64
	now        func() time.Time
}

// NewDuelService creates a new DuelService instance. authority is the key
// granted to this engine through CharacterService.GrantDuelAuthority.
func NewDuelService(
	store repository.Store,
	characters *CharacterService,
	agg *fighter.Aggregator,
	source *random.Source,
	rulesets *game.Registry,
	authority string,
	duelFee int64,
) *DuelService {
	return &DuelService{
		store:      store,
		characters: characters,
		agg:        agg,
		source:     source,
		rulesets:   rulesets,
		authority:  authority,
		duelFee:    duelFee,
		now:        time.Now,
	}
}

// SetClock replaces the clock used for duel timestamps.
func (s *DuelService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateDuel pits the caller's character against an opponent character,
// resolves the fight and pays the prize pool to the winner's owner.
// The initiator alone funds the pool with the attached fee.
func (s *DuelService) CreateDuel(ctx context.Context, caller auth.Caller, myID, opponentID, fee int64) (*model.Duel, error) {
	if !caller.IsVerified() {
		return nil, ErrUnauthenticated
	}
	if myID == opponentID {
		log.Debug().Int64("player_id", caller.PlayerID).Int64("character_id", myID).Msg("Duel rejected: self duel")
		return nil, ErrSelfDuel
	}
	ruleset, ok := s.rulesets.Get(model.DuelStandard)
	if !ok {
		return nil, ErrUnknownDuelKind
	}

	var duel *model.Duel
	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		me, err := tx.GetCharacter(ctx, myID)
		if err != nil {
			return err
		}
		if !caller.Controls(me.Owner) {
			return ErrNotOwner
		}
		opponent, err := tx.GetCharacter(ctx, opponentID)
		if err != nil {
			return err
		}
		if me.KnockedOut || opponent.KnockedOut {
			return ErrKnockedOut
		}
		if fee < s.duelFee {
			return ErrInsufficientPayment
		}

		id, err := tx.NextDuelID(ctx)
		if err != nil {
			return err
		}
		if err := collect(ctx, tx, caller.PlayerID, model.EscrowAccount, fee, model.TxTypeDuelFee, id); err != nil {
			return err
		}

		seed := s.source.Next(random.DomainDuel, id, caller.PlayerID, myID, opponentID)
		now := s.now().Unix()
		duel = &model.Duel{
			ID:           id,
			Kind:         ruleset.Kind(),
			CharacterIDs: [2]int64{myID, opponentID},
			Players:      [2]int64{me.Owner, opponent.Owner},
			State:        model.DuelCreated,
			PrizePool:    fee,
			CreatedAt:    now,
			Seed:         seed.Record(),
		}
		if err := tx.CreateDuel(ctx, duel); err != nil {
			return err
		}

		return s.resolve(ctx, tx, ruleset, duel, seed, now)
	})
	if err != nil {
		log.Debug().Err(err).Int64("player_id", caller.PlayerID).Int64("character_id", myID).Int64("opponent_id", opponentID).Msg("Duel rejected")
		return nil, translate(err, "create duel")
	}

	log.Info().
		Int64("duel_id", duel.ID).
		Int64("winner_id", duel.WinnerID).
		Int64("prize_pool", duel.PrizePool).
		Int("rounds", duel.Rounds).
		Uint64("nonce", duel.Seed.Nonce).
		Msg("Duel resolved")
	return duel, nil
}

// resolve runs the ruleset and applies the outcome to every table.
func (s *DuelService) resolve(ctx context.Context, tx repository.Tx, ruleset game.Ruleset, duel *model.Duel, seed random.Seed, now int64) error {
	var fighters [2]game.Fighter
	for i, id := range duel.CharacterIDs {
		eff, err := s.agg.Compute(ctx, tx, id)
		if err != nil {
			return err
		}
		if !withinCeiling(eff.Stats, s.agg.Limits().Ceiling) {
			return ErrStatOverflow
		}
		fighters[i] = game.Fighter{CharacterID: id, Stats: eff}
	}

	out, err := ruleset.Resolve(fighters, s.source.Stream(seed))
	if err != nil {
		return err
	}
	if !validOutcome(out, duel.CharacterIDs) {
		return ErrInvalidOutcome
	}

	if err := s.characters.RecordDuelOutcome(ctx, tx, s.authority, out.WinnerID, true, now); err != nil {
		return err
	}
	if err := s.characters.RecordDuelOutcome(ctx, tx, s.authority, out.LoserID, false, now); err != nil {
		return err
	}

	for i, used := range out.EffectUsed {
		if used {
			if err := consumeCharge(ctx, tx, fighters[i].Stats.ArtifactID); err != nil {
				return err
			}
		}
	}

	winner := 0
	if out.WinnerID == duel.CharacterIDs[1] {
		winner = 1
	}
	payee := duel.Players[winner]
	if _, err := ensureWallet(ctx, tx, payee, 0); err != nil {
		return err
	}
	if err := move(ctx, tx, model.EscrowAccount, payee, duel.PrizePool, model.TxTypeDuelPrize, duel.ID); err != nil {
		return err
	}

	duel.State = model.DuelResolved
	duel.WinnerID = out.WinnerID
	duel.Fighters = [2]model.EffectiveStats{fighters[0].Stats, fighters[1].Stats}
	duel.Rounds = out.Rounds
	duel.FinalHealth = out.FinalHealth
	duel.Digest = out.Digest
	if err := tx.UpdateDuel(ctx, duel); err != nil {
		return err
	}

	if err := tx.AppendPlayerBattle(ctx, duel.Players[0], duel.ID); err != nil {
		return err
	}
	if duel.Players[1] != duel.Players[0] {
		return tx.AppendPlayerBattle(ctx, duel.Players[1], duel.ID)
	}
	return nil
}

// GetBattle returns the full duel record.
func (s *DuelService) GetBattle(ctx context.Context, id int64) (*model.Duel, error) {
	var duel *model.Duel
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		duel, err = tx.GetDuel(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "get duel")
	}
	return duel, nil
}

// GetBattleInfo returns the summary of a duel.
func (s *DuelService) GetBattleInfo(ctx context.Context, id int64) (model.BattleInfo, error) {
	duel, err := s.GetBattle(ctx, id)
	if err != nil {
		return model.BattleInfo{}, err
	}
	return duel.Info(), nil
}

// GetPlayerBattles returns every duel a player took part in, oldest first.
func (s *DuelService) GetPlayerBattles(ctx context.Context, playerID int64) ([]int64, error) {
	var ids []int64
	err := s.store.View(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		ids, err = tx.ListPlayerBattles(ctx, playerID)
		return err
	})
	if err != nil {
		return nil, translate(err, "get player battles")
	}
	return ids, nil
}

// Replay recomputes a resolved duel from its recorded seed and fighter
// snapshots. It returns the recomputed outcome, or ErrReplayMismatch if it
// differs from what was recorded.
func (s *DuelService) Replay(ctx context.Context, id int64) (*game.Outcome, error) {
	duel, err := s.GetBattle(ctx, id)
	if err != nil {
		return nil, err
	}
	if duel.State != model.DuelResolved {
		return nil, ErrDuelNotFound
	}
	ruleset, ok := s.rulesets.Get(duel.Kind)
	if !ok {
		return nil, ErrUnknownDuelKind
	}

	seed := random.Replay(random.DomainDuel, duel.ID, duel.Players[0], duel.Seed, duel.CharacterIDs[0], duel.CharacterIDs[1])
	fighters := [2]game.Fighter{
		{CharacterID: duel.CharacterIDs[0], Stats: duel.Fighters[0]},
		{CharacterID: duel.CharacterIDs[1], Stats: duel.Fighters[1]},
	}
	out, err := ruleset.Resolve(fighters, s.source.Stream(seed))
	if err != nil {
		return nil, translate(err, "replay duel")
	}

	if out.WinnerID != duel.WinnerID ||
		out.Rounds != duel.Rounds ||
		out.FinalHealth != duel.FinalHealth ||
		out.Digest != duel.Digest {
		log.Error().
			Int64("duel_id", duel.ID).
			Uint64("recorded_digest", duel.Digest).
			Uint64("replayed_digest", out.Digest).
			Msg("Replay mismatch")
		return out, ErrReplayMismatch
	}
	return out, nil
}

func validOutcome(out *game.Outcome, ids [2]int64) bool {
	if out == nil || out.WinnerID == out.LoserID {
		return false
	}
	return (out.WinnerID == ids[0] && out.LoserID == ids[1]) ||
		(out.WinnerID == ids[1] && out.LoserID == ids[0])
}

func withinCeiling(st model.Stats, ceiling int64) bool {
	ok := true
	st.Map(func(v int64) int64 {
		if v < 0 || v > ceiling {
			ok = false
		}
		return v
	})
	return ok
}

// consumeCharge spends one charge of the artifact whose effect fought.
func consumeCharge(ctx context.Context, tx repository.Tx, artifactID *int64) error {
	if artifactID == nil {
		return nil
	}
	art, err := tx.GetEquipment(ctx, model.KindArtifact, *artifactID)
	if err != nil {
		return err
	}
	if !art.Effect.Active() {
		return nil
	}
	art.Effect.Charges--
	return tx.UpdateEquipment(ctx, art)
}
