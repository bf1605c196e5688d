package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"duel-arena/internal/model"
)

const duelColumns = `id, kind, character_a, character_b, player_a, player_b, state, winner_id,
	prize_pool, created_at, seed_nonce, seed_entropy, fighters, rounds,
	final_health_a, final_health_b, digest`

// DuelRepository handles duel persistence and the per-player battle index.
type DuelRepository struct {
	db DBTX
}

// NewDuelRepository creates a new DuelRepository instance.
func NewDuelRepository(db DBTX) *DuelRepository {
	return &DuelRepository{db: db}
}

// NextDuelID returns the next sequential duel id.
func (r *DuelRepository) NextDuelID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM duels`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate duel id: %w", err)
	}
	return id, nil
}

// CreateDuel inserts a duel in its Created state.
func (r *DuelRepository) CreateDuel(ctx context.Context, d *model.Duel) error {
	const query = `
		INSERT INTO duels (` + duelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	fighters, err := json.Marshal(d.Fighters)
	if err != nil {
		return fmt.Errorf("failed to encode fighters: %w", err)
	}
	_, err = r.db.Exec(ctx, query,
		d.ID, string(d.Kind), d.CharacterIDs[0], d.CharacterIDs[1], d.Players[0], d.Players[1],
		string(d.State), d.WinnerID, d.PrizePool, d.CreatedAt,
		int64(d.Seed.Nonce), d.Seed.Entropy, fighters, d.Rounds,
		d.FinalHealth[0], d.FinalHealth[1], int64(d.Digest),
	)
	if err != nil {
		return fmt.Errorf("failed to create duel: %w", err)
	}
	return nil
}

// UpdateDuel writes the resolution of a duel. Resolved rows are never
// rewritten.
func (r *DuelRepository) UpdateDuel(ctx context.Context, d *model.Duel) error {
	const query = `
		UPDATE duels
		SET state = $2, winner_id = $3, prize_pool = $4, fighters = $5, rounds = $6,
		    final_health_a = $7, final_health_b = $8, digest = $9
		WHERE id = $1 AND state <> 'resolved'
	`
	fighters, err := json.Marshal(d.Fighters)
	if err != nil {
		return fmt.Errorf("failed to encode fighters: %w", err)
	}
	result, err := r.db.Exec(ctx, query,
		d.ID, string(d.State), d.WinnerID, d.PrizePool, fighters, d.Rounds,
		d.FinalHealth[0], d.FinalHealth[1], int64(d.Digest),
	)
	if err != nil {
		return fmt.Errorf("failed to update duel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDuelNotFound
	}
	return nil
}

// GetDuel retrieves a duel by id.
// Returns ErrDuelNotFound if the duel does not exist.
func (r *DuelRepository) GetDuel(ctx context.Context, id int64) (*model.Duel, error) {
	query := `SELECT ` + duelColumns + ` FROM duels WHERE id = $1`

	var (
		d               model.Duel
		kind, state     string
		nonce, digest   int64
		fightersEncoded []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&kind,
		&d.CharacterIDs[0],
		&d.CharacterIDs[1],
		&d.Players[0],
		&d.Players[1],
		&state,
		&d.WinnerID,
		&d.PrizePool,
		&d.CreatedAt,
		&nonce,
		&d.Seed.Entropy,
		&fightersEncoded,
		&d.Rounds,
		&d.FinalHealth[0],
		&d.FinalHealth[1],
		&digest,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDuelNotFound
		}
		return nil, fmt.Errorf("failed to get duel: %w", err)
	}

	d.Kind = model.DuelKind(kind)
	d.State = model.DuelState(state)
	d.Seed.Nonce = uint64(nonce)
	d.Digest = uint64(digest)
	if len(fightersEncoded) > 0 {
		if err := json.Unmarshal(fightersEncoded, &d.Fighters); err != nil {
			return nil, fmt.Errorf("failed to decode fighters: %w", err)
		}
	}
	return &d, nil
}

// AppendPlayerBattle appends a duel to a player's battle index.
func (r *DuelRepository) AppendPlayerBattle(ctx context.Context, playerID, duelID int64) error {
	const query = `INSERT INTO player_battles (player_id, duel_id) VALUES ($1, $2)`
	if _, err := r.db.Exec(ctx, query, playerID, duelID); err != nil {
		return fmt.Errorf("failed to index battle: %w", err)
	}
	return nil
}

// ListPlayerBattles returns a player's duel ids in the order they happened.
func (r *DuelRepository) ListPlayerBattles(ctx context.Context, playerID int64) ([]int64, error) {
	const query = `SELECT duel_id FROM player_battles WHERE player_id = $1 ORDER BY seq`

	rows, err := r.db.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player battles: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan battle id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating battles: %w", err)
	}

	return ids, nil
}
