package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"duel-arena/internal/model"
)

const characterColumns = `id, owner_id, class, rarity, health, attack, defense, speed, magic, luck,
	level, experience, wins, losses, ko, last_battle_at, weapon_id, artifact_id, created_at`

// CharacterRepository handles character persistence.
type CharacterRepository struct {
	db DBTX
}

// NewCharacterRepository creates a new CharacterRepository instance.
func NewCharacterRepository(db DBTX) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// NextCharacterID returns the next sequential character id.
// Callers must hold the ledger lock (see PostgresStore.InTx).
func (r *CharacterRepository) NextCharacterID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM characters`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate character id: %w", err)
	}
	return id, nil
}

// CreateCharacter inserts a freshly minted character.
func (r *CharacterRepository) CreateCharacter(ctx context.Context, c *model.Character) error {
	const query = `
		INSERT INTO characters (` + characterColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	s := c.BaseStats
	_, err := r.db.Exec(ctx, query,
		c.ID, c.Owner, int16(c.Class), int16(c.Rarity),
		s.Health, s.Attack, s.Defense, s.Speed, s.Magic, s.Luck,
		c.Level, c.Experience, c.Wins, c.Losses, c.KnockedOut, c.LastBattleAt,
		c.EquippedWeaponID, c.EquippedArtifactID, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

// GetCharacter retrieves a character by id.
// Returns ErrCharacterNotFound if the character does not exist.
func (r *CharacterRepository) GetCharacter(ctx context.Context, id int64) (*model.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE id = $1`

	c, err := scanCharacter(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return c, nil
}

// UpdateCharacter writes the mutable fields of a character.
func (r *CharacterRepository) UpdateCharacter(ctx context.Context, c *model.Character) error {
	const query = `
		UPDATE characters
		SET wins = $2, losses = $3, ko = $4, last_battle_at = $5,
		    weapon_id = $6, artifact_id = $7, level = $8, experience = $9
		WHERE id = $1
	`
	result, err := r.db.Exec(ctx, query,
		c.ID, c.Wins, c.Losses, c.KnockedOut, c.LastBattleAt,
		c.EquippedWeaponID, c.EquippedArtifactID, c.Level, c.Experience,
	)
	if err != nil {
		return fmt.Errorf("failed to update character: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// ListCharactersByOwner retrieves every character of an owner, oldest first.
func (r *CharacterRepository) ListCharactersByOwner(ctx context.Context, owner int64) ([]*model.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE owner_id = $1 ORDER BY id`
	return r.queryCharacters(ctx, query, owner)
}

// CountCharacters returns the number of minted characters.
func (r *CharacterRepository) CountCharacters(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM characters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count characters: %w", err)
	}
	return n, nil
}

// TopCharacters retrieves the characters with the most wins.
func (r *CharacterRepository) TopCharacters(ctx context.Context, limit int) ([]*model.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters ORDER BY wins DESC, losses ASC, id ASC LIMIT $1`
	return r.queryCharacters(ctx, query, limit)
}

func (r *CharacterRepository) queryCharacters(ctx context.Context, query string, args ...any) ([]*model.Character, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get characters: %w", err)
	}
	defer rows.Close()

	var characters []*model.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating characters: %w", err)
	}

	return characters, nil
}

func scanCharacter(row pgx.Row) (*model.Character, error) {
	var (
		c             model.Character
		class, rarity int16
	)
	err := row.Scan(
		&c.ID,
		&c.Owner,
		&class,
		&rarity,
		&c.BaseStats.Health,
		&c.BaseStats.Attack,
		&c.BaseStats.Defense,
		&c.BaseStats.Speed,
		&c.BaseStats.Magic,
		&c.BaseStats.Luck,
		&c.Level,
		&c.Experience,
		&c.Wins,
		&c.Losses,
		&c.KnockedOut,
		&c.LastBattleAt,
		&c.EquippedWeaponID,
		&c.EquippedArtifactID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Class = model.Class(class)
	c.Rarity = model.Rarity(rarity)
	return &c, nil
}
