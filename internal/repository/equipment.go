package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"duel-arena/internal/model"
)

const equipmentColumns = `id, owner_id, rarity, health, attack, defense, speed, magic, luck,
	effect_kind, effect_power, charges, max_charges, equipped_to, created_at`

// EquipmentRepository handles weapon and artifact persistence.
// The two registries share a shape and live in separate tables.
type EquipmentRepository struct {
	db DBTX
}

// NewEquipmentRepository creates a new EquipmentRepository instance.
func NewEquipmentRepository(db DBTX) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func equipmentTableFor(kind model.EquipmentKind) (string, error) {
	switch kind {
	case model.KindWeapon:
		return "weapons", nil
	case model.KindArtifact:
		return "artifacts", nil
	default:
		return "", ErrUnknownKind
	}
}

// NextEquipmentID returns the next sequential id of a registry.
func (r *EquipmentRepository) NextEquipmentID(ctx context.Context, kind model.EquipmentKind) (int64, error) {
	table, err := equipmentTableFor(kind)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM `+table).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", kind, err)
	}
	return id, nil
}

// CreateEquipment inserts a freshly forged piece of equipment.
func (r *EquipmentRepository) CreateEquipment(ctx context.Context, e *model.Equipment) error {
	table, err := equipmentTableFor(e.Kind)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + table + ` (` + equipmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	var (
		effectKind         *string
		power              int64
		charges, maxCharge int
	)
	if e.Effect != nil {
		k := string(e.Effect.Kind)
		effectKind, power, charges, maxCharge = &k, e.Effect.Power, e.Effect.Charges, e.Effect.MaxCharges
	}
	b := e.Bonus
	_, err = r.db.Exec(ctx, query,
		e.ID, e.Owner, int16(e.Rarity),
		b.Health, b.Attack, b.Defense, b.Speed, b.Magic, b.Luck,
		effectKind, power, charges, maxCharge, e.EquippedTo, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", e.Kind, err)
	}
	return nil
}

// GetEquipment retrieves a weapon or artifact by id.
// Returns ErrEquipmentNotFound if it does not exist.
func (r *EquipmentRepository) GetEquipment(ctx context.Context, kind model.EquipmentKind, id int64) (*model.Equipment, error) {
	table, err := equipmentTableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + equipmentColumns + ` FROM ` + table + ` WHERE id = $1`

	e, err := scanEquipment(r.db.QueryRow(ctx, query, id), kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return e, nil
}

// UpdateEquipment writes the equipped-to reference and remaining charges.
func (r *EquipmentRepository) UpdateEquipment(ctx context.Context, e *model.Equipment) error {
	table, err := equipmentTableFor(e.Kind)
	if err != nil {
		return err
	}
	charges := 0
	if e.Effect != nil {
		charges = e.Effect.Charges
	}
	query := `UPDATE ` + table + ` SET equipped_to = $2, charges = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, e.ID, e.EquippedTo, charges)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", e.Kind, err)
	}
	if result.RowsAffected() == 0 {
		return ErrEquipmentNotFound
	}
	return nil
}

// ListEquipmentByOwner retrieves every piece of one kind held by an owner.
func (r *EquipmentRepository) ListEquipmentByOwner(ctx context.Context, kind model.EquipmentKind, owner int64) ([]*model.Equipment, error) {
	table, err := equipmentTableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + equipmentColumns + ` FROM ` + table + ` WHERE owner_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s list: %w", kind, err)
	}
	defer rows.Close()

	var items []*model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind, err)
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func scanEquipment(row pgx.Row, kind model.EquipmentKind) (*model.Equipment, error) {
	var (
		e                  model.Equipment
		rarity             int16
		effectKind         *string
		power              int64
		charges, maxCharge int
	)
	err := row.Scan(
		&e.ID,
		&e.Owner,
		&rarity,
		&e.Bonus.Health,
		&e.Bonus.Attack,
		&e.Bonus.Defense,
		&e.Bonus.Speed,
		&e.Bonus.Magic,
		&e.Bonus.Luck,
		&effectKind,
		&power,
		&charges,
		&maxCharge,
		&e.EquippedTo,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Kind = kind
	e.Rarity = model.Rarity(rarity)
	if effectKind != nil {
		e.Effect = &model.SpecialEffect{
			Kind:       model.EffectKind(*effectKind),
			Power:      power,
			Charges:    charges,
			MaxCharges: maxCharge,
		}
	}
	return &e, nil
}
