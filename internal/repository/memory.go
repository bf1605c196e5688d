package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"duel-arena/internal/model"
)

// MemoryStore is an in-process Store. Write units hold the store lock for
// their whole duration and are rolled back from an undo log on error or panic.
type MemoryStore struct {
	mu sync.RWMutex

	characters map[int64]*model.Character
	equipment  map[model.EquipmentKind]map[int64]*model.Equipment
	duels      map[int64]*model.Duel
	battles    map[int64][]int64
	wallets    map[int64]int64
	txs        []*model.Transaction

	lastCharacter int64
	lastEquipment map[model.EquipmentKind]int64
	lastDuel      int64
	lastTx        int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		characters: make(map[int64]*model.Character),
		equipment: map[model.EquipmentKind]map[int64]*model.Equipment{
			model.KindWeapon:   make(map[int64]*model.Equipment),
			model.KindArtifact: make(map[int64]*model.Equipment),
		},
		duels:         make(map[int64]*model.Duel),
		battles:       make(map[int64][]int64),
		wallets:       make(map[int64]int64),
		lastEquipment: make(map[model.EquipmentKind]int64),
	}
}

// InTx runs fn under the store's write lock.
func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// View runs fn under the store's read lock. Writes through the view panic.
func (s *MemoryStore) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &memTx{s: s, readOnly: true})
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

type memTx struct {
	s        *MemoryStore
	readOnly bool
	undo     []func()
}

func (t *memTx) record(fn func()) {
	if t.readOnly {
		panic("repository: write in read-only view")
	}
	t.undo = append(t.undo, fn)
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) NextCharacterID(ctx context.Context) (int64, error) {
	return t.s.lastCharacter + 1, nil
}

func (t *memTx) CreateCharacter(ctx context.Context, c *model.Character) error {
	s := t.s
	prevLast := s.lastCharacter
	t.record(func() {
		delete(s.characters, c.ID)
		s.lastCharacter = prevLast
	})
	s.characters[c.ID] = cloneCharacter(c)
	if c.ID > s.lastCharacter {
		s.lastCharacter = c.ID
	}
	return nil
}

func (t *memTx) GetCharacter(ctx context.Context, id int64) (*model.Character, error) {
	c, ok := t.s.characters[id]
	if !ok {
		return nil, ErrCharacterNotFound
	}
	return cloneCharacter(c), nil
}

func (t *memTx) UpdateCharacter(ctx context.Context, c *model.Character) error {
	s := t.s
	prev, ok := s.characters[c.ID]
	if !ok {
		return ErrCharacterNotFound
	}
	t.record(func() { s.characters[c.ID] = prev })

	next := cloneCharacter(prev)
	next.Level = c.Level
	next.Experience = c.Experience
	next.Wins = c.Wins
	next.Losses = c.Losses
	next.KnockedOut = c.KnockedOut
	next.LastBattleAt = c.LastBattleAt
	next.EquippedWeaponID = cloneID(c.EquippedWeaponID)
	next.EquippedArtifactID = cloneID(c.EquippedArtifactID)
	s.characters[c.ID] = next
	return nil
}

func (t *memTx) ListCharactersByOwner(ctx context.Context, owner int64) ([]*model.Character, error) {
	var out []*model.Character
	for _, c := range t.s.characters {
		if c.Owner == owner {
			out = append(out, cloneCharacter(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CountCharacters(ctx context.Context) (int64, error) {
	return int64(len(t.s.characters)), nil
}

func (t *memTx) TopCharacters(ctx context.Context, limit int) ([]*model.Character, error) {
	out := make([]*model.Character, 0, len(t.s.characters))
	for _, c := range t.s.characters {
		out = append(out, cloneCharacter(c))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return a.ID < b.ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) NextEquipmentID(ctx context.Context, kind model.EquipmentKind) (int64, error) {
	if !kind.Valid() {
		return 0, ErrUnknownKind
	}
	return t.s.lastEquipment[kind] + 1, nil
}

func (t *memTx) CreateEquipment(ctx context.Context, e *model.Equipment) error {
	s := t.s
	table, ok := s.equipment[e.Kind]
	if !ok {
		return ErrUnknownKind
	}
	prevLast := s.lastEquipment[e.Kind]
	t.record(func() {
		delete(table, e.ID)
		s.lastEquipment[e.Kind] = prevLast
	})
	table[e.ID] = cloneEquipment(e)
	if e.ID > prevLast {
		s.lastEquipment[e.Kind] = e.ID
	}
	return nil
}

func (t *memTx) GetEquipment(ctx context.Context, kind model.EquipmentKind, id int64) (*model.Equipment, error) {
	table, ok := t.s.equipment[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	e, ok := table[id]
	if !ok {
		return nil, ErrEquipmentNotFound
	}
	return cloneEquipment(e), nil
}

func (t *memTx) UpdateEquipment(ctx context.Context, e *model.Equipment) error {
	table, ok := t.s.equipment[e.Kind]
	if !ok {
		return ErrUnknownKind
	}
	prev, ok := table[e.ID]
	if !ok {
		return ErrEquipmentNotFound
	}
	t.record(func() { table[e.ID] = prev })

	next := cloneEquipment(prev)
	next.EquippedTo = cloneID(e.EquippedTo)
	if next.Effect != nil && e.Effect != nil {
		next.Effect.Charges = e.Effect.Charges
	}
	table[e.ID] = next
	return nil
}

func (t *memTx) ListEquipmentByOwner(ctx context.Context, kind model.EquipmentKind, owner int64) ([]*model.Equipment, error) {
	table, ok := t.s.equipment[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	var out []*model.Equipment
	for _, e := range table {
		if e.Owner == owner {
			out = append(out, cloneEquipment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) NextDuelID(ctx context.Context) (int64, error) {
	return t.s.lastDuel + 1, nil
}

func (t *memTx) CreateDuel(ctx context.Context, d *model.Duel) error {
	s := t.s
	prevLast := s.lastDuel
	t.record(func() {
		delete(s.duels, d.ID)
		s.lastDuel = prevLast
	})
	s.duels[d.ID] = cloneDuel(d)
	if d.ID > prevLast {
		s.lastDuel = d.ID
	}
	return nil
}

func (t *memTx) UpdateDuel(ctx context.Context, d *model.Duel) error {
	s := t.s
	prev, ok := s.duels[d.ID]
	if !ok || prev.State == model.DuelResolved {
		return ErrDuelNotFound
	}
	t.record(func() { s.duels[d.ID] = prev })

	next := cloneDuel(d)
	next.Kind = prev.Kind
	next.CharacterIDs = prev.CharacterIDs
	next.Players = prev.Players
	next.CreatedAt = prev.CreatedAt
	next.Seed = prev.Seed
	s.duels[d.ID] = next
	return nil
}

func (t *memTx) GetDuel(ctx context.Context, id int64) (*model.Duel, error) {
	d, ok := t.s.duels[id]
	if !ok {
		return nil, ErrDuelNotFound
	}
	return cloneDuel(d), nil
}

func (t *memTx) AppendPlayerBattle(ctx context.Context, playerID, duelID int64) error {
	s := t.s
	prev := s.battles[playerID]
	t.record(func() {
		if prev == nil {
			delete(s.battles, playerID)
			return
		}
		s.battles[playerID] = prev
	})
	next := make([]int64, len(prev), len(prev)+1)
	copy(next, prev)
	s.battles[playerID] = append(next, duelID)
	return nil
}

func (t *memTx) ListPlayerBattles(ctx context.Context, playerID int64) ([]int64, error) {
	ids := t.s.battles[playerID]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

func (t *memTx) EnsureWallet(ctx context.Context, accountID, initial int64) (bool, error) {
	s := t.s
	if _, ok := s.wallets[accountID]; ok {
		return false, nil
	}
	t.record(func() { delete(s.wallets, accountID) })
	s.wallets[accountID] = initial
	return true, nil
}

func (t *memTx) Balance(ctx context.Context, accountID int64) (int64, error) {
	balance, ok := t.s.wallets[accountID]
	if !ok {
		if IsSystemAccount(accountID) {
			return 0, nil
		}
		return 0, ErrWalletNotFound
	}
	return balance, nil
}

func (t *memTx) AdjustBalance(ctx context.Context, accountID, delta int64) (int64, error) {
	s := t.s
	prev, ok := s.wallets[accountID]
	if !ok && !IsSystemAccount(accountID) {
		return 0, ErrWalletNotFound
	}
	if (delta > 0 && prev > math.MaxInt64-delta) || (delta < 0 && prev < math.MinInt64-delta) {
		return 0, ErrBalanceOverflow
	}
	t.record(func() {
		if !ok {
			delete(s.wallets, accountID)
			return
		}
		s.wallets[accountID] = prev
	})
	s.wallets[accountID] = prev + delta
	return prev + delta, nil
}

func (t *memTx) RecordTransaction(ctx context.Context, tx *model.Transaction) error {
	s := t.s
	n := len(s.txs)
	prevLast := s.lastTx
	t.record(func() {
		s.txs = s.txs[:n]
		s.lastTx = prevLast
	})
	s.lastTx++
	tx.ID = s.lastTx
	tx.CreatedAt = time.Now()
	stored := *tx
	s.txs = append(s.txs, &stored)
	return nil
}

func (t *memTx) ListTransactions(ctx context.Context, accountID int64, limit int) ([]*model.Transaction, error) {
	var out []*model.Transaction
	for i := len(t.s.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if tx := t.s.txs[i]; tx.AccountID == accountID {
			c := *tx
			out = append(out, &c)
		}
	}
	return out, nil
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneEffect(e *model.SpecialEffect) *model.SpecialEffect {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func cloneCharacter(c *model.Character) *model.Character {
	out := *c
	out.EquippedWeaponID = cloneID(c.EquippedWeaponID)
	out.EquippedArtifactID = cloneID(c.EquippedArtifactID)
	return &out
}

func cloneEquipment(e *model.Equipment) *model.Equipment {
	out := *e
	out.Effect = cloneEffect(e.Effect)
	out.EquippedTo = cloneID(e.EquippedTo)
	return &out
}

func cloneDuel(d *model.Duel) *model.Duel {
	out := *d
	for i := range out.Fighters {
		out.Fighters[i].Effect = cloneEffect(d.Fighters[i].Effect)
		out.Fighters[i].ArtifactID = cloneID(d.Fighters[i].ArtifactID)
	}
	return &out
}
