package game

import (
	"fmt"
	"sync"

	"duel-arena/internal/model"
)

// Registry manages ruleset registration and lookup by duel kind.
type Registry struct {
	rules map[model.DuelKind]Ruleset
	mu    sync.RWMutex
}

// NewRegistry creates a new ruleset registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[model.DuelKind]Ruleset),
	}
}

// Register adds a ruleset to the registry.
// If a ruleset with the same kind already exists, it will be replaced.
func (r *Registry) Register(rs Ruleset) error {
	if rs == nil {
		return fmt.Errorf("cannot register nil ruleset")
	}
	if rs.Kind() == "" {
		return fmt.Errorf("ruleset kind cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rs.Kind()] = rs
	return nil
}

// Get retrieves a ruleset by duel kind.
func (r *Registry) Get(kind model.DuelKind) (Ruleset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rs, ok := r.rules[kind]
	return rs, ok
}

// Kinds returns all registered duel kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.rules))
	for k := range r.rules {
		kinds = append(kinds, string(k))
	}
	return kinds
}

// Count returns the number of registered rulesets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
