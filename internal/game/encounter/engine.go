package encounter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Engine is the keyed store of active encounters. The store itself is
// safe for concurrent use; individual encounters are not, so callers
// must serialize operations against the same encounter id.
type Engine struct {
	mu         sync.RWMutex
	encounters map[string]*Encounter

	roller   *dice.Roller
	registry *condition.Registry
	hooks    Hooks
	logger   *zap.Logger
}

// NewEngine builds an engine. A nil roller defaults to crypto-backed
// randomness; a nil registry defaults to the builtin condition rules.
func NewEngine(roller *dice.Roller, registry *condition.Registry, hooks Hooks, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if roller == nil {
		roller = dice.NewLoggedRoller(dice.NewCryptoSource(), logger)
	}
	if registry == nil {
		registry = condition.DefaultRegistry()
	}
	return &Engine{
		encounters: make(map[string]*Encounter),
		roller:     roller,
		registry:   registry,
		hooks:      hooks,
		logger:     logger,
	}
}

// Roller exposes the engine's dice roller for host-driven rolls.
func (g *Engine) Roller() *dice.Roller { return g.roller }

// CreateEncounter assembles and stores a new encounter. A blank
// params.ID gets a generated uuid; a duplicate id is rejected.
func (g *Engine) CreateEncounter(params Params) (*Encounter, error) {
	if params.ID == "" {
		params.ID = uuid.NewString()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, dup := g.encounters[params.ID]; dup {
		return nil, fmt.Errorf("%w: encounter id %s already exists", ErrInvalid, params.ID)
	}
	e, err := New(params, g.roller, g.registry, g.hooks, g.logger)
	if err != nil {
		return nil, err
	}
	g.encounters[params.ID] = e
	return e, nil
}

// Encounter returns a stored encounter by id.
func (g *Engine) Encounter(id string) (*Encounter, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.encounters[id]
	if !ok {
		return nil, fmt.Errorf("%w: encounter %s", ErrNotFound, id)
	}
	return e, nil
}

// EndEncounter closes an encounter with the given outcome, keeping it
// in the store for snapshots.
func (g *Engine) EndEncounter(id string, outcome Outcome) error {
	e, err := g.Encounter(id)
	if err != nil {
		return err
	}
	return e.End(outcome)
}

// RemoveEncounter drops an encounter from the store. Only ended
// encounters may be removed.
func (g *Engine) RemoveEncounter(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.encounters[id]
	if !ok {
		return fmt.Errorf("%w: encounter %s", ErrNotFound, id)
	}
	if e.Status != StatusEnded {
		return fmt.Errorf("%w: encounter %s is still active", ErrIllegalState, id)
	}
	delete(g.encounters, id)
	g.logger.Info("encounter removed", zap.String("encounter", id))
	return nil
}

// List returns the stored encounter ids in sorted order.
func (g *Engine) List() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.encounters))
	for id := range g.encounters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
