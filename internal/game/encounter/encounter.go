// Package encounter implements the turn-based combat state machine: a
// keyed store of encounters, each holding participants in initiative
// order, a terrain and wall map backed by the pathfinding grid, timed
// auras, and a concentration tracker. All mutation flows through
// ExecuteAction, AdvanceTurn, RollDeathSave, and the aura and terrain
// management operations; every operation validates fully before touching
// state, so an error return guarantees the encounter is unchanged.
package encounter

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/concentration"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Status is the encounter lifecycle phase.
type Status int

const (
	StatusActive Status = iota
	StatusEnded
)

func (s Status) String() string {
	if s == StatusEnded {
		return "ended"
	}
	return "active"
}

// Outcome records how an ended encounter concluded.
type Outcome int

const (
	OutcomeUndecided Outcome = iota
	OutcomeVictory
	OutcomeDefeat
	OutcomeFled
	OutcomeNegotiated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVictory:
		return "victory"
	case OutcomeDefeat:
		return "defeat"
	case OutcomeFled:
		return "fled"
	case OutcomeNegotiated:
		return "negotiated"
	default:
		return "undecided"
	}
}

// ParseOutcome maps a lowercase name to an Outcome.
func ParseOutcome(name string) (Outcome, error) {
	switch name {
	case "victory":
		return OutcomeVictory, nil
	case "defeat":
		return OutcomeDefeat, nil
	case "fled":
		return OutcomeFled, nil
	case "negotiated":
		return OutcomeNegotiated, nil
	default:
		return OutcomeUndecided, fmt.Errorf("%w: outcome %q", ErrInvalid, name)
	}
}

// Hooks receives lifecycle events. A nil hook set disables eventing.
// Implementations must not call back into the encounter.
type Hooks interface {
	ConditionApplied(encounterID, participantID string, kind condition.Kind)
	ConditionExpired(encounterID, participantID string, kind condition.Kind)
	AuraTicked(encounterID, auraID string, affected []string)
}

// Params configures a new encounter.
type Params struct {
	ID           string
	Participants []*Participant
	// Width and Height size the battlefield in coarse squares.
	Width  int
	Height int
	// Walls raster thin wall segments onto the fine grid before the
	// pathfinding grid is derived.
	Walls []grid.WallSegment
	// Terrain seeds the terrain map.
	Terrain []TerrainCell
	// DistanceMode selects the ruler used for aura radii and the
	// geometry queries. Defaults to Euclidean.
	DistanceMode geometry.Mode
}

// Encounter is a single combat. It is not safe for concurrent use; the
// Engine serializes access per encounter.
type Encounter struct {
	ID     string
	Round  int
	Status Status
	Outcome Outcome

	// Order holds participant ids in initiative order, descending, with
	// earlier submission winning ties. turnIndex always addresses a
	// living entry while the encounter is active.
	Order     []string
	turnIndex int

	participants map[string]*Participant
	terrain      map[geometry.Position]TerrainKind
	raster       *grid.WallRaster
	grid         *grid.Grid
	walls        []grid.WallSegment
	width        int
	height       int
	mode         geometry.Mode

	auras   map[string]*Aura
	auraSeq int

	concentration *concentration.Tracker
	registry      *condition.Registry
	roller        *dice.Roller
	hooks         Hooks
	logger        *zap.Logger
}

// New assembles an encounter, rolls initiative for every participant,
// and sorts the turn order. Initiative is 1d20 + InitiativeMod; ties
// resolve by submission order. Postcondition: Round is 1 and the cursor
// addresses the first entry.
func New(params Params, roller *dice.Roller, registry *condition.Registry, hooks Hooks, logger *zap.Logger) (*Encounter, error) {
	if params.ID == "" {
		return nil, fmt.Errorf("%w: encounter id is required", ErrInvalid)
	}
	if len(params.Participants) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", ErrInvalid)
	}
	if params.Width <= 0 || params.Height <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions must be positive", ErrInvalid)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	raster := grid.NewWallRaster(params.Walls)
	g := grid.New(raster, grid.DefaultStep, params.Width, params.Height)

	e := &Encounter{
		ID:            params.ID,
		Round:         1,
		Status:        StatusActive,
		participants:  make(map[string]*Participant, len(params.Participants)),
		terrain:       make(map[geometry.Position]TerrainKind),
		raster:        raster,
		grid:          g,
		walls:         params.Walls,
		width:         params.Width,
		height:        params.Height,
		mode:          params.DistanceMode,
		auras:         make(map[string]*Aura),
		concentration: concentration.NewTracker(),
		registry:      registry,
		roller:        roller,
		hooks:         hooks,
		logger:        logger.With(zap.String("encounter", params.ID)),
	}
	for i, p := range params.Participants {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := e.participants[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate participant id %s", ErrInvalid, p.ID)
		}
		if !e.inBounds(p.Position) {
			return nil, fmt.Errorf("%w: participant %s position outside the grid", ErrInvalid, p.ID)
		}
		p.submitted = i
		if p.Conditions == nil {
			p.Conditions = condition.NewSet()
		}
		e.participants[p.ID] = p
	}
	for _, t := range params.Terrain {
		if !e.inBounds(t.Position) {
			return nil, fmt.Errorf("%w: terrain cell outside the grid", ErrInvalid)
		}
		e.terrain[flat(t.Position)] = t.Kind
	}

	ordered := make([]*Participant, len(params.Participants))
	copy(ordered, params.Participants)
	for _, p := range ordered {
		roll := dice.RollD20(p.InitiativeMod, dice.Normal, e.roller.Source())
		p.Initiative = roll.Total()
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Initiative != ordered[j].Initiative {
			return ordered[i].Initiative > ordered[j].Initiative
		}
		return ordered[i].submitted < ordered[j].submitted
	})
	e.Order = make([]string, len(ordered))
	for i, p := range ordered {
		e.Order[i] = p.ID
	}

	e.logger.Info("encounter created",
		zap.Int("participants", len(e.Order)),
		zap.Int("width", params.Width),
		zap.Int("height", params.Height),
		zap.String("first", e.Order[0]))
	return e, nil
}

// CurrentActor returns the participant whose turn it is.
func (e *Encounter) CurrentActor() *Participant {
	return e.participants[e.Order[e.turnIndex]]
}

// Participant returns a combatant by id.
func (e *Encounter) Participant(id string) (*Participant, error) {
	p, ok := e.participants[id]
	if !ok {
		return nil, fmt.Errorf("%w: participant %s", ErrNotFound, id)
	}
	return p, nil
}

// Participants returns all combatants in initiative order.
func (e *Encounter) Participants() []*Participant {
	out := make([]*Participant, 0, len(e.Order))
	for _, id := range e.Order {
		out = append(out, e.participants[id])
	}
	return out
}

// Concentration exposes the encounter's concentration tracker.
func (e *Encounter) Concentration() *concentration.Tracker {
	return e.concentration
}

func (e *Encounter) ensureActive() error {
	if e.Status == StatusEnded {
		return fmt.Errorf("%w: encounter %s", ErrEnded, e.ID)
	}
	return nil
}

func (e *Encounter) inBounds(pos geometry.Position) bool {
	return pos.X >= 0 && pos.X < e.width && pos.Y >= 0 && pos.Y < e.height
}

// TurnReminder describes the state the incoming actor must attend to,
// such as an outstanding death saving throw.
type TurnReminder struct {
	ParticipantID string
	DeathSave     bool
}

// TurnResult reports the outcome of AdvanceTurn.
type TurnResult struct {
	Round             int
	ActorID           string
	ExpiredConditions map[string][]condition.Kind
	Reminder          *TurnReminder
}

// AdvanceTurn ends the current actor's turn: it resets their action
// economy, ticks their conditions and concentration, and moves the
// cursor to the next living participant, incrementing Round on
// wrap-around. Conditions decrement once per owner's turn-end, so a
// one-round condition applied to a participant during another's turn
// restricts them for their entire next turn.
// Precondition: the encounter is active and at least one participant is
// alive.
func (e *Encounter) AdvanceTurn() (*TurnResult, error) {
	if err := e.ensureActive(); err != nil {
		return nil, err
	}
	living := 0
	for _, p := range e.participants {
		if p.Alive() {
			living++
		}
	}
	if living == 0 {
		return nil, fmt.Errorf("%w: no living participants remain", ErrIllegalState)
	}

	result := &TurnResult{ExpiredConditions: make(map[string][]condition.Kind)}

	outgoing := e.CurrentActor()
	outgoing.Economy.reset()
	expired := outgoing.Conditions.Tick()
	if len(expired) > 0 {
		result.ExpiredConditions[outgoing.ID] = expired
		for _, kind := range expired {
			e.emitConditionExpired(outgoing.ID, kind)
		}
	}
	e.concentration.Tick(outgoing.ID)

	for {
		e.turnIndex++
		if e.turnIndex >= len(e.Order) {
			e.turnIndex = 0
			e.Round++
		}
		if e.participants[e.Order[e.turnIndex]].Alive() {
			break
		}
	}

	// Reactions refresh when the owner's turn comes back around.
	incoming := e.CurrentActor()
	incoming.Economy.reset()
	result.Round = e.Round
	result.ActorID = incoming.ID
	if incoming.Kind == KindPlayer && incoming.AtZero() && !incoming.DeathSaves.Stable {
		result.Reminder = &TurnReminder{ParticipantID: incoming.ID, DeathSave: true}
	}

	e.logger.Debug("turn advanced",
		zap.Int("round", e.Round),
		zap.String("actor", incoming.ID))
	return result, nil
}

// End closes the encounter with the given outcome. Ending twice is an
// error; the first outcome stands.
func (e *Encounter) End(outcome Outcome) error {
	if err := e.ensureActive(); err != nil {
		return err
	}
	if outcome == OutcomeUndecided {
		return fmt.Errorf("%w: an ended encounter needs a decided outcome", ErrInvalid)
	}
	e.Status = StatusEnded
	e.Outcome = outcome
	e.logger.Info("encounter ended", zap.Stringer("outcome", outcome))
	return nil
}

func (e *Encounter) emitConditionApplied(participantID string, kind condition.Kind) {
	if e.hooks != nil {
		e.hooks.ConditionApplied(e.ID, participantID, kind)
	}
}

func (e *Encounter) emitConditionExpired(participantID string, kind condition.Kind) {
	if e.hooks != nil {
		e.hooks.ConditionExpired(e.ID, participantID, kind)
	}
}
