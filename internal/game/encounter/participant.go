package encounter

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
)

// Kind classifies a participant. Players drop unconscious at 0 hit points
// and roll death saving throws; monsters and npcs die outright.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlayer
	KindMonster
	KindNPC
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMonster:
		return "monster"
	case KindNPC:
		return "npc"
	default:
		return "unknown"
	}
}

// ParseKind maps a lowercase name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "player":
		return KindPlayer, nil
	case "monster":
		return KindMonster, nil
	case "npc":
		return KindNPC, nil
	default:
		return KindUnknown, fmt.Errorf("%w: participant kind %q", ErrInvalid, name)
	}
}

// Economy tracks the per-turn action budget. AdvanceTurn resets the
// incoming actor's economy before their turn begins.
type Economy struct {
	ActionUsed   bool
	BonusUsed    bool
	ReactionUsed bool
	// MovementUsed is the feet of movement already spent this turn.
	MovementUsed int
}

func (e *Economy) reset() {
	*e = Economy{}
}

// DeathSaves tracks the death saving throw tally of a player at 0 hit
// points. Three successes stabilize, three failures kill.
type DeathSaves struct {
	Successes int
	Failures  int
	Stable    bool
}

func (d *DeathSaves) reset() {
	*d = DeathSaves{}
}

// Participant is a combatant in an encounter. Position is in coarse
// squares; Speed is in feet per turn.
type Participant struct {
	ID       string
	Name     string
	Kind     Kind
	Position geometry.Position

	HP    int
	MaxHP int
	AC    int
	Speed int

	// InitiativeMod is added to the initiative roll. Initiative is the
	// rolled total once the encounter starts.
	InitiativeMod int
	Initiative    int

	// AttackBonus and DamageExpr are the defaults used when an attack
	// action does not carry its own.
	AttackBonus int
	DamageExpr  string
	// SaveMod is the flat modifier applied to saving throws against auras.
	SaveMod int

	Economy    Economy
	DeathSaves DeathSaves
	Conditions *condition.Set
	Dead       bool

	// submitted preserves submission order for the initiative tie-break.
	submitted int
}

// Alive reports whether the participant still takes turns. A player at
// 0 hit points is unconscious but alive until their third failed save.
func (p *Participant) Alive() bool {
	return !p.Dead
}

// AtZero reports whether the participant is at 0 hit points.
func (p *Participant) AtZero() bool {
	return p.HP <= 0
}

// validate checks the fields a caller supplies at encounter creation.
func (p *Participant) validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: participant id is required", ErrInvalid)
	}
	if p.MaxHP <= 0 {
		return fmt.Errorf("%w: participant %s max hp must be positive", ErrInvalid, p.ID)
	}
	if p.HP <= 0 || p.HP > p.MaxHP {
		return fmt.Errorf("%w: participant %s hp must be in 1..%d", ErrInvalid, p.ID, p.MaxHP)
	}
	if p.AC <= 0 {
		return fmt.Errorf("%w: participant %s ac must be positive", ErrInvalid, p.ID)
	}
	if p.Speed < 0 {
		return fmt.Errorf("%w: participant %s speed must not be negative", ErrInvalid, p.ID)
	}
	if p.Kind != KindPlayer && p.Kind != KindMonster && p.Kind != KindNPC {
		return fmt.Errorf("%w: participant %s kind is required", ErrInvalid, p.ID)
	}
	return nil
}

// applyDamage reduces hit points, flooring at zero, and returns the
// amount actually lost.
func (p *Participant) applyDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	lost := amount
	if lost > p.HP {
		lost = p.HP
	}
	p.HP -= lost
	return lost
}

// heal restores hit points up to the maximum and returns the amount
// actually gained. The dead cannot be healed.
func (p *Participant) heal(amount int) int {
	if amount <= 0 || p.Dead {
		return 0
	}
	gained := amount
	if p.HP+gained > p.MaxHP {
		gained = p.MaxHP - p.HP
	}
	p.HP += gained
	return gained
}
