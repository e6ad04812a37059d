package encounter

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
)

// ActionType discriminates the action union. ExecuteAction switches on it
// exhaustively; an unknown type is an ErrInvalid, never a silent no-op.
type ActionType int

const (
	ActionUnknown ActionType = iota
	ActionAttack
	ActionMove
	ActionDash
	ActionDodge
	ActionDisengage
)

func (t ActionType) String() string {
	switch t {
	case ActionAttack:
		return "attack"
	case ActionMove:
		return "move"
	case ActionDash:
		return "dash"
	case ActionDodge:
		return "dodge"
	case ActionDisengage:
		return "disengage"
	default:
		return "unknown"
	}
}

// Action is a request against the current actor's turn. Only the fields
// relevant to the Type are read.
type Action struct {
	Type ActionType

	// Attack fields. AttackBonus and DamageExpr override the actor's
	// defaults when set; Mode requests advantage or disadvantage before
	// condition effects are folded in.
	TargetID    string
	AttackBonus *int
	DamageExpr  string
	Mode        dice.RollMode
	// Reaction marks an opportunity attack: it bypasses the turn-order
	// check and spends the actor's reaction instead of their action.
	Reaction bool

	// Move and Dash field.
	Destination geometry.Position
}

// AttackResult reports a resolved attack.
type AttackResult struct {
	AttackerID string
	TargetID   string

	Roll     dice.RollResult
	Natural  int
	TargetAC int
	Hit      bool
	Critical bool

	Damage   int
	TargetHP int
	// Dropped is set when the target reached 0 hit points on this attack.
	Dropped bool
	// Killed is set when the target died outright.
	Killed bool
	// ConcentrationBroken names the spell the target lost, if any.
	ConcentrationBroken string
}

// MoveResult reports a completed move or dash.
type MoveResult struct {
	ActorID string
	Path    []geometry.Position
	// CostFeet is the movement spent, already charged to the economy.
	CostFeet      int
	RemainingFeet int
	Dashed        bool
}

// ActionResult is the union of per-type outcomes returned by
// ExecuteAction. Exactly one of the pointers is set for attack and move;
// dodge and disengage carry only Type.
type ActionResult struct {
	Type   ActionType
	Attack *AttackResult
	Move   *MoveResult
}

func (a *Action) validate() error {
	switch a.Type {
	case ActionAttack:
		if a.TargetID == "" {
			return fmt.Errorf("%w: attack requires a target id", ErrInvalid)
		}
	case ActionMove, ActionDash:
		if a.Reaction {
			return fmt.Errorf("%w: %s cannot be a reaction", ErrInvalid, a.Type)
		}
	case ActionDodge, ActionDisengage:
		if a.Reaction {
			return fmt.Errorf("%w: %s cannot be a reaction", ErrInvalid, a.Type)
		}
	default:
		return fmt.Errorf("%w: action type %d", ErrInvalid, a.Type)
	}
	return nil
}
