package encounter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// ExecuteAction resolves a single action for actorID. Non-reaction
// actions must come from the current actor with the matching economy
// slot free. All validation happens before any dice are rolled or state
// is touched.
func (e *Encounter) ExecuteAction(actorID string, action Action) (*ActionResult, error) {
	if err := e.ensureActive(); err != nil {
		return nil, err
	}
	if err := action.validate(); err != nil {
		return nil, err
	}
	actor, err := e.Participant(actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Alive() {
		return nil, fmt.Errorf("%w: %s is dead", ErrIllegalState, actorID)
	}
	if actor.AtZero() {
		return nil, fmt.Errorf("%w: %s is unconscious", ErrIllegalState, actorID)
	}
	if action.Reaction {
		if actor.Economy.ReactionUsed {
			return nil, fmt.Errorf("%w: %s has no reaction left", ErrIllegalState, actorID)
		}
	} else if e.Order[e.turnIndex] != actorID {
		return nil, fmt.Errorf("%w: it is not %s's turn", ErrIllegalState, actorID)
	}
	if condition.IsActionRestricted(actor.Conditions, e.registry, action.Type.String()) {
		return nil, fmt.Errorf("%w: a condition prevents %s from acting", ErrIllegalState, actorID)
	}

	switch action.Type {
	case ActionAttack:
		res, err := e.resolveAttack(actor, action)
		if err != nil {
			return nil, err
		}
		return &ActionResult{Type: ActionAttack, Attack: res}, nil
	case ActionMove, ActionDash:
		res, err := e.resolveMove(actor, action)
		if err != nil {
			return nil, err
		}
		return &ActionResult{Type: action.Type, Move: res}, nil
	case ActionDodge:
		return e.resolveStance(actor, ActionDodge, condition.Dodging)
	case ActionDisengage:
		return e.resolveStance(actor, ActionDisengage, condition.Disengaging)
	default:
		return nil, fmt.Errorf("%w: action type %d", ErrInvalid, action.Type)
	}
}

// resolveAttack rolls the attack and applies damage. Natural 20 always
// hits and doubles the damage dice; natural 1 always misses. Cover adds
// to the target's AC; total cover refuses the attack outright.
func (e *Encounter) resolveAttack(actor *Participant, action Action) (*AttackResult, error) {
	if action.TargetID == actor.ID {
		return nil, fmt.Errorf("%w: %s cannot target itself", ErrInvalid, actor.ID)
	}
	target, err := e.Participant(action.TargetID)
	if err != nil {
		return nil, err
	}
	if !target.Alive() {
		return nil, fmt.Errorf("%w: target %s is dead", ErrIllegalState, target.ID)
	}
	if !action.Reaction && actor.Economy.ActionUsed {
		return nil, fmt.Errorf("%w: %s has already used their action", ErrIllegalState, actor.ID)
	}

	damageExpr := action.DamageExpr
	if damageExpr == "" {
		damageExpr = actor.DamageExpr
	}
	if damageExpr == "" {
		return nil, fmt.Errorf("%w: %s has no damage expression", ErrInvalid, actor.ID)
	}
	expr, err := dice.Parse(damageExpr)
	if err != nil {
		return nil, fmt.Errorf("%w: damage expression: %v", ErrInvalid, err)
	}

	cover := e.coverBetween(actor.Position, target.Position)
	if !cover.Targetable() {
		return nil, fmt.Errorf("%w: %s has total cover from %s", ErrIllegalState, target.ID, actor.ID)
	}

	mode := action.Mode
	adv, dis := condition.AttackRollBias(actor.Conditions, target.Conditions, e.registry)
	adv = adv || mode == dice.Advantage
	dis = dis || mode == dice.Disadvantage
	switch {
	case adv == dis:
		mode = dice.Normal
	case adv:
		mode = dice.Advantage
	default:
		mode = dice.Disadvantage
	}

	bonus := actor.AttackBonus
	if action.AttackBonus != nil {
		bonus = *action.AttackBonus
	}
	bonus += condition.AttackMod(actor.Conditions, e.registry)

	roll := dice.RollD20(bonus, mode, e.roller.Source())
	natural := roll.Kept[0]
	targetAC := target.AC + condition.ACMod(target.Conditions, e.registry) + cover.ACBonus()

	result := &AttackResult{
		AttackerID: actor.ID,
		TargetID:   target.ID,
		Roll:       roll,
		Natural:    natural,
		TargetAC:   targetAC,
	}

	switch {
	case natural == 20:
		result.Hit = true
		result.Critical = true
	case natural == 1:
		result.Hit = false
	default:
		result.Hit = roll.Total() >= targetAC
	}

	if result.Hit {
		dmgExpr := expr
		if result.Critical {
			dmgExpr.Count *= 2
		}
		dmg, err := dice.Roll(dmgExpr, e.roller.Source())
		if err != nil {
			return nil, fmt.Errorf("%w: damage roll: %v", ErrInvalid, err)
		}
		wasAtZero := target.AtZero()
		lost := target.applyDamage(dmg.Total())
		result.Damage = dmg.Total()
		result.Dropped, result.Killed = e.dropOrKill(target, dmg.Total(), wasAtZero, result.Critical)

		if lost > 0 && !target.Dead {
			check := e.concentration.Check(target.ID, lost, target.SaveMod, dice.Normal, e.roller.Source())
			if check.Concentrating && !check.Held {
				result.ConcentrationBroken = check.Spell
			}
		}
		if target.Dead {
			if broken, held := e.concentration.Break(target.ID); held {
				result.ConcentrationBroken = broken.Spell
			}
		}
	}
	result.TargetHP = target.HP

	if action.Reaction {
		actor.Economy.ReactionUsed = true
	} else {
		actor.Economy.ActionUsed = true
	}

	e.logger.Debug("attack resolved",
		zap.String("attacker", actor.ID),
		zap.String("target", target.ID),
		zap.Bool("hit", result.Hit),
		zap.Bool("critical", result.Critical),
		zap.Int("damage", result.Damage),
		zap.Int("target_hp", target.HP))
	return result, nil
}

// dropOrKill handles a target reaching 0 hit points. Monsters and npcs
// die outright. Players fall unconscious and begin death saves; damage
// taken while already at 0 counts as a failed save, two on a critical
// hit.
// A zero-damage application never accrues a failure.
func (e *Encounter) dropOrKill(target *Participant, amount int, wasAtZero, critical bool) (dropped, killed bool) {
	if amount <= 0 || !target.AtZero() {
		return false, false
	}
	if target.Kind != KindPlayer {
		target.Dead = true
		return false, true
	}
	if !wasAtZero {
		target.DeathSaves.reset()
		if err := target.Conditions.Apply(condition.Unconscious, condition.Indefinite, "dropped to 0 hp"); err == nil {
			e.emitConditionApplied(target.ID, condition.Unconscious)
		}
		return true, false
	}
	failures := 1
	if critical {
		failures = 2
	}
	target.DeathSaves.Failures += failures
	target.DeathSaves.Stable = false
	if target.DeathSaves.Failures >= 3 {
		target.Dead = true
		return false, true
	}
	return false, false
}

// resolveMove pathfinds to the destination and charges the movement
// economy. An unreachable destination fails without spending anything;
// allowance is never partially consumed on failure. Dash doubles the
// turn's allowance and spends the action slot.
func (e *Encounter) resolveMove(actor *Participant, action Action) (*MoveResult, error) {
	dest := action.Destination
	if !e.inBounds(dest) {
		return nil, fmt.Errorf("%w: destination outside the grid", ErrInvalid)
	}
	if kind, ok := e.terrain[flat(dest)]; ok && kind == TerrainObstacle {
		return nil, fmt.Errorf("%w: destination is blocked by an obstacle", ErrIllegalState)
	}
	for _, other := range e.participants {
		if other.ID != actor.ID && other.Alive() && sameSquare(other.Position, dest) {
			return nil, fmt.Errorf("%w: destination is occupied by %s", ErrIllegalState, other.ID)
		}
	}
	dashed := action.Type == ActionDash
	if dashed && actor.Economy.ActionUsed {
		return nil, fmt.Errorf("%w: %s has already used their action", ErrIllegalState, actor.ID)
	}

	allowance := e.movementAllowance(actor, dashed)
	remaining := allowance - actor.Economy.MovementUsed
	if remaining <= 0 {
		return nil, fmt.Errorf("%w: %s has no movement left", ErrIllegalState, actor.ID)
	}

	start := grid.CellOf(actor.Position)
	goal := grid.CellOf(dest)
	if start == goal {
		return nil, fmt.Errorf("%w: already at the destination", ErrInvalid)
	}

	path := e.grid.FindPath(start, []grid.Cell{goal}, grid.PathOptions{
		Occupied: e.occupiedCells(actor.ID),
		MaxCost:  remaining / geometry.FeetPerSquare,
	})
	if !path.Complete || len(path.Path) == 0 {
		return nil, fmt.Errorf("%w: destination unreachable within movement allowance", ErrIllegalState)
	}

	costFeet := path.Cost * geometry.FeetPerSquare
	costFeet += e.difficultSurcharge(path.Path)
	if costFeet > remaining {
		return nil, fmt.Errorf("%w: destination unreachable within movement allowance", ErrIllegalState)
	}

	actor.Economy.MovementUsed += costFeet
	if dashed {
		actor.Economy.ActionUsed = true
	}
	actor.Position = geometry.Position{X: dest.X, Y: dest.Y, Z: actor.Position.Z}

	steps := make([]geometry.Position, len(path.Path))
	for i, c := range path.Path {
		steps[i] = geometry.Position{X: c.X, Y: c.Y, Z: actor.Position.Z}
	}
	e.logger.Debug("move resolved",
		zap.String("actor", actor.ID),
		zap.Int("cost_feet", costFeet),
		zap.Bool("dash", dashed))
	return &MoveResult{
		ActorID:       actor.ID,
		Path:          steps,
		CostFeet:      costFeet,
		RemainingFeet: remaining - costFeet,
		Dashed:        dashed,
	}, nil
}

// resolveStance applies the condition backing dodge and disengage and
// spends the action slot. Duration 2 so the stance survives the tick at
// the actor's own turn-end and covers every intervening enemy turn,
// lapsing at their next turn-end.
func (e *Encounter) resolveStance(actor *Participant, t ActionType, kind condition.Kind) (*ActionResult, error) {
	if actor.Economy.ActionUsed {
		return nil, fmt.Errorf("%w: %s has already used their action", ErrIllegalState, actor.ID)
	}
	if err := actor.Conditions.Apply(kind, 2, t.String()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	actor.Economy.ActionUsed = true
	e.emitConditionApplied(actor.ID, kind)
	return &ActionResult{Type: t}, nil
}

// movementAllowance is the turn's total movement in feet: speed scaled
// by condition effects, doubled by dash.
func (e *Encounter) movementAllowance(p *Participant, dashed bool) int {
	allowance := int(float64(p.Speed) * condition.SpeedMultiplier(p.Conditions, e.registry))
	if dashed {
		allowance *= 2
	}
	return allowance
}

// occupiedCells collects the coarse cells of living participants other
// than the mover, plus obstacle terrain.
func (e *Encounter) occupiedCells(exclude string) map[grid.Cell]bool {
	occ := make(map[grid.Cell]bool)
	for _, p := range e.participants {
		if p.ID != exclude && p.Alive() {
			occ[grid.CellOf(p.Position)] = true
		}
	}
	for pos, kind := range e.terrain {
		if kind == TerrainObstacle {
			occ[grid.CellOf(pos)] = true
		}
	}
	return occ
}

// difficultSurcharge charges one extra square of cost for each difficult
// or water cell entered along the path, excluding the start.
func (e *Encounter) difficultSurcharge(path []grid.Cell) int {
	extra := 0
	for _, c := range path[1:] {
		kind, ok := e.terrain[geometry.Position{X: c.X, Y: c.Y}]
		if ok && (kind == TerrainDifficult || kind == TerrainWater) {
			extra += geometry.FeetPerSquare
		}
	}
	return extra
}

// coverBetween measures cover from attacker square to target square on
// the fine raster.
func (e *Encounter) coverBetween(from, to geometry.Position) geometry.CoverLevel {
	return geometry.Cover(e.grid.Center(grid.CellOf(from)), e.grid.Center(grid.CellOf(to)), e.raster)
}

// sameSquare ignores elevation when comparing squares.
func sameSquare(a, b geometry.Position) bool {
	return a.X == b.X && a.Y == b.Y
}

// flat drops elevation so terrain lookups key on the square.
func flat(p geometry.Position) geometry.Position {
	return geometry.Position{X: p.X, Y: p.Y}
}
