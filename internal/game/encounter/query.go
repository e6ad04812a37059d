package encounter

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/geometry"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// PointRef names a battlefield point either by participant id or by
// explicit position. Exactly one field must be set; a participant ref
// resolves to that combatant's current square.
type PointRef struct {
	ParticipantID string
	Position      *geometry.Position
}

// At builds a PointRef for an explicit position.
func At(pos geometry.Position) PointRef {
	return PointRef{Position: &pos}
}

// Of builds a PointRef for a participant.
func Of(participantID string) PointRef {
	return PointRef{ParticipantID: participantID}
}

func (e *Encounter) resolvePoint(ref PointRef) (geometry.Position, error) {
	switch {
	case ref.ParticipantID != "" && ref.Position != nil:
		return geometry.Position{}, fmt.Errorf("%w: point names both a participant and a position", ErrInvalid)
	case ref.ParticipantID != "":
		p, err := e.Participant(ref.ParticipantID)
		if err != nil {
			return geometry.Position{}, err
		}
		return p.Position, nil
	case ref.Position != nil:
		return *ref.Position, nil
	default:
		return geometry.Position{}, fmt.Errorf("%w: empty point reference", ErrInvalid)
	}
}

// MeasureDistance measures the distance in feet between two points
// under the given mode.
func (e *Encounter) MeasureDistance(from, to PointRef, mode geometry.Mode) (int, error) {
	a, err := e.resolvePoint(from)
	if err != nil {
		return 0, err
	}
	b, err := e.resolvePoint(to)
	if err != nil {
		return 0, err
	}
	return geometry.Distance(a, b, mode), nil
}

// AoEResult reports an area query: the covered squares and the living
// participants standing in them.
type AoEResult struct {
	Cells    []geometry.Position
	Affected []string
}

// CalculateAoE enumerates the squares a shape covers from origin toward
// dir and the living participants inside it. Affected ids follow
// initiative order.
func (e *Encounter) CalculateAoE(shape geometry.Shape, origin, dir PointRef) (AoEResult, error) {
	o, err := e.resolvePoint(origin)
	if err != nil {
		return AoEResult{}, err
	}
	d, err := e.resolvePoint(dir)
	if err != nil {
		return AoEResult{}, err
	}
	result := AoEResult{Cells: geometry.CellsInArea(shape, o, d)}
	for _, id := range e.Order {
		p := e.participants[id]
		if p.Alive() && geometry.Contains(shape, o, d, p.Position) {
			result.Affected = append(result.Affected, id)
		}
	}
	return result, nil
}

// CheckLineOfSight reports whether a straight sightline between the
// square centers of two points crosses a wall. Doors never block.
func (e *Encounter) CheckLineOfSight(from, to PointRef) (bool, error) {
	a, err := e.resolvePoint(from)
	if err != nil {
		return false, err
	}
	b, err := e.resolvePoint(to)
	if err != nil {
		return false, err
	}
	return geometry.LineOfSight(
		e.grid.Center(grid.CellOf(a)),
		e.grid.Center(grid.CellOf(b)),
		e.raster,
	), nil
}

// CheckCover grades the wall cover between two points.
func (e *Encounter) CheckCover(from, to PointRef) (geometry.CoverLevel, error) {
	a, err := e.resolvePoint(from)
	if err != nil {
		return geometry.CoverNone, err
	}
	b, err := e.resolvePoint(to)
	if err != nil {
		return geometry.CoverNone, err
	}
	return e.coverBetween(a, b), nil
}

// Reachable lists the squares the participant could end movement on
// this turn, given their remaining allowance, sorted by (Y, X).
func (e *Encounter) Reachable(participantID string) ([]geometry.Position, error) {
	p, err := e.Participant(participantID)
	if err != nil {
		return nil, err
	}
	if !p.Alive() {
		return nil, fmt.Errorf("%w: %s is dead", ErrIllegalState, participantID)
	}
	allowance := e.movementAllowance(p, false)
	remaining := allowance - p.Economy.MovementUsed
	if remaining <= 0 {
		return nil, nil
	}
	cells := e.grid.FindReachable(grid.CellOf(p.Position), remaining/geometry.FeetPerSquare, e.occupiedCells(p.ID))
	out := make([]geometry.Position, len(cells))
	for i, c := range cells {
		out[i] = geometry.Position{X: c.X, Y: c.Y, Z: p.Position.Z}
	}
	return out, nil
}
