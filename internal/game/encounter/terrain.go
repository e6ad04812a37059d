package encounter

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/geometry"
)

// TerrainKind classifies a battlefield square. Obstacles block movement
// and occupancy; difficult terrain and water double movement cost;
// hazards are markers surfaced through snapshots and rendering.
type TerrainKind int

const (
	TerrainNormal TerrainKind = iota
	TerrainObstacle
	TerrainDifficult
	TerrainWater
	TerrainHazard
)

func (k TerrainKind) String() string {
	switch k {
	case TerrainObstacle:
		return "obstacle"
	case TerrainDifficult:
		return "difficult"
	case TerrainWater:
		return "water"
	case TerrainHazard:
		return "hazard"
	default:
		return "normal"
	}
}

// ParseTerrainKind maps a lowercase name to a TerrainKind.
func ParseTerrainKind(name string) (TerrainKind, error) {
	switch name {
	case "normal":
		return TerrainNormal, nil
	case "obstacle":
		return TerrainObstacle, nil
	case "difficult":
		return TerrainDifficult, nil
	case "water":
		return TerrainWater, nil
	case "hazard":
		return TerrainHazard, nil
	default:
		return TerrainNormal, fmt.Errorf("%w: terrain kind %q", ErrInvalid, name)
	}
}

// TerrainCell pairs a square with its kind.
type TerrainCell struct {
	Position geometry.Position
	Kind     TerrainKind
}

// TerrainOp selects a ModifyTerrain operation.
type TerrainOp int

const (
	// TerrainSet assigns kinds to squares, replacing prior entries.
	TerrainSet TerrainOp = iota
	// TerrainClear removes entries for the given squares.
	TerrainClear
	// TerrainReset removes every terrain entry; Cells is ignored.
	TerrainReset
)

// TerrainChange is a batch terrain mutation. The whole batch validates
// before any square changes.
type TerrainChange struct {
	Op    TerrainOp
	Cells []TerrainCell
}

// ModifyTerrain applies a batch terrain mutation. Setting a square
// occupied by a living participant to an obstacle is rejected.
func (e *Encounter) ModifyTerrain(change TerrainChange) error {
	if err := e.ensureActive(); err != nil {
		return err
	}
	switch change.Op {
	case TerrainSet:
		for _, c := range change.Cells {
			if !e.inBounds(c.Position) {
				return fmt.Errorf("%w: terrain cell outside the grid", ErrInvalid)
			}
			if c.Kind == TerrainObstacle {
				for _, p := range e.participants {
					if p.Alive() && sameSquare(p.Position, c.Position) {
						return fmt.Errorf("%w: square is occupied by %s", ErrIllegalState, p.ID)
					}
				}
			}
		}
		for _, c := range change.Cells {
			if c.Kind == TerrainNormal {
				delete(e.terrain, flat(c.Position))
			} else {
				e.terrain[flat(c.Position)] = c.Kind
			}
		}
	case TerrainClear:
		for _, c := range change.Cells {
			if !e.inBounds(c.Position) {
				return fmt.Errorf("%w: terrain cell outside the grid", ErrInvalid)
			}
		}
		for _, c := range change.Cells {
			delete(e.terrain, flat(c.Position))
		}
	case TerrainReset:
		e.terrain = make(map[geometry.Position]TerrainKind)
	default:
		return fmt.Errorf("%w: terrain op %d", ErrInvalid, change.Op)
	}
	e.logger.Debug("terrain modified",
		zap.Stringer("op", change.Op),
		zap.Int("cells", len(change.Cells)))
	return nil
}

// Terrain returns the non-normal squares sorted by (Y, X) for
// deterministic iteration.
func (e *Encounter) Terrain() []TerrainCell {
	out := make([]TerrainCell, 0, len(e.terrain))
	for pos, kind := range e.terrain {
		out = append(out, TerrainCell{Position: pos, Kind: kind})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position.Y != out[j].Position.Y {
			return out[i].Position.Y < out[j].Position.Y
		}
		return out[i].Position.X < out[j].Position.X
	})
	return out
}

// TerrainAt reports the kind of a square; unset squares are normal.
func (e *Encounter) TerrainAt(pos geometry.Position) TerrainKind {
	return e.terrain[flat(pos)]
}

func (o TerrainOp) String() string {
	switch o {
	case TerrainSet:
		return "set"
	case TerrainClear:
		return "clear"
	case TerrainReset:
		return "reset"
	default:
		return "unknown"
	}
}
