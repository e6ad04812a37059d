package grid

import (
	"container/heap"
	"math"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/geometry"
)

// Cell is one coarse movement cell. Each cell covers Step×Step fine cells
// and corresponds to one battlefield square.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CellOf maps a battlefield position onto its coarse cell, dropping elevation.
func CellOf(p geometry.Position) Cell {
	return Cell{X: p.X, Y: p.Y}
}

// Grid is the coarse pathfinding grid over a wall raster.
type Grid struct {
	raster *WallRaster
	step   int
	width  int // coarse cells
	height int
}

// New creates a Grid of width×height coarse cells over raster.
// step <= 0 selects DefaultStep.
//
// Precondition: raster must be non-nil; width and height must be > 0.
func New(raster *WallRaster, step, width, height int) *Grid {
	if step <= 0 {
		step = DefaultStep
	}
	return &Grid{raster: raster, step: step, width: width, height: height}
}

// Step returns the fine cells per coarse cell edge.
func (g *Grid) Step() int { return g.step }

// Bounds returns the grid dimensions in coarse cells.
func (g *Grid) Bounds() (width, height int) { return g.width, g.height }

// Center returns the fine-grid point at the middle of c.
func (g *Grid) Center(c Cell) geometry.FinePoint {
	return geometry.FinePoint{
		X: c.X*g.step + g.step/2,
		Y: c.Y*g.step + g.step/2,
	}
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Impassable reports whether any fine sub-cell of c holds a non-door wall.
func (g *Grid) Impassable(c Cell) bool {
	for fy := c.Y * g.step; fy < (c.Y+1)*g.step; fy++ {
		for fx := c.X * g.step; fx < (c.X+1)*g.step; fx++ {
			if g.raster.Blocked(geometry.FinePoint{X: fx, Y: fy}) {
				return true
			}
		}
	}
	return false
}

// EdgeClear reports whether the fine line between the centers of a and b
// crosses no non-door wall.
func (g *Grid) EdgeClear(a, b Cell) bool {
	for _, p := range geometry.Bresenham(g.Center(a), g.Center(b)) {
		if g.raster.Blocked(p) {
			return false
		}
	}
	return true
}

// PathOptions tunes a FindPath search.
type PathOptions struct {
	// Occupied cells are avoided, except when one is the start cell.
	Occupied map[Cell]bool
	// MaxCost bounds the path cost; 0 means unlimited.
	MaxCost int
}

// PathResult is the outcome of a FindPath search. When no goal is reachable
// within the cost budget, Path is the best-effort route toward the nearest
// goal and Complete is false; FindPath never fails outright.
type PathResult struct {
	Path     []Cell
	Cost     int
	Complete bool
}

// directions are the 8 neighbor offsets with their movement costs:
// 1 orthogonal, 2 diagonal. Order is fixed for reproducible expansion.
var directions = []struct {
	dx, dy, cost int
}{
	{0, -1, 1}, {1, 0, 1}, {0, 1, 1}, {-1, 0, 1},
	{-1, -1, 2}, {1, -1, 2}, {1, 1, 2}, {-1, 1, 2},
}

// node is one open-set entry. seq preserves insertion order so that equal
// priorities pop in the order pushed (stable, reproducible searches).
type node struct {
	cell Cell
	g    int
	f    float64
	seq  int
}

type openSet []*node

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int)       { s[i], s[j] = s[j], s[i] }
func (s *openSet) Push(x any)         { *s = append(*s, x.(*node)) }
func (s *openSet) Pop() any {
	old := *s
	n := old[len(old)-1]
	*s = old[:len(old)-1]
	return n
}

// heuristic is the Euclidean cell distance from c to the nearest goal.
func heuristic(c Cell, goals []Cell) float64 {
	best := math.Inf(1)
	for _, goal := range goals {
		dx := float64(goal.X - c.X)
		dy := float64(goal.Y - c.Y)
		if d := math.Hypot(dx, dy); d < best {
			best = d
		}
	}
	return best
}

// FindPath runs an A* search from start toward the nearest member of goals.
//
// Movement is 8-directional at cost 1 orthogonal / 2 diagonal; an edge is
// traversable only when the fine line between cell centers crosses no
// non-door wall. Occupied cells are avoided except as the start. When
// opts.MaxCost is exhausted before any goal is reached, the result is the
// best-effort path to the expanded cell closest (by heuristic) to a goal.
//
// Precondition: goals must be non-empty.
// Postcondition: Path[0] == start when Path is non-empty; no returned edge
// crosses a non-door wall.
func (g *Grid) FindPath(start Cell, goals []Cell, opts PathOptions) PathResult {
	if len(goals) == 0 {
		return PathResult{}
	}

	goalSet := make(map[Cell]bool, len(goals))
	for _, goal := range goals {
		goalSet[goal] = true
	}
	if goalSet[start] {
		return PathResult{Path: []Cell{start}, Complete: true}
	}

	cameFrom := make(map[Cell]Cell)
	gScore := map[Cell]int{start: 0}

	open := &openSet{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &node{cell: start, g: 0, f: heuristic(start, goals), seq: seq})

	closed := make(map[Cell]bool)

	// Best-effort fallback: the expanded cell with minimum heuristic.
	bestCell := start
	bestH := heuristic(start, goals)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		if goalSet[cur.cell] {
			return PathResult{
				Path:     reconstruct(cameFrom, cur.cell),
				Cost:     cur.g,
				Complete: true,
			}
		}

		if h := heuristic(cur.cell, goals); h < bestH {
			bestH = h
			bestCell = cur.cell
		}

		for _, d := range directions {
			next := Cell{X: cur.cell.X + d.dx, Y: cur.cell.Y + d.dy}
			if closed[next] || !g.InBounds(next) || g.Impassable(next) {
				continue
			}
			if opts.Occupied[next] {
				continue
			}
			if !g.EdgeClear(cur.cell, next) {
				continue
			}
			tentative := cur.g + d.cost
			if opts.MaxCost > 0 && tentative > opts.MaxCost {
				continue
			}
			if prev, seen := gScore[next]; seen && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			cameFrom[next] = cur.cell
			seq++
			heap.Push(open, &node{
				cell: next,
				g:    tentative,
				f:    float64(tentative) + heuristic(next, goals),
				seq:  seq,
			})
		}
	}

	// Budget or reachability exhausted: get as close as possible.
	return PathResult{
		Path:     reconstruct(cameFrom, bestCell),
		Cost:     gScore[bestCell],
		Complete: false,
	}
}

func reconstruct(cameFrom map[Cell]Cell, end Cell) []Cell {
	path := []Cell{end}
	for {
		prev, ok := cameFrom[end]
		if !ok {
			break
		}
		path = append(path, prev)
		end = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FindReachable returns every coarse cell reachable from start within
// maxCost, start included, using the same edge relation as FindPath.
// Occupied cells other than the start are never entered. The result is
// sorted by (Y, X) for reproducibility.
//
// Precondition: maxCost >= 0.
func (g *Grid) FindReachable(start Cell, maxCost int, occupied map[Cell]bool) []Cell {
	dist := map[Cell]int{start: 0}

	open := &openSet{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &node{cell: start, g: 0, f: 0, seq: seq})
	closed := make(map[Cell]bool)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.cell] {
			continue
		}
		closed[cur.cell] = true

		for _, d := range directions {
			next := Cell{X: cur.cell.X + d.dx, Y: cur.cell.Y + d.dy}
			if closed[next] || !g.InBounds(next) || g.Impassable(next) {
				continue
			}
			if occupied[next] {
				continue
			}
			if !g.EdgeClear(cur.cell, next) {
				continue
			}
			tentative := cur.g + d.cost
			if tentative > maxCost {
				continue
			}
			if prev, seen := dist[next]; seen && tentative >= prev {
				continue
			}
			dist[next] = tentative
			seq++
			heap.Push(open, &node{cell: next, g: tentative, f: float64(tentative), seq: seq})
		}
	}

	cells := make([]Cell, 0, len(dist))
	for c := range dist {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
	return cells
}
