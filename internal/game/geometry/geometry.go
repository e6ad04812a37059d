// Package geometry provides the spatial reasoning primitives for the
// skirmish combat engine: distances, area-of-effect membership, line of
// sight, and cover. All functions are pure and safe for concurrent use.
package geometry

// FeetPerSquare is the edge length of one battlefield square.
const FeetPerSquare = 5

// Position is a location on the battlefield in whole squares.
// Z is elevation in squares; 0 is ground level.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z,omitempty"`
}

// FinePoint is a location on the fine wall-raster grid used for
// line-of-sight and path edge tests.
type FinePoint struct {
	X int
	Y int
}

// Obstructions reports which fine-grid cells block sight and movement.
// Door cells must report false.
type Obstructions interface {
	Blocked(p FinePoint) bool
}

// Bresenham rasterizes the line from a to b inclusive on the fine grid.
//
// Postcondition: the first element is a, the last is b, and consecutive
// elements are 8-neighbors.
func Bresenham(a, b FinePoint) []FinePoint {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	pts := make([]FinePoint, 0, dx+dy+1)
	x, y := a.X, a.Y
	err := dx - dy
	for {
		pts = append(pts, FinePoint{X: x, Y: y})
		if x == b.X && y == b.Y {
			return pts
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
