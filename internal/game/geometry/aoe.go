package geometry

import "math"

// Shape is the sealed set of area-of-effect geometries. All sizes are in feet.
type Shape interface {
	shape()
}

// Sphere affects everything within Radius of the origin.
type Sphere struct {
	Radius int
}

// Cone extends Length feet from the origin toward the aim point, widening as
// it goes (width equals distance, the standard 5e cone).
type Cone struct {
	Length int
}

// Line is an oriented rectangle Length feet long and Width feet wide,
// starting at the origin and pointing at the aim point.
type Line struct {
	Length int
	Width  int
}

// Cube is an axis-aligned cube of edge Side centered on the origin.
type Cube struct {
	Side int
}

// Cylinder affects everything within Radius horizontally and Height/2
// vertically of the origin.
type Cylinder struct {
	Radius int
	Height int
}

func (Sphere) shape()   {}
func (Cone) shape()     {}
func (Line) shape()     {}
func (Cube) shape()     {}
func (Cylinder) shape() {}

// coneHalfAngle is the half-angle of a 5e cone, whose width equals its
// length at every distance: atan(0.5).
var coneHalfAngle = math.Atan(0.5)

// Contains reports whether p lies inside the area produced by casting shape
// s from origin. dir is the aim point for directional shapes (Cone, Line)
// and is ignored otherwise.
//
// Postcondition: the origin square itself is inside every non-directional shape.
func Contains(s Shape, origin, dir, p Position) bool {
	switch sh := s.(type) {
	case Sphere:
		return Distance(origin, p, Euclidean) <= sh.Radius

	case Cone:
		if Distance(origin, p, Euclidean) > sh.Length {
			return false
		}
		if p.X == origin.X && p.Y == origin.Y {
			return true
		}
		aim := math.Atan2(float64(dir.Y-origin.Y), float64(dir.X-origin.X))
		at := math.Atan2(float64(p.Y-origin.Y), float64(p.X-origin.X))
		return angleDelta(aim, at) <= coneHalfAngle

	case Line:
		// Project p onto the aim axis; inside when the projection falls in
		// [0, Length] and the perpendicular offset within Width/2.
		ax := float64(dir.X - origin.X)
		ay := float64(dir.Y - origin.Y)
		norm := math.Hypot(ax, ay)
		if norm == 0 {
			return p.X == origin.X && p.Y == origin.Y
		}
		ux, uy := ax/norm, ay/norm
		px := float64(p.X-origin.X) * FeetPerSquare
		py := float64(p.Y-origin.Y) * FeetPerSquare
		along := px*ux + py*uy
		if along < 0 || along > float64(sh.Length) {
			return false
		}
		perp := math.Abs(px*uy - py*ux)
		return perp <= float64(sh.Width)/2

	case Cube:
		d := maxInt(abs(p.X-origin.X), maxInt(abs(p.Y-origin.Y), abs(p.Z-origin.Z)))
		return 2*FeetPerSquare*d <= sh.Side

	case Cylinder:
		dx := p.X - origin.X
		dy := p.Y - origin.Y
		flat := math.Hypot(float64(dx), float64(dy)) * FeetPerSquare
		if flat > float64(sh.Radius) {
			return false
		}
		return 2*FeetPerSquare*abs(p.Z-origin.Z) <= sh.Height

	default:
		return false
	}
}

// angleDelta returns the absolute difference between two angles in radians,
// normalized to [0, π].
func angleDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// extent returns the maximum reach of s in squares, used to bound cell scans.
func extent(s Shape) int {
	feet := 0
	switch sh := s.(type) {
	case Sphere:
		feet = sh.Radius
	case Cone:
		feet = sh.Length
	case Line:
		feet = sh.Length
	case Cube:
		feet = sh.Side
	case Cylinder:
		feet = maxInt(sh.Radius, sh.Height)
	}
	return feet/FeetPerSquare + 1
}

// CellsInArea enumerates every square inside the area cast from origin.
// The scan covers elevations for volumetric shapes.
//
// Postcondition: every returned Position satisfies Contains.
func CellsInArea(s Shape, origin, dir Position) []Position {
	r := extent(s)
	var cells []Position
	for z := origin.Z - r; z <= origin.Z+r; z++ {
		for y := origin.Y - r; y <= origin.Y+r; y++ {
			for x := origin.X - r; x <= origin.X+r; x++ {
				p := Position{X: x, Y: y, Z: z}
				if Contains(s, origin, dir, p) {
					cells = append(cells, p)
				}
			}
		}
	}
	return cells
}

// FilterPositions returns the indices of candidates inside the area.
// The engine uses this to select affected participants.
func FilterPositions(s Shape, origin, dir Position, candidates []Position) []int {
	var hit []int
	for i, p := range candidates {
		if Contains(s, origin, dir, p) {
			hit = append(hit, i)
		}
	}
	return hit
}
