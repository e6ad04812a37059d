package geometry

import (
	"fmt"
	"math"
)

// Mode selects the distance measurement rule.
type Mode int

const (
	// Euclidean is straight-line distance rounded to the nearest foot.
	Euclidean Mode = iota
	// Grid5e is the standard 5e rule: diagonals cost the same as straights.
	Grid5e
	// GridAlt is the alternating variant: diagonals cost 5/10/5/10 feet.
	GridAlt
)

// String returns the mode name used in configuration and logs.
func (m Mode) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Grid5e:
		return "grid_5e"
	case GridAlt:
		return "grid_alt"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as produced by String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "euclidean":
		return Euclidean, nil
	case "grid_5e":
		return Grid5e, nil
	case "grid_alt":
		return GridAlt, nil
	default:
		return 0, fmt.Errorf("geometry: unknown distance mode %q", s)
	}
}

// Distance measures the distance between a and b in feet under the given mode.
//
// Postcondition: Distance(a, b, m) == Distance(b, a, m) for every mode;
// adjacent squares (including diagonals) measure exactly 5 ft under Grid5e.
func Distance(a, b Position, mode Mode) int {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	dz := abs(b.Z - a.Z)

	switch mode {
	case Euclidean:
		d := math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
		return int(math.Round(FeetPerSquare * d))
	case Grid5e:
		return FeetPerSquare * maxInt(dx, maxInt(dy, dz))
	case GridAlt:
		// Diagonal steps alternate 5/10 ft starting at 5; leftover straight
		// steps and elevation units are 5 ft each.
		diag := minInt(dx, dy)
		straight := maxInt(dx, dy) - diag + dz
		diagFeet := FeetPerSquare*diag + FeetPerSquare*(diag/2)
		return diagFeet + FeetPerSquare*straight
	default:
		return FeetPerSquare * maxInt(dx, maxInt(dy, dz))
	}
}
