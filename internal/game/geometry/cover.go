package geometry

// CoverLevel classifies how much of the sight line to a target is obstructed.
type CoverLevel int

const (
	CoverNone CoverLevel = iota
	CoverHalf
	CoverThreeQuarters
	CoverTotal
)

// String returns the cover level name.
func (c CoverLevel) String() string {
	switch c {
	case CoverNone:
		return "none"
	case CoverHalf:
		return "half"
	case CoverThreeQuarters:
		return "three-quarters"
	case CoverTotal:
		return "total"
	default:
		return "unknown"
	}
}

// ACBonus returns the armor class (and Dexterity save) bonus the cover grants.
// Total cover makes the target untargetable; callers must check Targetable.
func (c CoverLevel) ACBonus() int {
	switch c {
	case CoverHalf:
		return 2
	case CoverThreeQuarters:
		return 5
	default:
		return 0
	}
}

// Targetable reports whether a target behind this cover can be attacked at all.
func (c CoverLevel) Targetable() bool { return c != CoverTotal }

// Cover classifies the cover between attacker and target from the fraction
// of the rasterized sight line that crosses non-door walls. The endpoint
// cells are excluded so a combatant standing in a doorway does not grant
// itself cover.
//
// Precondition: obs must be non-nil.
// Postcondition: returns CoverNone when the interior of the line is clear.
func Cover(from, to FinePoint, obs Obstructions) CoverLevel {
	line := Bresenham(from, to)
	if len(line) <= 2 {
		return CoverNone
	}
	interior := line[1 : len(line)-1]

	blocked := 0
	for _, p := range interior {
		if obs.Blocked(p) {
			blocked++
		}
	}
	if blocked == 0 {
		return CoverNone
	}

	frac := float64(blocked) / float64(len(interior))
	switch {
	case frac < 0.3:
		return CoverHalf
	case frac < 0.6:
		return CoverThreeQuarters
	default:
		return CoverTotal
	}
}
