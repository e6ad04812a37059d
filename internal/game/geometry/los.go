package geometry

// LineOfSight reports whether an unobstructed sight line exists between two
// fine-grid points. The line is rasterized with Bresenham; sight is blocked
// when any traversed cell or one of its 8 neighbors is a non-door wall.
// The neighborhood check prevents sight from slipping diagonally between
// two touching wall cells.
//
// Precondition: obs must be non-nil.
func LineOfSight(from, to FinePoint, obs Obstructions) bool {
	for _, p := range Bresenham(from, to) {
		if blockedWithNeighbors(p, obs) {
			return false
		}
	}
	return true
}

// blockedWithNeighbors reports whether p or any of its 8 neighbors blocks sight.
func blockedWithNeighbors(p FinePoint, obs Obstructions) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if obs.Blocked(FinePoint{X: p.X + dx, Y: p.Y + dy}) {
				return true
			}
		}
	}
	return false
}
