// Package grid implements the movement grid for the skirmish combat engine:
// a fine wall raster built from wall segments and a coarse 8-directional
// pathfinder over it. All types are immutable after construction and safe
// for concurrent use.
package grid

import (
	"github.com/cory-johannsen/skirmish/internal/game/geometry"
)

// DefaultStep is the number of fine raster cells per coarse cell edge.
const DefaultStep = 10

// WallSegment is one wall on the fine grid, defined by its two endpoints.
// Door segments never block sight or movement.
type WallSegment struct {
	A    geometry.FinePoint `json:"a"`
	B    geometry.FinePoint `json:"b"`
	Door bool               `json:"door,omitempty"`
}

// WallRaster is the fine occupancy grid produced by rasterizing wall
// segments. It satisfies geometry.Obstructions.
type WallRaster struct {
	walls map[geometry.FinePoint]bool
	doors map[geometry.FinePoint]bool
}

// NewWallRaster rasterizes segments into a fine occupancy grid. Each segment
// is drawn with Bresenham; a cell covered by both a door and a plain wall
// counts as a door (a doorway cut into a wall).
//
// Postcondition: Blocked(p) is true iff p lies on a non-door segment and on
// no door segment.
func NewWallRaster(segments []WallSegment) *WallRaster {
	r := &WallRaster{
		walls: make(map[geometry.FinePoint]bool),
		doors: make(map[geometry.FinePoint]bool),
	}
	for _, seg := range segments {
		for _, p := range geometry.Bresenham(seg.A, seg.B) {
			if seg.Door {
				r.doors[p] = true
			} else {
				r.walls[p] = true
			}
		}
	}
	return r
}

// Blocked reports whether p holds a non-door wall.
func (r *WallRaster) Blocked(p geometry.FinePoint) bool {
	return r.walls[p] && !r.doors[p]
}

// IsDoor reports whether p holds a door cell.
func (r *WallRaster) IsDoor(p geometry.FinePoint) bool {
	return r.doors[p]
}

// WallCount returns the number of distinct non-door wall cells.
func (r *WallRaster) WallCount() int {
	n := 0
	for p := range r.walls {
		if !r.doors[p] {
			n++
		}
	}
	return n
}
