package world

import (
	"github.com/Faultbox/lilcraft/internal/game/entity"
)

// Walker moves an entity along a path found by a PathFinder, one cell center
// at a time.
type Walker struct {
	finder *PathFinder
	entity *entity.Entity
	speed  float32 // world units per second

	path [][2]int
	next int
}

// NewWalker creates a walker for e.
func NewWalker(finder *PathFinder, e *entity.Entity, speed float32) *Walker {
	return &Walker{finder: finder, entity: e, speed: speed}
}

// WalkTo plans a path from the entity's current cell to (x, z). It returns
// false and keeps the current path when no path exists.
func (w *Walker) WalkTo(x, z int) bool {
	sx, sz := WorldToCell(w.entity.Position)
	path := w.finder.FindPath(sx, sz, x, z)
	if path == nil {
		return false
	}
	w.path = path
	w.next = 1 // path[0] is the start cell
	return true
}

// Walking reports whether waypoints remain.
func (w *Walker) Walking() bool { return w.next < len(w.path) }

// Path returns the current path.
func (w *Walker) Path() [][2]int { return w.path }

// Stop drops the current path.
func (w *Walker) Stop() {
	w.path = nil
	w.next = 0
}

// Update moves the entity up to speed*dt toward the remaining waypoints.
func (w *Walker) Update(dt float32) {
	budget := w.speed * dt
	for budget > 0 && w.Walking() {
		c := w.path[w.next]
		target := CellToWorld(c[0], 0, c[1])
		target.Y = w.entity.Position.Y

		delta := target.Sub(w.entity.Position)
		d := delta.Length()
		if d > 0 {
			w.entity.Rotation = Heading(delta.X, delta.Z)
		}
		if d <= budget {
			w.entity.Position = target
			budget -= d
			w.next++
			continue
		}
		w.entity.Position = w.entity.Position.Add(delta.Scale(budget / d))
		budget = 0
	}
	if !w.Walking() {
		w.Stop()
	}
}
