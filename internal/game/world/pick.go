package world

import (
	gomath "math"

	"github.com/Faultbox/lilcraft/internal/engine/picking"
	"github.com/Faultbox/lilcraft/internal/game/entity"
	"github.com/Faultbox/lilcraft/pkg/math"
)

// Pick returns the column under ray: the column of the nearest item drop the
// ray hits, otherwise the column where the ray meets the top of the ground.
func (w *World) Pick(ray picking.Ray) (x, z int, ok bool) {
	nearest := float32(gomath.MaxFloat32)
	for _, e := range w.entities {
		if e.Kind != entity.KindItem {
			continue
		}
		if t, hit := ray.IntersectAABB(picking.CenteredBox(e.Position, TileSize/2)); hit && t < nearest {
			nearest = t
			x, z = WorldToCell(e.Position)
			ok = true
		}
	}
	if ok {
		return x, z, true
	}

	px, pz, hit := ray.IntersectPlaneY(TileSize / 2)
	if !hit {
		return 0, 0, false
	}
	x, z = WorldToCell(math.Vec3{X: px, Z: pz})
	return x, z, w.InBounds(x, z)
}
