package world

import (
	"fmt"

	"github.com/Faultbox/lilcraft/internal/game/entity"
)

// Generate builds the demo island: grass around a sand-rimmed pond, a dirt
// track along the middle row, a scatter of trees, the player near the south
// edge and a few dropped items.
func Generate(size int) (*World, error) {
	if size < 8 {
		return nil, fmt.Errorf("world size %d too small, need at least 8", size)
	}
	w := New(size, size)

	pondX, pondZ := size/3, size/3
	pondR := size / 6
	if pondR < 2 {
		pondR = 2
	}

	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			d := dist2(x, z, pondX, pondZ)
			mesh := MeshGrass
			switch {
			case d <= pondR*pondR:
				mesh = MeshWater
			case d <= (pondR+1)*(pondR+1):
				mesh = MeshSand
			case z == size/2:
				mesh = MeshDirt
			}
			w.AddTile(Tile{Mesh: mesh, X: x, Z: z})
		}
	}

	for z := 1; z < size-1; z++ {
		for x := 1; x < size-1; x++ {
			if (x*7+z*13)%23 != 0 || !w.Walkable(x, z) || z == size/2 || z == size-2 {
				continue
			}
			if w.columns[z*w.width+x].ground == MeshGrass {
				w.AddTile(Tile{Mesh: MeshTree, X: x, Y: 1, Z: z})
			}
		}
	}

	if _, err := w.Spawn(entity.KindPlayer, nil, size/2, size-2); err != nil {
		return nil, err
	}

	drops := []struct {
		item entity.Item
		x, z int
	}{
		{entity.Item{ID: entity.ItemDirt, Count: 4}, size/2 + 2, size / 2},
		{entity.Item{ID: entity.ItemSand, Count: 1}, pondX + pondR + 1, pondZ},
		{entity.Item{ID: entity.ItemTree, Count: 2}, size - 2, 1},
	}
	for _, d := range drops {
		if !w.Walkable(d.x, d.z) {
			continue
		}
		if _, err := w.Spawn(entity.KindItem, d.item, d.x, d.z); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func dist2(x, z, cx, cz int) int {
	dx, dz := x-cx, z-cz
	return dx*dx + dz*dz
}
