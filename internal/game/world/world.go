// Package world holds the tiles and entities that make up the scene and
// turns them into per-mesh instance streams each frame.
package world

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/lilcraft/internal/engine/instance"
	"github.com/Faultbox/lilcraft/internal/game/entity"
	"github.com/Faultbox/lilcraft/pkg/math"
)

// TileSize is the edge length of one grid cell in world units.
const TileSize float32 = 1

// Block meshes.
const (
	MeshDirt  = "dirt_00"
	MeshGrass = "grass_00"
	MeshSand  = "sand_00"
	MeshTree  = "tree_00"
	MeshWater = "water_00"
)

// ItemSpin is how fast dropped items turn, in radians per second.
const ItemSpin = 1.5

// Tile is a block at a grid position. Y is the layer, 0 being the ground.
type Tile struct {
	Mesh    string
	X, Y, Z int
}

// Transform returns the instance record for drawing the tile.
func (t Tile) Transform() instance.Transform {
	return instance.Transform{Position: CellToWorld(t.X, t.Y, t.Z)}
}

type column struct {
	ground  string
	blocked bool
}

// World is a width x depth grid of tile columns plus the entities standing
// on it.
type World struct {
	width, depth int
	columns      []column
	tiles        []Tile
	entities     []*entity.Entity
	player       *entity.Entity
}

// New creates an empty world.
func New(width, depth int) *World {
	if width <= 0 || depth <= 0 {
		panic(fmt.Sprintf("world: size must be positive, got %dx%d", width, depth))
	}
	return &World{
		width:   width,
		depth:   depth,
		columns: make([]column, width*depth),
	}
}

// Size returns the grid dimensions.
func (w *World) Size() (width, depth int) { return w.width, w.depth }

// InBounds reports whether the column (x, z) is on the grid.
func (w *World) InBounds(x, z int) bool {
	return x >= 0 && x < w.width && z >= 0 && z < w.depth
}

// AddTile places a tile. Ground water and anything stacked on the ground
// block the column. Returns false if the tile is off the grid.
func (w *World) AddTile(t Tile) bool {
	if !w.InBounds(t.X, t.Z) || t.Y < 0 {
		return false
	}
	c := &w.columns[t.Z*w.width+t.X]
	if t.Y == 0 {
		c.ground = t.Mesh
		if t.Mesh == MeshWater {
			c.blocked = true
		}
	} else {
		c.blocked = true
	}
	w.tiles = append(w.tiles, t)
	return true
}

// Tiles returns every placed tile in placement order.
func (w *World) Tiles() []Tile { return w.tiles }

// Walkable reports whether an entity can stand on column (x, z).
func (w *World) Walkable(x, z int) bool {
	if !w.InBounds(x, z) {
		return false
	}
	c := w.columns[z*w.width+x]
	return c.ground != "" && !c.blocked
}

// Spawn creates an entity of kind standing on column (x, z). The first
// player spawned becomes the world's player.
func (w *World) Spawn(kind entity.Kind, args any, x, z int) (*entity.Entity, error) {
	if !w.Walkable(x, z) {
		return nil, fmt.Errorf("spawning %s at (%d, %d): column not walkable", kind, x, z)
	}
	e, err := entity.New(kind, args)
	if err != nil {
		return nil, err
	}
	e.Position = CellToWorld(x, 1, z)
	w.entities = append(w.entities, e)
	if kind == entity.KindPlayer && w.player == nil {
		w.player = e
	}
	return e, nil
}

// Entities returns every spawned entity.
func (w *World) Entities() []*entity.Entity { return w.entities }

// Player returns the player entity, or nil before one is spawned.
func (w *World) Player() *entity.Entity { return w.player }

// Move shifts e by (dx, dz) world units if the column it lands on is
// walkable. It turns e to face the direction of travel either way.
func (w *World) Move(e *entity.Entity, dx, dz float32) bool {
	if dx == 0 && dz == 0 {
		return false
	}
	e.Rotation = Heading(dx, dz)

	to := e.Position.Add(math.Vec3{X: dx, Z: dz})
	x, z := WorldToCell(to)
	if !w.Walkable(x, z) {
		return false
	}
	e.Position = to
	return true
}

// Update advances the world by dt seconds.
func (w *World) Update(dt float32) {
	for _, e := range w.entities {
		if e.Kind == entity.KindItem {
			e.Rotation = float32(gomath.Mod(float64(e.Rotation+ItemSpin*dt), 2*gomath.Pi))
		}
	}
}

// Bounds returns the box covering the ground layer.
func (w *World) Bounds() (min, max math.Vec3) {
	min = CellToWorld(0, 0, 0)
	max = CellToWorld(w.width-1, 1, w.depth-1)
	return min, max
}

// CellToWorld returns the world position of the center of a cell.
func CellToWorld(x, y, z int) math.Vec3 {
	return math.Vec3{X: float32(x) * TileSize, Y: float32(y) * TileSize, Z: float32(z) * TileSize}
}

// WorldToCell returns the column containing pos.
func WorldToCell(pos math.Vec3) (x, z int) {
	return int(gomath.Round(float64(pos.X / TileSize))), int(gomath.Round(float64(pos.Z / TileSize)))
}

// Heading returns the rotation about +Y that turns +Z toward (dx, dz).
func Heading(dx, dz float32) float32 {
	return float32(gomath.Atan2(float64(dx), float64(dz)))
}
