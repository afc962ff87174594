package world

import (
	gomath "math"
	"strings"
	"testing"

	"github.com/Faultbox/lilcraft/internal/game/entity"
	"github.com/Faultbox/lilcraft/pkg/math"
)

func TestWalkable(t *testing.T) {
	w := New(4, 3)
	w.AddTile(Tile{Mesh: MeshGrass, X: 0, Z: 0})
	w.AddTile(Tile{Mesh: MeshWater, X: 1, Z: 0})
	w.AddTile(Tile{Mesh: MeshGrass, X: 2, Z: 0})
	w.AddTile(Tile{Mesh: MeshTree, X: 2, Y: 1, Z: 0})

	tests := []struct {
		x, z int
		want bool
	}{
		{0, 0, true},
		{1, 0, false}, // water
		{2, 0, false}, // tree
		{3, 0, false}, // no ground
		{-1, 0, false},
		{0, 3, false},
	}
	for _, tt := range tests {
		if got := w.Walkable(tt.x, tt.z); got != tt.want {
			t.Errorf("Walkable(%d, %d) = %v, want %v", tt.x, tt.z, got, tt.want)
		}
	}

	if w.AddTile(Tile{Mesh: MeshGrass, X: 4, Z: 0}) {
		t.Error("AddTile accepted an off-grid tile")
	}
	if len(w.Tiles()) != 4 {
		t.Errorf("%d tiles, want 4", len(w.Tiles()))
	}
}

func TestSpawn(t *testing.T) {
	w := flatWorld(3, 3, [][2]int{{2, 2}})

	p, err := w.Spawn(entity.KindPlayer, nil, 1, 1)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if w.Player() != p {
		t.Error("first player not recorded")
	}
	if p.Position != CellToWorld(1, 1, 1) {
		t.Errorf("Position = %+v", p.Position)
	}

	if _, err := w.Spawn(entity.KindPlayer, nil, 0, 0); err != nil {
		t.Fatalf("second Spawn: %v", err)
	}
	if w.Player() != p {
		t.Error("second player replaced the first")
	}

	if _, err := w.Spawn(entity.KindItem, nil, 2, 2); err == nil || !strings.Contains(err.Error(), "not walkable") {
		t.Errorf("spawn on a tree: %v", err)
	}
	if len(w.Entities()) != 2 {
		t.Errorf("%d entities, want 2", len(w.Entities()))
	}
}

func TestMove(t *testing.T) {
	w := flatWorld(3, 3, nil)
	p, _ := w.Spawn(entity.KindPlayer, nil, 1, 1)

	if !w.Move(p, 1, 0) {
		t.Fatal("move onto grass refused")
	}
	if p.Position.X != 2 || p.Position.Z != 1 {
		t.Errorf("Position = %+v", p.Position)
	}

	if w.Move(p, 1, 0) {
		t.Error("moved off the grid")
	}
	if p.Position.X != 2 {
		t.Errorf("refused move changed position to %+v", p.Position)
	}
	if want := float32(gomath.Pi / 2); gomath.Abs(float64(p.Rotation-want)) > 1e-6 {
		t.Errorf("Rotation = %v, want %v", p.Rotation, want)
	}

	if w.Move(p, 0, 0) {
		t.Error("zero move reported as a move")
	}
}

func TestWorldToCell(t *testing.T) {
	tests := []struct {
		pos  math.Vec3
		x, z int
	}{
		{math.Vec3{X: 0, Z: 0}, 0, 0},
		{math.Vec3{X: 1.4, Z: 2.6}, 1, 3},
		{math.Vec3{X: 0.5, Z: -0.4}, 1, 0},
	}
	for _, tt := range tests {
		if x, z := WorldToCell(tt.pos); x != tt.x || z != tt.z {
			t.Errorf("WorldToCell(%+v) = (%d, %d), want (%d, %d)", tt.pos, x, z, tt.x, tt.z)
		}
	}
}

func TestUpdateSpinsItems(t *testing.T) {
	w := flatWorld(3, 3, nil)
	p, _ := w.Spawn(entity.KindPlayer, nil, 0, 0)
	item, _ := w.Spawn(entity.KindItem, nil, 1, 1)

	w.Update(1)
	if item.Rotation != ItemSpin {
		t.Errorf("item rotation = %v, want %v", item.Rotation, ItemSpin)
	}
	if p.Rotation != 0 {
		t.Error("player rotated by Update")
	}

	w.Update(10)
	if item.Rotation < 0 || item.Rotation >= 2*gomath.Pi {
		t.Errorf("item rotation %v not wrapped", item.Rotation)
	}
}

func TestGenerate(t *testing.T) {
	const size = 16
	w, err := Generate(size)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ground := 0
	known := map[string]bool{MeshDirt: true, MeshGrass: true, MeshSand: true, MeshTree: true, MeshWater: true}
	for _, tile := range w.Tiles() {
		if !known[tile.Mesh] {
			t.Errorf("unknown mesh %q", tile.Mesh)
		}
		if tile.Y == 0 {
			ground++
		}
	}
	if ground != size*size {
		t.Errorf("%d ground tiles, want %d", ground, size*size)
	}

	p := w.Player()
	if p == nil {
		t.Fatal("no player")
	}
	if x, z := WorldToCell(p.Position); x != size/2 || z != size-2 {
		t.Errorf("player at (%d, %d)", x, z)
	}
	if len(w.Entities()) != 4 {
		t.Errorf("%d entities, want player and 3 items", len(w.Entities()))
	}
	if w.Walkable(size/3, size/3) {
		t.Error("pond center is walkable")
	}

	if _, err := Generate(4); err == nil {
		t.Error("expected error for a tiny world")
	}
}
