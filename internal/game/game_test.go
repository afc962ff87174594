package game

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/lilcraft/internal/config"
)

func TestMoveVector(t *testing.T) {
	tests := []struct {
		name           string
		yaw            float32
		forward, right float32
		x, z           float32
	}{
		{"none", 0, 0, 0, 0, 0},
		{"forward", 0, 1, 0, 0, -1},
		{"back", 0, -1, 0, 0, 1},
		{"right", 0, 0, 1, 1, 0},
		{"forward turned", gomath.Pi / 2, 1, 0, -1, 0},
		{"diagonal is unit", 0, 1, 1, 1 / gomath.Sqrt2, -1 / gomath.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, z := moveVector(tt.yaw, tt.forward, tt.right)
			if gomath.Abs(float64(x-tt.x)) > 1e-6 || gomath.Abs(float64(z-tt.z)) > 1e-6 {
				t.Errorf("moveVector = (%v, %v), want (%v, %v)", x, z, tt.x, tt.z)
			}
		})
	}
}

func TestLoadOptions(t *testing.T) {
	a := config.Default().Assets
	a.GeometryExt = "OBJ"
	a.PositionBound = 100

	opts := LoadOptions(a)
	if opts.Bake.Scale != a.PositionScale || opts.Bake.Bound != 100 {
		t.Errorf("bake options %+v", opts.Bake)
	}
	geometry, image := opts.Paths("assets", "dirt_00")
	if geometry != "assets/dirt_00.OBJ" || image != "assets/dirt_00.png" {
		t.Errorf("Paths = %q, %q", geometry, image)
	}
}
