package picking

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/lilcraft/pkg/math"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-3
}

func TestScreenToRayCenter(t *testing.T) {
	eye := math.Vec3{X: 0, Y: 10, Z: 10}
	view := math.LookAt(eye, math.Vec3{}, math.Vec3{Y: 1})
	proj := math.Perspective(1, 1, 0.1, 100)
	inv := proj.Mul(view).Inverse()

	r := ScreenToRay(50, 50, 100, 100, inv)
	want := math.Vec3{}.Sub(eye).Normalize()
	if !near(r.Direction.X, want.X) || !near(r.Direction.Y, want.Y) || !near(r.Direction.Z, want.Z) {
		t.Errorf("Direction = %+v, want %+v", r.Direction, want)
	}

	x, z, ok := r.IntersectPlaneY(0)
	if !ok || !near(x, 0) || !near(z, 0) {
		t.Errorf("ground hit = (%v, %v, %v), want the origin", x, z, ok)
	}
}

func TestIntersectPlaneY(t *testing.T) {
	tests := []struct {
		name string
		ray  Ray
		x, z float32
		ok   bool
	}{
		{"down", Ray{math.Vec3{X: 1, Y: 5, Z: 2}, math.Vec3{Y: -1}}, 1, 2, true},
		{"slanted", Ray{math.Vec3{Y: 2}, math.Vec3{X: 1, Y: -1}.Normalize()}, 2, 0, true},
		{"parallel", Ray{math.Vec3{Y: 2}, math.Vec3{X: 1}}, 0, 0, false},
		{"away", Ray{math.Vec3{Y: 2}, math.Vec3{Y: 1}}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, z, ok := tt.ray.IntersectPlaneY(0)
			if ok != tt.ok || !near(x, tt.x) || !near(z, tt.z) {
				t.Errorf("got (%v, %v, %v), want (%v, %v, %v)", x, z, ok, tt.x, tt.z, tt.ok)
			}
		})
	}
}

func TestIntersectAABB(t *testing.T) {
	box := CenteredBox(math.Vec3{X: 5}, 1)

	tests := []struct {
		name string
		ray  Ray
		t    float32
		hit  bool
	}{
		{"front", Ray{math.Vec3{}, math.Vec3{X: 1}}, 4, true},
		{"inside", Ray{math.Vec3{X: 5}, math.Vec3{X: 1}}, 1, true},
		{"behind", Ray{math.Vec3{X: 10}, math.Vec3{X: 1}}, 0, false},
		{"miss", Ray{math.Vec3{Y: 3}, math.Vec3{X: 1}}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.hit || !near(got, tt.t) {
				t.Errorf("IntersectAABB = (%v, %v), want (%v, %v)", got, hit, tt.t, tt.hit)
			}
		})
	}
}
