package mesh

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/Faultbox/lilcraft/internal/engine/voxel"
	"github.com/Faultbox/lilcraft/pkg/formats"
)

// cubeOBJ builds a cube of half-extent 0.5 with one palette entry per face,
// each face a quad with its own normal.
func cubeOBJ() string {
	var b strings.Builder
	for _, x := range []float32{-0.5, 0.5} {
		for _, y := range []float32{-0.5, 0.5} {
			for _, z := range []float32{-0.5, 0.5} {
				fmt.Fprintf(&b, "v %g %g %g\n", x, y, z)
			}
		}
	}
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "vt %g 0\n", (float32(i)+0.5)/6)
	}
	b.WriteString("vn 1 0 0\nvn -1 0 0\nvn 0 1 0\nvn 0 -1 0\nvn 0 0 1\nvn 0 0 -1\n")
	// Positions are numbered 1 + x*4 + y*2 + z with x, y, z in {0, 1}.
	faces := []string{
		"f 5/1/1 7/1/1 8/1/1 6/1/1",
		"f 1/2/2 2/2/2 4/2/2 3/2/2",
		"f 3/3/3 4/3/3 8/3/3 7/3/3",
		"f 1/4/4 5/4/4 6/4/4 2/4/4",
		"f 2/5/5 6/5/5 8/5/5 4/5/5",
		"f 1/6/6 3/6/6 7/6/6 5/6/6",
	}
	b.WriteString(strings.Join(faces, "\n"))
	b.WriteString("\n")
	return b.String()
}

func mustParse(t *testing.T, src string) *formats.OBJ {
	t.Helper()
	obj, err := formats.ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	return obj
}

func checkIndices(t *testing.T, baked *Baked, corners int) {
	t.Helper()
	if len(baked.Indices) != corners {
		t.Fatalf("%d indices, want %d", len(baked.Indices), corners)
	}
	for i, idx := range baked.Indices {
		if int(idx) >= len(baked.Vertices) {
			t.Fatalf("index %d = %d, only %d vertices", i, idx, len(baked.Vertices))
		}
	}
}

func TestBakeCube(t *testing.T) {
	baked, err := Bake(mustParse(t, cubeOBJ()), DefaultBakeOptions())
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}

	if len(baked.Vertices) != 24 {
		t.Errorf("expected 24 distinct vertices, got %d", len(baked.Vertices))
	}
	checkIndices(t, baked, 36)

	for i, v := range baked.Vertices {
		pos, n := voxel.Unpack(v.Packed)
		for _, c := range pos {
			if c != 5 && c != -5 {
				t.Fatalf("vertex %d position %v, want components of +-5", i, pos)
			}
		}
		nx, ny, nz := n.Axes()
		if pos[0]*nx < 0 || pos[1]*ny < 0 || pos[2]*nz < 0 {
			t.Errorf("vertex %d at %v faces inward (%v)", i, pos, n)
		}
	}

	if got := len(baked.VertexBytes()); got != 24*voxel.VertexSize {
		t.Errorf("VertexBytes is %d bytes", got)
	}
	ib := baked.IndexBytes()
	if len(ib) != 36*IndexSize {
		t.Fatalf("IndexBytes is %d bytes", len(ib))
	}
	if ib[2] != byte(baked.Indices[1]) || ib[3] != byte(baked.Indices[1]>>8) {
		t.Errorf("index bytes are not little-endian 16-bit")
	}
}

func TestBakeFirstSeenOrder(t *testing.T) {
	obj := mustParse(t, `v 0 0 0
v 1 0 0
v 1 0 1
v 0 0 1
vt 0.5 0
vn 0 1 0
f 1/1/1 2/1/1 3/1/1 4/1/1
`)
	baked, err := Bake(obj, DefaultBakeOptions())
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	want := []uint16{0, 1, 2, 0, 2, 3}
	for i, w := range want {
		if baked.Indices[i] != w {
			t.Fatalf("indices = %v, want %v", baked.Indices, want)
		}
	}
	pos, n := voxel.Unpack(baked.Vertices[2].Packed)
	if pos != [3]int{10, 0, 10} || n != voxel.PosY {
		t.Errorf("vertex 2 = %v %v", pos, n)
	}
}

func TestBakeTexCoordTolerance(t *testing.T) {
	tests := []struct {
		name  string
		delta float32
		want  int
	}{
		{"within epsilon", 0x1p-25, 1},
		{"beyond epsilon", 0x1p-20, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := &formats.OBJ{
				Positions: [][3]float32{{}, {0.1, 0.2, 0.3}},
				TexCoords: [][2]float32{{}, {0.25, 0}, {0.25 + tt.delta, 0}},
				Normals:   [][3]float32{{}, {0, 0, -1}},
				Indices:   []formats.OBJIndex{{P: 1, T: 1, N: 1}, {P: 1, T: 2, N: 1}, {P: 1, T: 1, N: 1}},
			}
			baked, err := Bake(obj, DefaultBakeOptions())
			if err != nil {
				t.Fatalf("Bake failed: %v", err)
			}
			if len(baked.Vertices) != tt.want {
				t.Errorf("%d vertices, want %d", len(baked.Vertices), tt.want)
			}
			checkIndices(t, baked, 3)
		})
	}
}

func TestBakeRounding(t *testing.T) {
	tests := []struct {
		in    float32
		scale float32
		want  int
		ok    bool
	}{
		{2.5, 1, 3, true},
		{-2.5, 1, -3, true},
		{2.4, 1, 2, true},
		{-2.4, 1, -2, true},
		{0.49, 1, 0, true},
		{-0.49, 1, 0, true},
		{1.6, 10, 16, true},
		{1.7, 10, 0, false},
		{-1.7, 10, 0, false},
		{float32(math.NaN()), 1, 0, false},
		{float32(math.Inf(-1)), 1, 0, false},
		{3e38, 10, 0, false},
	}
	for _, tt := range tests {
		got, ok := Quantize(tt.in, tt.scale, 16)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Quantize(%v, %v, 16) = %d, %v, want %d, %v", tt.in, tt.scale, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBakeErrors(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	base := func() *formats.OBJ {
		return &formats.OBJ{
			Positions: [][3]float32{{}, {0, 0, 0}, {1.6, 0, 0}, {1.7, 0, 0}, {nan, 0, 0}, {0, 0, inf}, {0, 3e38, 0}},
			TexCoords: [][2]float32{{}, {0.5, 0}, {nan, 0}},
			Normals:   [][3]float32{{}, {1, 0, 0}, {1, 1, 0}, {0, 0.5, 0}, {nan, 1, 0}},
		}
	}

	tests := []struct {
		name    string
		corner  formats.OBJIndex
		wantErr error
	}{
		{"position zero", formats.OBJIndex{P: 0, T: 1, N: 1}, ErrMissingPosition},
		{"texcoord zero", formats.OBJIndex{P: 1, T: 0, N: 1}, ErrMissingTexCoord},
		{"normal zero", formats.OBJIndex{P: 1, T: 1, N: 0}, ErrMissingNormal},
		{"negative position", formats.OBJIndex{P: -1, T: 1, N: 1}, ErrMissingPosition},
		{"position past end", formats.OBJIndex{P: 9, T: 1, N: 1}, formats.ErrOBJIndexRange},
		{"out of bound", formats.OBJIndex{P: 3, T: 1, N: 1}, voxel.ErrPositionRange},
		{"nan position", formats.OBJIndex{P: 4, T: 1, N: 1}, voxel.ErrPositionRange},
		{"infinite position", formats.OBJIndex{P: 5, T: 1, N: 1}, voxel.ErrPositionRange},
		{"scale overflow", formats.OBJIndex{P: 6, T: 1, N: 1}, voxel.ErrPositionRange},
		{"nan texcoord", formats.OBJIndex{P: 1, T: 2, N: 1}, ErrBadTexCoord},
		{"diagonal normal", formats.OBJIndex{P: 1, T: 1, N: 2}, voxel.ErrDegenerateNormal},
		{"short normal", formats.OBJIndex{P: 1, T: 1, N: 3}, voxel.ErrDegenerateNormal},
		{"nan normal", formats.OBJIndex{P: 1, T: 1, N: 4}, voxel.ErrDegenerateNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := base()
			good := formats.OBJIndex{P: 2, T: 1, N: 1}
			obj.Indices = []formats.OBJIndex{good, good, tt.corner}
			baked, err := Bake(obj, DefaultBakeOptions())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if baked != nil {
				t.Error("partial result returned")
			}
			if !strings.Contains(err.Error(), "corner 2") {
				t.Errorf("error %q does not name the corner", err)
			}
		})
	}

	if _, err := Bake(&formats.OBJ{}, DefaultBakeOptions()); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

// distinctCorners returns an OBJ whose first n corners all bake to distinct
// vertices.
func distinctCorners(n int) *formats.OBJ {
	obj := &formats.OBJ{
		Positions: [][3]float32{{}},
		TexCoords: [][2]float32{{}},
		Normals:   [][3]float32{{}, {1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}},
	}
	for x := -16; x <= 16; x++ {
		for y := -16; y <= 16; y++ {
			for z := -16; z <= 16; z++ {
				obj.Positions = append(obj.Positions, [3]float32{float32(x), float32(y), float32(z)})
			}
		}
	}
	obj.TexCoords = append(obj.TexCoords, [2]float32{0.5, 0})

	for i := 0; len(obj.Indices) < n; i++ {
		p := i%(len(obj.Positions)-1) + 1
		nrm := i/(len(obj.Positions)-1) + 1
		obj.Indices = append(obj.Indices, formats.OBJIndex{P: p, T: 1, N: nrm})
	}
	return obj
}

func TestBakeVertexLimit(t *testing.T) {
	opts := BakeOptions{Scale: 1, Bound: 16}

	baked, err := Bake(distinctCorners(MaxVertices), opts)
	if err != nil {
		t.Fatalf("Bake at the limit failed: %v", err)
	}
	if len(baked.Vertices) != MaxVertices || baked.Indices[MaxVertices-1] != MaxVertices-1 {
		t.Errorf("%d vertices, last index %d", len(baked.Vertices), baked.Indices[MaxVertices-1])
	}

	if _, err := Bake(distinctCorners(MaxVertices+1), opts); !errors.Is(err, ErrTooManyVertices) {
		t.Errorf("expected ErrTooManyVertices, got %v", err)
	}
}
