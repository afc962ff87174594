package formats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// quadOBJ is one unit quad facing +Y with two palette coordinates.
const quadOBJ = `# quad
o quad
v -0.5 0 -0.5
v 0.5 0 -0.5
v 0.5 0 0.5
v -0.5 0 0.5
vt 0.25 0
vt 0.75 0 0
vn 0 1 0
usemtl palette
s off
f 1/1/1 2/1/1 3/2/1 4/2/1
`

func TestParseOBJ_Quad(t *testing.T) {
	obj, err := ParseOBJ([]byte(quadOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if len(obj.Positions) != 5 || len(obj.TexCoords) != 3 || len(obj.Normals) != 2 {
		t.Fatalf("attribute counts: %d positions, %d texcoords, %d normals",
			len(obj.Positions), len(obj.TexCoords), len(obj.Normals))
	}
	if obj.Positions[0] != [3]float32{} {
		t.Errorf("placeholder position = %v, want zero", obj.Positions[0])
	}
	if obj.Faces != 1 {
		t.Errorf("expected 1 face, got %d", obj.Faces)
	}
	if obj.TriangleCount() != 2 {
		t.Fatalf("expected 2 triangles, got %d", obj.TriangleCount())
	}

	want := []OBJIndex{
		{1, 1, 1}, {2, 1, 1}, {3, 2, 1},
		{1, 1, 1}, {3, 2, 1}, {4, 2, 1},
	}
	for i, w := range want {
		if obj.Indices[i] != w {
			t.Errorf("corner %d = %+v, want %+v", i, obj.Indices[i], w)
		}
	}

	if got := obj.Positions[3]; got != [3]float32{0.5, 0, 0.5} {
		t.Errorf("position 3 = %v", got)
	}
	if got := obj.TexCoords[2]; got != [2]float32{0.75, 0} {
		t.Errorf("texcoord 2 = %v", got)
	}
}

func TestParseOBJ_CornerForms(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0.5 0.5
vn 0 0 1
f 1 2 3
f 1/1 2/1 3/1
f 1//1 2//1 3//1
f -3/-1/-1 -2/-1/-1 -1/-1/-1
`
	obj, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	tests := []struct {
		corner int
		want   OBJIndex
	}{
		{0, OBJIndex{1, 0, 0}},
		{3, OBJIndex{1, 1, 0}},
		{6, OBJIndex{1, 0, 1}},
		{9, OBJIndex{1, 1, 1}},
		{11, OBJIndex{3, 1, 1}},
	}
	for _, tt := range tests {
		if got := obj.Indices[tt.corner]; got != tt.want {
			t.Errorf("corner %d = %+v, want %+v", tt.corner, got, tt.want)
		}
	}
}

func TestParseOBJ_ForwardReference(t *testing.T) {
	src := `vn 0 0 1
f 1/1/1 2/1/1 3/1/1
v 0 0 0
v 1 0 0
v 0 1 0
vt 0.5 0
`
	obj, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if len(obj.Indices) != 3 || obj.Indices[2] != (OBJIndex{3, 1, 1}) {
		t.Errorf("indices = %+v", obj.Indices)
	}
	if obj.Positions[3] != [3]float32{0, 1, 0} {
		t.Errorf("position 3 = %v", obj.Positions[3])
	}
}

func TestParseOBJ_ZeroReferenceKept(t *testing.T) {
	// A zero reference is not an OBJ syntax error; it means "unset" and is
	// rejected when the mesh is baked.
	obj, err := ParseOBJ([]byte("v 0 0 0\nvt 0 0\nvn 1 0 0\nf 0/1/1 1/1/1 1/1/1\n"))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if obj.Indices[0].P != 0 {
		t.Errorf("expected position 0, got %d", obj.Indices[0].P)
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
		line    string
	}{
		{"two corners", "v 0 0 0\nv 1 1 1\nf 1 2\n", ErrOBJFaceTooSmall, "line 3"},
		{"forward reference past end", "v 0 0 0\nf 1 2 3\nv 1 0 0\n", ErrOBJIndexRange, "line 2"},
		{"texcoord past end", "v 0 0 0\nvt 0 0\nf 1/1 1/1 1/1\nf 1/2 1/1 1/1\n", ErrOBJIndexRange, "line 4"},
		{"nan position", "v nan 0 0\n", ErrOBJSyntax, "line 1"},
		{"infinite texcoord", "vt inf\n", ErrOBJSyntax, "line 1"},
		{"infinite normal", "vn 0 -Inf 0\n", ErrOBJSyntax, "line 1"},
		{"float32 overflow", "v 1e39 0 0\n", ErrOBJSyntax, "line 1"},
		{"negative past start", "v 0 0 0\nf -1 -2 -1\n", ErrOBJIndexRange, "line 2"},
		{"bad float", "v 0 zero 0\n", ErrOBJSyntax, "line 1"},
		{"short vertex", "v 0 0\n", ErrOBJSyntax, "line 1"},
		{"bad reference", "v 0 0 0\nf 1/x/1 1 1\n", ErrOBJSyntax, "line 2"},
		{"too many slashes", "v 0 0 0\nf 1/1/1/1 1 1\n", ErrOBJSyntax, "line 2"},
		{"missing position", "v 0 0 0\nvn 0 1 0\nf //1 1//1 1//1\n", ErrOBJSyntax, "line 3"},
		{"normal out of range", "v 0 0 0\nvn 0 1 0\nf 1//2 1//1 1//1\n", ErrOBJIndexRange, "line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.src))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q does not name %s", err, tt.line)
			}
		})
	}
}

func TestParseOBJ_Empty(t *testing.T) {
	obj, err := ParseOBJ(nil)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if obj.TriangleCount() != 0 || len(obj.Positions) != 1 {
		t.Errorf("unexpected content: %+v", obj)
	}
}

func TestParseOBJFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}
	obj, err := ParseOBJFile(path)
	if err != nil {
		t.Fatalf("ParseOBJFile failed: %v", err)
	}
	if obj.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", obj.TriangleCount())
	}

	if _, err := ParseOBJFile(filepath.Join(t.TempDir(), "missing.obj")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
