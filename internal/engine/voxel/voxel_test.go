package voxel

import (
	"bytes"
	"errors"
	"testing"
)

var allNormals = []Normal{PosX, NegX, PosY, NegY, PosZ, NegZ}

func TestPackRoundTrip(t *testing.T) {
	for _, n := range allNormals {
		for x := -16; x <= 16; x++ {
			for y := -16; y <= 16; y++ {
				for z := -16; z <= 16; z++ {
					packed, err := Pack(x, y, z, n)
					if err != nil {
						t.Fatalf("Pack(%d, %d, %d, %v): %v", x, y, z, n, err)
					}
					if packed>>27 != 0 {
						t.Fatalf("Pack(%d, %d, %d, %v) = %#x uses bits above 26", x, y, z, n, packed)
					}
					pos, got := Unpack(packed)
					if pos != [3]int{x, y, z} || got != n {
						t.Fatalf("Unpack(Pack(%d, %d, %d, %v)) = %v, %v", x, y, z, n, pos, got)
					}
				}
			}
		}
	}
}

func TestPackLayout(t *testing.T) {
	tests := []struct {
		x, y, z int
		n       Normal
		want    uint32
	}{
		{0, 0, 0, PosX, 0x00000000},
		{1, 2, 3, PosX, 0x00030201},
		{-1, 0, 0, NegX, 0x01000081},
		{0, -5, 0, NegY, 0x03008500},
		{127, -127, 0, NegZ, 0x0500FF7F},
		{0, 0, 16, PosZ, 0x04100000},
	}
	for _, tt := range tests {
		got, err := Pack(tt.x, tt.y, tt.z, tt.n)
		if err != nil {
			t.Errorf("Pack(%d, %d, %d, %v): %v", tt.x, tt.y, tt.z, tt.n, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Pack(%d, %d, %d, %v) = %#08x, want %#08x", tt.x, tt.y, tt.z, tt.n, got, tt.want)
		}
	}
}

func TestPackRange(t *testing.T) {
	for _, pos := range [][3]int{{128, 0, 0}, {0, -128, 0}, {0, 0, 200}} {
		if _, err := Pack(pos[0], pos[1], pos[2], PosY); !errors.Is(err, ErrPositionRange) {
			t.Errorf("Pack(%v): expected ErrPositionRange, got %v", pos, err)
		}
	}
	if _, err := Pack(0, 0, 0, Normal(6)); !errors.Is(err, ErrDegenerateNormal) {
		t.Errorf("expected ErrDegenerateNormal for code 6, got %v", err)
	}
}

func TestNormalFromAxes(t *testing.T) {
	tests := []struct {
		x, y, z int
		want    Normal
		wantErr bool
	}{
		{1, 0, 0, PosX, false},
		{-1, 0, 0, NegX, false},
		{0, 3, 0, PosY, false},
		{0, -1, 0, NegY, false},
		{0, 0, 1, PosZ, false},
		{0, 0, -2, NegZ, false},
		{0, 0, 0, 0, true},
		{1, 1, 0, 0, true},
		{0, -1, 1, 0, true},
		{1, 1, 1, 0, true},
	}
	for _, tt := range tests {
		got, err := NormalFromAxes(tt.x, tt.y, tt.z)
		if tt.wantErr {
			if !errors.Is(err, ErrDegenerateNormal) {
				t.Errorf("NormalFromAxes(%d, %d, %d): expected ErrDegenerateNormal, got %v", tt.x, tt.y, tt.z, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalFromAxes(%d, %d, %d) = %v, %v; want %v", tt.x, tt.y, tt.z, got, err, tt.want)
		}
		if x, y, z := got.Axes(); (x != 0) != (tt.x != 0) || (y != 0) != (tt.y != 0) || (z != 0) != (tt.z != 0) {
			t.Errorf("%v.Axes() = %d, %d, %d", got, x, y, z)
		}
	}
}

func TestNormalString(t *testing.T) {
	if PosY.String() != "+Y" || NegZ.String() != "-Z" {
		t.Errorf("got %s, %s", PosY, NegZ)
	}
	if Normal(9).String() != "Normal(9)" {
		t.Errorf("got %s", Normal(9))
	}
}

func TestVertexEqual(t *testing.T) {
	base := Vertex{Packed: 0x02030201, TexCoord: 0.5}

	tests := []struct {
		name string
		o    Vertex
		want bool
	}{
		{"identical", base, true},
		{"within epsilon", Vertex{Packed: base.Packed, TexCoord: 0.5 + 0x1p-24}, true},
		{"beyond epsilon", Vertex{Packed: base.Packed, TexCoord: 0.5 + 0x1p-21}, false},
		{"different packed", Vertex{Packed: base.Packed + 1, TexCoord: 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.o); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
			if got := tt.o.Equal(base); got != tt.want {
				t.Errorf("Equal is not symmetric")
			}
		})
	}
}

func TestVertexBytes(t *testing.T) {
	v := Vertex{Packed: 0x04100000, TexCoord: 1}
	got := v.AppendBytes(nil)
	want := []byte{0x00, 0x00, 0x10, 0x04, 0x00, 0x00, 0x80, 0x3F}
	if !bytes.Equal(got, want) {
		t.Errorf("AppendBytes = % x, want % x", got, want)
	}
	if len(got) != VertexSize {
		t.Errorf("len = %d, want %d", len(got), VertexSize)
	}
}

func TestDedupTable(t *testing.T) {
	tab := NewDedupTable(4)
	a := Vertex{Packed: 7, TexCoord: 0.25}
	tab.Insert(a, 0)

	if idx, ok := tab.Lookup(Vertex{Packed: 7, TexCoord: 0.25 + 0x1p-25}); !ok || idx != 0 {
		t.Errorf("near-equal lookup = %d, %v; want 0, true", idx, ok)
	}
	if _, ok := tab.Lookup(Vertex{Packed: 7, TexCoord: 0.75}); ok {
		t.Error("distinct coordinate matched")
	}
	if _, ok := tab.Lookup(Vertex{Packed: 8, TexCoord: 0.25}); ok {
		t.Error("distinct packed word matched")
	}

	tab.Insert(Vertex{Packed: 7, TexCoord: 0.75}, 1)
	if idx, ok := tab.Lookup(Vertex{Packed: 7, TexCoord: 0.75}); !ok || idx != 1 {
		t.Errorf("second entry lookup = %d, %v", idx, ok)
	}
	if tab.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tab.Len())
	}

	var zero DedupTable
	if _, ok := zero.Lookup(a); ok {
		t.Error("empty table matched")
	}
	zero.Insert(a, 3)
	if idx, _ := zero.Lookup(a); idx != 3 {
		t.Errorf("zero-value table lookup = %d", idx)
	}
}

func TestNewVertex(t *testing.T) {
	v, err := NewVertex(-3, 4, 0, 0, -1, 0, 0.125)
	if err != nil {
		t.Fatalf("NewVertex: %v", err)
	}
	pos, n := Unpack(v.Packed)
	if pos != [3]int{-3, 4, 0} || n != NegY || v.TexCoord != 0.125 {
		t.Errorf("got %v %v %v", pos, n, v.TexCoord)
	}

	if _, err := NewVertex(0, 0, 0, 1, 0, 1, 0); !errors.Is(err, ErrDegenerateNormal) {
		t.Errorf("expected ErrDegenerateNormal, got %v", err)
	}
}
