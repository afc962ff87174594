package voxel

import (
	"encoding/binary"
	"math"
)

// VertexSize is the byte size of one vertex record.
const VertexSize = 8

// TexCoordEpsilon is the tolerance under which two palette coordinates are
// the same. It is the float32 machine epsilon.
const TexCoordEpsilon = 0x1p-23

// Vertex is one packed vertex.
type Vertex struct {
	Packed   uint32
	TexCoord float32
}

// NewVertex packs a position, an axis-aligned normal and a palette coordinate.
func NewVertex(x, y, z, nx, ny, nz int, texCoord float32) (Vertex, error) {
	n, err := NormalFromAxes(nx, ny, nz)
	if err != nil {
		return Vertex{}, err
	}
	packed, err := Pack(x, y, z, n)
	if err != nil {
		return Vertex{}, err
	}
	return Vertex{Packed: packed, TexCoord: texCoord}, nil
}

// Equal reports whether the packed words match and the palette coordinates
// differ by less than TexCoordEpsilon.
func (v Vertex) Equal(o Vertex) bool {
	if v.Packed != o.Packed {
		return false
	}
	d := v.TexCoord - o.TexCoord
	if d < 0 {
		d = -d
	}
	return d < TexCoordEpsilon
}

// AppendBytes appends the little-endian vertex record to b.
func (v Vertex) AppendBytes(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, v.Packed)
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v.TexCoord))
}

// DedupTable maps vertices to output indices under Equal. Entries are bucketed
// by packed word and each bucket is scanned with the tolerance comparison, so
// coordinates that are equal within epsilon always meet.
type DedupTable struct {
	buckets map[uint32][]dedupEntry
	n       int
}

type dedupEntry struct {
	texCoord float32
	index    int
}

// NewDedupTable creates a table sized for about hint vertices.
func NewDedupTable(hint int) *DedupTable {
	return &DedupTable{buckets: make(map[uint32][]dedupEntry, hint)}
}

// Lookup returns the index of the first inserted vertex equal to v.
func (t *DedupTable) Lookup(v Vertex) (int, bool) {
	for _, e := range t.buckets[v.Packed] {
		if v.Equal(Vertex{Packed: v.Packed, TexCoord: e.texCoord}) {
			return e.index, true
		}
	}
	return 0, false
}

// Insert records v at index.
func (t *DedupTable) Insert(v Vertex, index int) {
	if t.buckets == nil {
		t.buckets = make(map[uint32][]dedupEntry)
	}
	t.buckets[v.Packed] = append(t.buckets[v.Packed], dedupEntry{texCoord: v.TexCoord, index: index})
	t.n++
}

// Len returns the number of inserted vertices.
func (t *DedupTable) Len() int { return t.n }
