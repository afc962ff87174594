// Package mesh bakes OBJ geometry into packed voxel vertices with 16-bit
// indices and loads the result, together with its palette texture, onto the
// device.
package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/lilcraft/internal/engine/voxel"
	"github.com/Faultbox/lilcraft/pkg/formats"
)

// MaxVertices is the number of distinct vertices a 16-bit index can address.
const MaxVertices = 1 << 16

// IndexSize is the byte size of one index.
const IndexSize = 2

// Bake errors. Out-of-range positions and bad normals are reported with
// voxel.ErrPositionRange and voxel.ErrDegenerateNormal.
var (
	ErrMissingPosition = errors.New("mesh: face corner has no position")
	ErrMissingTexCoord = errors.New("mesh: face corner has no texture coordinate")
	ErrMissingNormal   = errors.New("mesh: face corner has no normal")
	ErrBadTexCoord     = errors.New("mesh: texture coordinate is not finite")
	ErrTooManyVertices = errors.New("mesh: too many distinct vertices for 16-bit indices")
	ErrEmpty           = errors.New("mesh: no faces")
)

// BakeOptions controls position quantization.
type BakeOptions struct {
	// Scale multiplies positions before rounding to integers.
	Scale float32
	// Bound is the largest magnitude a scaled position component may have.
	Bound int
}

// DefaultBakeOptions returns scale 10 and bound 16.
func DefaultBakeOptions() BakeOptions {
	return BakeOptions{Scale: 10, Bound: 16}
}

// Baked is a deduplicated mesh ready for upload.
type Baked struct {
	Vertices []voxel.Vertex
	Indices  []uint16
}

// VertexBytes returns the vertex records, 8 bytes each.
func (b *Baked) VertexBytes() []byte {
	out := make([]byte, 0, len(b.Vertices)*voxel.VertexSize)
	for _, v := range b.Vertices {
		out = v.AppendBytes(out)
	}
	return out
}

// IndexBytes returns the little-endian 16-bit indices.
func (b *Baked) IndexBytes() []byte {
	out := make([]byte, 0, len(b.Indices)*IndexSize)
	for _, i := range b.Indices {
		out = binary.LittleEndian.AppendUint16(out, i)
	}
	return out
}

// Quantize scales v and rounds to the nearest integer, halves away from zero.
// It reports false when the result falls outside [-bound, bound] or v is not
// finite.
func Quantize(v, scale float32, bound int) (int, bool) {
	// Checked before the int conversion, which is undefined for NaN and
	// out-of-range values.
	q := math.Round(float64(v * scale))
	if !(q >= float64(-bound) && q <= float64(bound)) {
		return 0, false
	}
	return int(q), true
}

// Bake packs every face corner of obj and merges corners that pack to equal
// vertices. The vertex list keeps first-seen order; the index list has one
// entry per corner. Any bad corner fails the whole bake.
func Bake(obj *formats.OBJ, opts BakeOptions) (*Baked, error) {
	if len(obj.Indices) == 0 {
		return nil, ErrEmpty
	}

	baked := &Baked{Indices: make([]uint16, len(obj.Indices))}
	table := voxel.NewDedupTable(len(obj.Indices) / 2)

	for i, c := range obj.Indices {
		v, err := bakeCorner(obj, c, opts)
		if err != nil {
			return nil, fmt.Errorf("corner %d: %w", i, err)
		}

		idx, ok := table.Lookup(v)
		if !ok {
			idx = len(baked.Vertices)
			if idx >= MaxVertices {
				return nil, fmt.Errorf("corner %d: %w", i, ErrTooManyVertices)
			}
			table.Insert(v, idx)
			baked.Vertices = append(baked.Vertices, v)
		}
		baked.Indices[i] = uint16(idx)
	}

	return baked, nil
}

func bakeCorner(obj *formats.OBJ, c formats.OBJIndex, opts BakeOptions) (voxel.Vertex, error) {
	switch {
	case c.P <= 0:
		return voxel.Vertex{}, ErrMissingPosition
	case c.T <= 0:
		return voxel.Vertex{}, ErrMissingTexCoord
	case c.N <= 0:
		return voxel.Vertex{}, ErrMissingNormal
	}
	if c.P >= len(obj.Positions) || c.T >= len(obj.TexCoords) || c.N >= len(obj.Normals) {
		return voxel.Vertex{}, fmt.Errorf("%w: %+v", formats.ErrOBJIndexRange, c)
	}

	p := obj.Positions[c.P]
	var pos [3]int
	for a := range pos {
		q, ok := Quantize(p[a], opts.Scale, opts.Bound)
		if !ok {
			return voxel.Vertex{}, fmt.Errorf("%w: %v scales past bound %d",
				voxel.ErrPositionRange, p, opts.Bound)
		}
		pos[a] = q
	}
	if t := obj.TexCoords[c.T][0]; math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
		return voxel.Vertex{}, fmt.Errorf("%w: %v", ErrBadTexCoord, t)
	}

	// Normal components are truncated, so only axis-aligned unit normals
	// survive.
	n := obj.Normals[c.N]
	for _, v := range n {
		if !(v > -2 && v < 2) {
			return voxel.Vertex{}, fmt.Errorf("%w: %v", voxel.ErrDegenerateNormal, n)
		}
	}
	return voxel.NewVertex(pos[0], pos[1], pos[2],
		int(n[0]), int(n[1]), int(n[2]),
		obj.TexCoords[c.T][0])
}
