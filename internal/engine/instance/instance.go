// Package instance defines the per-instance record streamed to the GPU for
// instanced mesh draws.
package instance

import (
	"encoding/binary"
	"math"

	lmath "github.com/Faultbox/lilcraft/pkg/math"
)

// Size is the byte size of one Transform record.
const Size = 16

// Transform places one mesh instance: a world position and a rotation about
// +Y in radians.
type Transform struct {
	Position lmath.Vec3
	Rotation float32
}

// Put writes the little-endian record into b, which must hold Size bytes.
func (t Transform) Put(b []byte) {
	_ = b[Size-1]
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(t.Position.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(t.Position.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(t.Position.Z))
	binary.LittleEndian.PutUint32(b[12:], math.Float32bits(t.Rotation))
}

// Bytes returns the record.
func (t Transform) Bytes() []byte {
	b := make([]byte, Size)
	t.Put(b)
	return b
}

// Decode reads a record written by Put.
func Decode(b []byte) Transform {
	_ = b[Size-1]
	return Transform{
		Position: lmath.Vec3{
			X: math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
		},
		Rotation: math.Float32frombits(binary.LittleEndian.Uint32(b[12:])),
	}
}
