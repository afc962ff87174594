// Package voxel packs mesh vertices into the 8-byte layout the voxel shader
// consumes: a 32-bit word holding a signed-magnitude position and a face
// normal code, followed by a float32 palette coordinate.
//
// Packed word layout:
//
//	bits  0-6   |x|     bit  7  sign of x
//	bits  8-14  |y|     bit 15  sign of y
//	bits 16-22  |z|     bit 23  sign of z
//	bits 24-26  normal code (0..5)
package voxel

import (
	"errors"
	"fmt"
)

// MaxMagnitude is the largest position magnitude the packed word can hold.
const MaxMagnitude = 127

// Errors returned by packing.
var (
	ErrPositionRange    = errors.New("voxel: position out of range")
	ErrDegenerateNormal = errors.New("voxel: normal must have exactly one non-zero axis")
)

// Normal identifies one of the six axis-aligned face normals.
type Normal uint8

// Face normals in packed code order.
const (
	PosX Normal = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

var normalNames = [...]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

// String returns the axis and sign, e.g. "+Y".
func (n Normal) String() string {
	if int(n) < len(normalNames) {
		return normalNames[n]
	}
	return fmt.Sprintf("Normal(%d)", uint8(n))
}

// Valid reports whether n is one of the six face normals.
func (n Normal) Valid() bool { return n <= NegZ }

// Axes returns the unit vector for n.
func (n Normal) Axes() (x, y, z int) {
	switch n {
	case PosX:
		return 1, 0, 0
	case NegX:
		return -1, 0, 0
	case PosY:
		return 0, 1, 0
	case NegY:
		return 0, -1, 0
	case PosZ:
		return 0, 0, 1
	case NegZ:
		return 0, 0, -1
	}
	return 0, 0, 0
}

// NormalFromAxes maps an axis-aligned normal to its code. Only the sign of the
// non-zero component matters. Zero and diagonal normals are rejected.
func NormalFromAxes(x, y, z int) (Normal, error) {
	nonZero := 0
	for _, c := range [3]int{x, y, z} {
		if c != 0 {
			nonZero++
		}
	}
	if nonZero != 1 {
		return 0, fmt.Errorf("%w: (%d, %d, %d)", ErrDegenerateNormal, x, y, z)
	}

	switch {
	case x > 0:
		return PosX, nil
	case x < 0:
		return NegX, nil
	case y > 0:
		return PosY, nil
	case y < 0:
		return NegY, nil
	case z > 0:
		return PosZ, nil
	default:
		return NegZ, nil
	}
}

// Pack encodes a position and normal into a packed word.
func Pack(x, y, z int, n Normal) (uint32, error) {
	if !n.Valid() {
		return 0, fmt.Errorf("%w: code %d", ErrDegenerateNormal, n)
	}
	var packed uint32
	for i, c := range [3]int{x, y, z} {
		if c < -MaxMagnitude || c > MaxMagnitude {
			return 0, fmt.Errorf("%w: (%d, %d, %d)", ErrPositionRange, x, y, z)
		}
		packed |= packAxis(c) << (8 * i)
	}
	return packed | uint32(n)<<24, nil
}

func packAxis(c int) uint32 {
	if c < 0 {
		return uint32(-c)&0x7F | 0x80
	}
	return uint32(c) & 0x7F
}

// Unpack decodes a packed word.
func Unpack(packed uint32) (pos [3]int, n Normal) {
	for i := range pos {
		b := packed >> (8 * i) & 0xFF
		v := int(b & 0x7F)
		if b&0x80 != 0 {
			v = -v
		}
		pos[i] = v
	}
	return pos, Normal(packed >> 24 & 0x7)
}
