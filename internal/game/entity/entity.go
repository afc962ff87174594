// Package entity implements world entities. Each entity carries a Kind tag
// that selects its Variant, the kind-specific state and behavior.
package entity

import (
	"errors"
	"fmt"

	"github.com/Faultbox/lilcraft/internal/engine/instance"
	"github.com/Faultbox/lilcraft/pkg/math"
)

// NullUUID marks an entity that has never been stored.
const NullUUID int64 = -1

// Entity errors.
var (
	ErrUnknownKind = errors.New("unknown entity kind")
	ErrBadArgs     = errors.New("bad entity arguments")
)

// Kind tags the variant of an entity.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindItem
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindItem:
		return "item"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Variant is the kind-specific part of an entity.
type Variant interface {
	// Initialize sets up the variant from creation arguments; nil means
	// defaults.
	Initialize(args any) error
	// Encode writes or reads the variant's persistent fields.
	Encode(b *Blob)
	// Mesh names the mesh the entity is drawn with.
	Mesh() string
}

// Entity is a positioned object in the world.
type Entity struct {
	UUID     int64
	Kind     Kind
	Position math.Vec3
	Rotation float32 // radians about +Y
	Variant  Variant
}

// New creates an entity of kind at the origin, initializing its variant with
// args.
func New(kind Kind, args any) (*Entity, error) {
	var v Variant
	switch kind {
	case KindPlayer:
		v = &Mob{}
	case KindItem:
		v = &ItemDrop{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	if err := v.Initialize(args); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", kind, err)
	}
	return &Entity{
		UUID:    NullUUID,
		Kind:    kind,
		Variant: v,
	}, nil
}

// Encode runs the position and then the variant through b. Rotation is not
// persisted.
func (e *Entity) Encode(b *Blob) {
	b.Float32(&e.Position.X)
	b.Float32(&e.Position.Y)
	b.Float32(&e.Position.Z)
	e.Variant.Encode(b)
}

// Marshal returns the encoded entity.
func Marshal(e *Entity) ([]byte, error) {
	b := NewWriter()
	e.Encode(b)
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", e.Kind, err)
	}
	return b.Bytes(), nil
}

// Unmarshal creates an entity of kind from data written by Marshal.
func Unmarshal(kind Kind, data []byte) (*Entity, error) {
	e, err := New(kind, nil)
	if err != nil {
		return nil, err
	}
	b := NewReader(data)
	e.Encode(b)
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind, err)
	}
	return e, nil
}

// Mesh returns the mesh the entity is drawn with.
func (e *Entity) Mesh() string {
	return e.Variant.Mesh()
}

// Transform returns the instance record for drawing the entity.
func (e *Entity) Transform() instance.Transform {
	return instance.Transform{Position: e.Position, Rotation: e.Rotation}
}

// SetPosition sets the entity position.
func (e *Entity) SetPosition(x, y, z float32) {
	e.Position = math.Vec3{X: x, Y: y, Z: z}
}
