// Package memgpu implements gpu.Backend in host memory.
//
// It is strict where real drivers are lenient: copying from a mapped staging
// allocation, copying past the end of either side, double release and use of
// unknown handles are all reported. Misuse through calls that cannot return
// an error (Unmap, Release*) is collected in Violations. Discarded mappings and
// overwritten buffer tails are filled with Garbage so code that relies on
// undefined contents shows up in tests.
package memgpu

import (
	"errors"
	"fmt"

	"github.com/Faultbox/lilcraft/internal/gpu"
)

// Garbage is the fill byte for undefined memory.
const Garbage = 0xCD

// ErrInjected is returned by operations armed with FailNext and a nil error.
var ErrInjected = errors.New("memgpu: injected failure")

// Op names an operation that can be made to fail.
type Op int

// Failable operations.
const (
	OpCreateStaging Op = iota
	OpMap
	OpCreateBuffer
	OpCreateTexture
	OpBeginCopyPass
	OpUploadBuffer
	OpUploadTexture
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpCreateStaging:
		return "CreateStaging"
	case OpMap:
		return "Map"
	case OpCreateBuffer:
		return "CreateBuffer"
	case OpCreateTexture:
		return "CreateTexture"
	case OpBeginCopyPass:
		return "BeginCopyPass"
	case OpUploadBuffer:
		return "UploadBuffer"
	case OpUploadTexture:
		return "UploadTexture"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Stats counts calls since the device was created.
type Stats struct {
	StagingCreated   int
	StagingReleased  int
	BuffersCreated   int
	BuffersReleased  int
	TexturesCreated  int
	TexturesReleased int
	Maps             int
	Uploads          int
	UploadedBytes    int
}

type stagingAlloc struct {
	name   string
	data   []byte
	mapped bool
}

type bufferAlloc struct {
	name  string
	usage gpu.BufferUsage
	data  []byte
}

type textureAlloc struct {
	name          string
	width, height int
	data          []byte
}

// Device is an in-memory gpu.Backend.
type Device struct {
	next       uint32
	staging    map[gpu.Staging]*stagingAlloc
	buffers    map[gpu.Buffer]*bufferAlloc
	textures   map[gpu.Texture]*textureAlloc
	faults     map[Op][]error
	stats      Stats
	violations []error
}

var _ gpu.Backend = (*Device)(nil)

// New creates an empty device.
func New() *Device {
	return &Device{
		staging:  make(map[gpu.Staging]*stagingAlloc),
		buffers:  make(map[gpu.Buffer]*bufferAlloc),
		textures: make(map[gpu.Texture]*textureAlloc),
		faults:   make(map[Op][]error),
	}
}

// FailNext arms op to fail on its next call with err, or ErrInjected if err
// is nil. Calls queue up: arming twice fails the next two calls.
func (d *Device) FailNext(op Op, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.faults[op] = append(d.faults[op], err)
}

// FailAfter lets the next n calls of op through and fails the one after with
// err, or ErrInjected if err is nil.
func (d *Device) FailAfter(op Op, n int, err error) {
	for i := 0; i < n; i++ {
		d.faults[op] = append(d.faults[op], nil)
	}
	d.FailNext(op, err)
}

// fault pops the next queued outcome for op; nil entries let a call through.
func (d *Device) fault(op Op) error {
	q := d.faults[op]
	if len(q) == 0 {
		return nil
	}
	d.faults[op] = q[1:]
	return q[0]
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) violate(format string, args ...any) {
	d.violations = append(d.violations, fmt.Errorf(format, args...))
}

// CreateStaging implements gpu.Backend.
func (d *Device) CreateStaging(size int, name string) (gpu.Staging, error) {
	if err := d.fault(OpCreateStaging); err != nil {
		return 0, err
	}
	if size <= 0 {
		return 0, fmt.Errorf("memgpu: staging %q: invalid size %d", name, size)
	}
	h := gpu.Staging(d.handle())
	d.staging[h] = &stagingAlloc{name: name, data: make([]byte, size)}
	d.stats.StagingCreated++
	return h, nil
}

// Map implements gpu.Backend.
func (d *Device) Map(s gpu.Staging, discard bool) ([]byte, error) {
	a, ok := d.staging[s]
	if !ok {
		return nil, fmt.Errorf("memgpu: map staging %d: %w", s, gpu.ErrInvalidHandle)
	}
	if a.mapped {
		return nil, fmt.Errorf("memgpu: map staging %q: %w", a.name, gpu.ErrStillMapped)
	}
	if err := d.fault(OpMap); err != nil {
		return nil, err
	}
	if discard {
		fill(a.data, Garbage)
	}
	a.mapped = true
	d.stats.Maps++
	return a.data, nil
}

// Unmap implements gpu.Backend.
func (d *Device) Unmap(s gpu.Staging) {
	a, ok := d.staging[s]
	if !ok {
		d.violate("unmap staging %d: %w", s, gpu.ErrInvalidHandle)
		return
	}
	if !a.mapped {
		d.violate("unmap staging %q: %w", a.name, gpu.ErrNotMapped)
		return
	}
	a.mapped = false
}

// ReleaseStaging implements gpu.Backend.
func (d *Device) ReleaseStaging(s gpu.Staging) {
	a, ok := d.staging[s]
	if !ok {
		d.violate("release staging %d: %w", s, gpu.ErrInvalidHandle)
		return
	}
	if a.mapped {
		d.violate("release staging %q: %w", a.name, gpu.ErrStillMapped)
	}
	delete(d.staging, s)
	d.stats.StagingReleased++
}

// CreateBuffer implements gpu.Backend.
func (d *Device) CreateBuffer(size int, usage gpu.BufferUsage, name string) (gpu.Buffer, error) {
	if err := d.fault(OpCreateBuffer); err != nil {
		return 0, err
	}
	if size <= 0 {
		return 0, fmt.Errorf("memgpu: buffer %q: invalid size %d", name, size)
	}
	h := gpu.Buffer(d.handle())
	d.buffers[h] = &bufferAlloc{name: name, usage: usage, data: make([]byte, size)}
	d.stats.BuffersCreated++
	return h, nil
}

// ReleaseBuffer implements gpu.Backend.
func (d *Device) ReleaseBuffer(b gpu.Buffer) {
	if _, ok := d.buffers[b]; !ok {
		d.violate("release buffer %d: %w", b, gpu.ErrInvalidHandle)
		return
	}
	delete(d.buffers, b)
	d.stats.BuffersReleased++
}

// CreateTexture implements gpu.Backend.
func (d *Device) CreateTexture(width, height int, name string) (gpu.Texture, error) {
	if err := d.fault(OpCreateTexture); err != nil {
		return 0, err
	}
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("memgpu: texture %q: invalid size %dx%d", name, width, height)
	}
	h := gpu.Texture(d.handle())
	d.textures[h] = &textureAlloc{name: name, width: width, height: height, data: make([]byte, width*height*4)}
	d.stats.TexturesCreated++
	return h, nil
}

// ReleaseTexture implements gpu.Backend.
func (d *Device) ReleaseTexture(t gpu.Texture) {
	if _, ok := d.textures[t]; !ok {
		d.violate("release texture %d: %w", t, gpu.ErrInvalidHandle)
		return
	}
	delete(d.textures, t)
	d.stats.TexturesReleased++
}

// BeginCopyPass implements gpu.Backend. Copies execute as they are recorded.
func (d *Device) BeginCopyPass() (gpu.CopyPass, error) {
	if err := d.fault(OpBeginCopyPass); err != nil {
		return nil, err
	}
	return &copyPass{dev: d}, nil
}

type copyPass struct {
	dev   *Device
	ended bool
}

func (p *copyPass) UploadBuffer(src gpu.Staging, dst gpu.Buffer, size int, overwrite bool) error {
	d := p.dev
	if p.ended {
		return gpu.ErrPassEnded
	}
	s, ok := d.staging[src]
	if !ok {
		return fmt.Errorf("memgpu: upload source %d: %w", src, gpu.ErrInvalidHandle)
	}
	b, ok := d.buffers[dst]
	if !ok {
		return fmt.Errorf("memgpu: upload destination %d: %w", dst, gpu.ErrInvalidHandle)
	}
	if s.mapped {
		return fmt.Errorf("memgpu: upload %q -> %q: %w", s.name, b.name, gpu.ErrStillMapped)
	}
	if size < 0 || size > len(s.data) || size > len(b.data) {
		return fmt.Errorf("memgpu: upload %q -> %q: %d bytes (src %d, dst %d): %w",
			s.name, b.name, size, len(s.data), len(b.data), gpu.ErrOutOfRange)
	}
	if err := d.fault(OpUploadBuffer); err != nil {
		return err
	}
	copy(b.data, s.data[:size])
	if overwrite {
		fill(b.data[size:], Garbage)
	}
	d.stats.Uploads++
	d.stats.UploadedBytes += size
	return nil
}

func (p *copyPass) UploadTexture(src gpu.Staging, dst gpu.Texture, width, height int) error {
	d := p.dev
	if p.ended {
		return gpu.ErrPassEnded
	}
	s, ok := d.staging[src]
	if !ok {
		return fmt.Errorf("memgpu: texture upload source %d: %w", src, gpu.ErrInvalidHandle)
	}
	t, ok := d.textures[dst]
	if !ok {
		return fmt.Errorf("memgpu: texture upload destination %d: %w", dst, gpu.ErrInvalidHandle)
	}
	if s.mapped {
		return fmt.Errorf("memgpu: texture upload %q -> %q: %w", s.name, t.name, gpu.ErrStillMapped)
	}
	size := width * height * 4
	if width != t.width || height != t.height || size > len(s.data) {
		return fmt.Errorf("memgpu: texture upload %q -> %q: %dx%d into %dx%d: %w",
			s.name, t.name, width, height, t.width, t.height, gpu.ErrOutOfRange)
	}
	if err := d.fault(OpUploadTexture); err != nil {
		return err
	}
	copy(t.data, s.data[:size])
	d.stats.Uploads++
	d.stats.UploadedBytes += size
	return nil
}

func (p *copyPass) End() error {
	if p.ended {
		return gpu.ErrPassEnded
	}
	p.ended = true
	return nil
}

// BufferData returns the contents of a device buffer.
func (d *Device) BufferData(b gpu.Buffer) ([]byte, bool) {
	a, ok := d.buffers[b]
	if !ok {
		return nil, false
	}
	return a.data, true
}

// BufferUsage returns the usage a device buffer was created with.
func (d *Device) BufferUsage(b gpu.Buffer) gpu.BufferUsage {
	if a, ok := d.buffers[b]; ok {
		return a.usage
	}
	return 0
}

// TextureData returns the texels and size of a texture.
func (d *Device) TextureData(t gpu.Texture) (data []byte, width, height int, ok bool) {
	a, ok := d.textures[t]
	if !ok {
		return nil, 0, 0, false
	}
	return a.data, a.width, a.height, true
}

// StagingData returns the bytes of a staging allocation regardless of mapping.
func (d *Device) StagingData(s gpu.Staging) ([]byte, bool) {
	a, ok := d.staging[s]
	if !ok {
		return nil, false
	}
	return a.data, true
}

// Mapped reports whether s is currently mapped.
func (d *Device) Mapped(s gpu.Staging) bool {
	a, ok := d.staging[s]
	return ok && a.mapped
}

// LiveStaging returns the number of unreleased staging allocations.
func (d *Device) LiveStaging() int { return len(d.staging) }

// LiveBuffers returns the number of unreleased device buffers.
func (d *Device) LiveBuffers() int { return len(d.buffers) }

// LiveTextures returns the number of unreleased textures.
func (d *Device) LiveTextures() int { return len(d.textures) }

// Stats returns call counters.
func (d *Device) Stats() Stats { return d.stats }

// Violations returns misuse recorded by calls without an error result.
func (d *Device) Violations() []error { return d.violations }

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
