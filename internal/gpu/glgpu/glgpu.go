// Package glgpu implements gpu.Backend on OpenGL 4.1 core.
//
// Staging allocations are buffer objects written through MapBufferRange and
// read by CopyBufferSubData. Copies are issued as they are recorded; the GL
// command stream keeps them ordered. All calls must come from the thread that
// owns the context.
package glgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/gpu"
	"github.com/Faultbox/lilcraft/internal/logger"
)

// Error is a GL error code.
type Error uint32

func (e Error) Error() string {
	switch uint32(e) {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("GL error 0x%04X", uint32(e))
	}
}

// check drains the GL error queue and returns the first error, if any.
func check(op, name string) error {
	first := gl.GetError()
	if first == gl.NO_ERROR {
		return nil
	}
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
	}
	return fmt.Errorf("%s %s: %w", op, name, Error(first))
}

type staging struct {
	name   string
	size   int
	mapped bool
	lost   bool // the driver dropped the store on the last unmap
}

// readable reports why s cannot be the source of a copy.
func (s *staging) readable() error {
	switch {
	case s.mapped:
		return gpu.ErrStillMapped
	case s.lost:
		return gpu.ErrContentsLost
	}
	return nil
}

type buffer struct {
	name  string
	size  int
	usage gpu.BufferUsage
}

type texture struct {
	name          string
	width, height int
}

// Device is a gpu.Backend on the current GL context. Handles are GL object
// names.
type Device struct {
	staging  map[gpu.Staging]*staging
	buffers  map[gpu.Buffer]*buffer
	textures map[gpu.Texture]*texture

	log *zap.Logger
}

var _ gpu.Backend = (*Device)(nil)

// New creates a device on the current context. gl.Init must have run.
func New() *Device {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return &Device{
		staging:  make(map[gpu.Staging]*staging),
		buffers:  make(map[gpu.Buffer]*buffer),
		textures: make(map[gpu.Texture]*texture),
		log:      logger.Named("glgpu"),
	}
}

// CreateStaging implements gpu.Backend.
func (d *Device) CreateStaging(size int, name string) (gpu.Staging, error) {
	if size <= 0 {
		return 0, fmt.Errorf("glgpu: staging %q: invalid size %d", name, size)
	}
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.COPY_READ_BUFFER, id)
	gl.BufferData(gl.COPY_READ_BUFFER, size, nil, gl.STREAM_DRAW)
	gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
	if err := check("create staging", name); err != nil {
		gl.DeleteBuffers(1, &id)
		return 0, err
	}
	d.staging[gpu.Staging(id)] = &staging{name: name, size: size}
	return gpu.Staging(id), nil
}

// Map implements gpu.Backend. Discard invalidates the previous contents.
func (d *Device) Map(s gpu.Staging, discard bool) ([]byte, error) {
	st, ok := d.staging[s]
	if !ok {
		return nil, fmt.Errorf("glgpu: map staging %d: %w", s, gpu.ErrInvalidHandle)
	}
	if st.mapped {
		return nil, fmt.Errorf("glgpu: map staging %q: %w", st.name, gpu.ErrStillMapped)
	}

	access := uint32(gl.MAP_WRITE_BIT)
	if discard {
		access |= gl.MAP_INVALIDATE_BUFFER_BIT
	}
	gl.BindBuffer(gl.COPY_READ_BUFFER, uint32(s))
	ptr := gl.MapBufferRange(gl.COPY_READ_BUFFER, 0, st.size, access)
	gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
	if err := check("map staging", st.name); err != nil {
		return nil, err
	}
	if ptr == nil {
		return nil, fmt.Errorf("glgpu: map staging %q: driver returned no mapping", st.name)
	}
	st.mapped = true
	st.lost = false
	return unsafe.Slice((*byte)(ptr), st.size), nil
}

// Unmap implements gpu.Backend.
func (d *Device) Unmap(s gpu.Staging) {
	st, ok := d.staging[s]
	if !ok || !st.mapped {
		d.log.Warn("unmap of unmapped staging buffer", zap.Uint32("handle", uint32(s)))
		return
	}
	gl.BindBuffer(gl.COPY_READ_BUFFER, uint32(s))
	st.lost = !gl.UnmapBuffer(gl.COPY_READ_BUFFER)
	if st.lost {
		// Copies are refused until the next Map rewrites the store.
		d.log.Warn("staging buffer contents lost on unmap", zap.String("buffer", st.name))
	}
	gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
	st.mapped = false
}

// ReleaseStaging implements gpu.Backend.
func (d *Device) ReleaseStaging(s gpu.Staging) {
	st, ok := d.staging[s]
	if !ok {
		d.log.Warn("release of unknown staging buffer", zap.Uint32("handle", uint32(s)))
		return
	}
	if st.mapped {
		d.Unmap(s)
	}
	id := uint32(s)
	gl.DeleteBuffers(1, &id)
	delete(d.staging, s)
}

// CreateBuffer implements gpu.Backend.
func (d *Device) CreateBuffer(size int, usage gpu.BufferUsage, name string) (gpu.Buffer, error) {
	if size <= 0 {
		return 0, fmt.Errorf("glgpu: buffer %q: invalid size %d", name, size)
	}
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, size, nil, gl.STATIC_DRAW)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	if err := check("create buffer", name); err != nil {
		gl.DeleteBuffers(1, &id)
		return 0, err
	}
	d.buffers[gpu.Buffer(id)] = &buffer{name: name, size: size, usage: usage}
	return gpu.Buffer(id), nil
}

// ReleaseBuffer implements gpu.Backend.
func (d *Device) ReleaseBuffer(b gpu.Buffer) {
	if _, ok := d.buffers[b]; !ok {
		d.log.Warn("release of unknown buffer", zap.Uint32("handle", uint32(b)))
		return
	}
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
	delete(d.buffers, b)
}

// CreateTexture implements gpu.Backend. Textures have one level and nearest
// filtering; palettes must not blend between entries.
func (d *Device) CreateTexture(width, height int, name string) (gpu.Texture, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("glgpu: texture %q: invalid size %dx%d", name, width, height)
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := check("create texture", name); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}
	d.textures[gpu.Texture(id)] = &texture{name: name, width: width, height: height}
	return gpu.Texture(id), nil
}

// ReleaseTexture implements gpu.Backend.
func (d *Device) ReleaseTexture(t gpu.Texture) {
	if _, ok := d.textures[t]; !ok {
		d.log.Warn("release of unknown texture", zap.Uint32("handle", uint32(t)))
		return
	}
	id := uint32(t)
	gl.DeleteTextures(1, &id)
	delete(d.textures, t)
}

// BeginCopyPass implements gpu.Backend.
func (d *Device) BeginCopyPass() (gpu.CopyPass, error) {
	return &copyPass{dev: d}, nil
}

// Close releases every object the device still owns.
func (d *Device) Close() {
	if n := len(d.staging) + len(d.buffers) + len(d.textures); n > 0 {
		d.log.Debug("releasing remaining objects",
			zap.Int("staging", len(d.staging)),
			zap.Int("buffers", len(d.buffers)),
			zap.Int("textures", len(d.textures)),
		)
	}
	for s := range d.staging {
		d.ReleaseStaging(s)
	}
	for b := range d.buffers {
		d.ReleaseBuffer(b)
	}
	for t := range d.textures {
		d.ReleaseTexture(t)
	}
}

type copyPass struct {
	dev   *Device
	ended bool
}

func (p *copyPass) UploadBuffer(src gpu.Staging, dst gpu.Buffer, size int, overwrite bool) error {
	if p.ended {
		return gpu.ErrPassEnded
	}
	s, ok := p.dev.staging[src]
	if !ok {
		return fmt.Errorf("glgpu: upload source %d: %w", src, gpu.ErrInvalidHandle)
	}
	b, ok := p.dev.buffers[dst]
	if !ok {
		return fmt.Errorf("glgpu: upload destination %d: %w", dst, gpu.ErrInvalidHandle)
	}
	if err := s.readable(); err != nil {
		return fmt.Errorf("glgpu: upload %q -> %q: %w", s.name, b.name, err)
	}
	if size < 0 || size > s.size || size > b.size {
		return fmt.Errorf("glgpu: upload %q -> %q: %d bytes (src %d, dst %d): %w",
			s.name, b.name, size, s.size, b.size, gpu.ErrOutOfRange)
	}
	if size == 0 {
		return nil
	}

	gl.BindBuffer(gl.COPY_READ_BUFFER, uint32(src))
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, uint32(dst))
	if overwrite {
		// Orphan the old store so the copy does not wait on draws still
		// reading it.
		gl.BufferData(gl.COPY_WRITE_BUFFER, b.size, nil, gl.STATIC_DRAW)
	}
	gl.CopyBufferSubData(gl.COPY_READ_BUFFER, gl.COPY_WRITE_BUFFER, 0, 0, size)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
	return check("upload", b.name)
}

func (p *copyPass) UploadTexture(src gpu.Staging, dst gpu.Texture, width, height int) error {
	if p.ended {
		return gpu.ErrPassEnded
	}
	s, ok := p.dev.staging[src]
	if !ok {
		return fmt.Errorf("glgpu: texture upload source %d: %w", src, gpu.ErrInvalidHandle)
	}
	t, ok := p.dev.textures[dst]
	if !ok {
		return fmt.Errorf("glgpu: texture upload destination %d: %w", dst, gpu.ErrInvalidHandle)
	}
	if err := s.readable(); err != nil {
		return fmt.Errorf("glgpu: texture upload %q -> %q: %w", s.name, t.name, err)
	}
	if width != t.width || height != t.height || width*height*4 > s.size {
		return fmt.Errorf("glgpu: texture upload %q -> %q: %dx%d into %dx%d: %w",
			s.name, t.name, width, height, t.width, t.height, gpu.ErrOutOfRange)
	}

	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, uint32(src))
	gl.BindTexture(gl.TEXTURE_2D, uint32(dst))
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.PtrOffset(0))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindBuffer(gl.PIXEL_UNPACK_BUFFER, 0)
	return check("texture upload", t.name)
}

func (p *copyPass) End() error {
	if p.ended {
		return gpu.ErrPassEnded
	}
	p.ended = true
	return nil
}
