// Package gpu defines the staging allocator and device buffer abstraction the
// streaming and mesh baking code is written against.
//
// A backend hands out opaque handles. Staging allocations are CPU-visible and
// must be mapped to be written; device buffers and textures are GPU-resident
// and are only written through a CopyPass.
package gpu

import (
	"errors"
	"fmt"
)

// Backend errors.
var (
	ErrInvalidHandle = errors.New("gpu: invalid handle")
	ErrStillMapped   = errors.New("gpu: staging allocation is still mapped")
	ErrNotMapped     = errors.New("gpu: staging allocation is not mapped")
	ErrOutOfRange    = errors.New("gpu: copy exceeds allocation size")
	ErrPassEnded     = errors.New("gpu: copy pass already ended")
	ErrContentsLost  = errors.New("gpu: staging contents lost since the last write")
)

// Staging identifies a CPU-visible transfer allocation. Zero is no allocation.
type Staging uint32

// Buffer identifies a GPU-resident buffer. Zero is no buffer.
type Buffer uint32

// Texture identifies a GPU-resident 2-D RGBA8 texture. Zero is no texture.
type Texture uint32

// BufferUsage describes how a device buffer will be bound.
type BufferUsage uint32

// Buffer usage flags.
const (
	UsageVertex BufferUsage = 1 << iota
	UsageIndex
	UsageStorage
)

// String returns a readable usage list.
func (u BufferUsage) String() string {
	if u == 0 {
		return "none"
	}
	s := ""
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if u&UsageVertex != 0 {
		add("vertex")
	}
	if u&UsageIndex != 0 {
		add("index")
	}
	if u&UsageStorage != 0 {
		add("storage")
	}
	if rest := u &^ (UsageVertex | UsageIndex | UsageStorage); rest != 0 {
		add(fmt.Sprintf("0x%x", uint32(rest)))
	}
	return s
}

// Backend allocates staging and device memory. Implementations are not safe
// for concurrent use; everything runs on the render thread.
type Backend interface {
	// CreateStaging allocates size bytes of CPU-visible transfer memory.
	// The name is a debug label.
	CreateStaging(size int, name string) (Staging, error)

	// Map returns a writable view of the whole allocation. With discard set
	// the previous contents are undefined afterwards. The view is valid
	// until Unmap.
	Map(s Staging, discard bool) ([]byte, error)

	// Unmap ends the mapping. The allocation may then be used as a copy source.
	Unmap(s Staging)

	// ReleaseStaging frees the allocation. It must not be mapped.
	ReleaseStaging(s Staging)

	CreateBuffer(size int, usage BufferUsage, name string) (Buffer, error)
	ReleaseBuffer(b Buffer)

	CreateTexture(width, height int, name string) (Texture, error)
	ReleaseTexture(t Texture)

	// BeginCopyPass opens a scope in which uploads are recorded.
	BeginCopyPass() (CopyPass, error)
}

// CopyPass records staging to device copies.
type CopyPass interface {
	// UploadBuffer copies size bytes from the start of src to the start of dst.
	// With overwrite set the previous contents of dst need not be preserved.
	UploadBuffer(src Staging, dst Buffer, size int, overwrite bool) error

	// UploadTexture copies width*height RGBA8 texels from src into dst.
	UploadTexture(src Staging, dst Texture, width, height int) error

	// End closes the pass.
	End() error
}
