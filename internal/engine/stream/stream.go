// Package stream implements a growable staging buffer of fixed-stride records
// that is flushed to a device buffer once per frame.
//
// Typical frame:
//
//	for _, e := range entities {
//		buf.Append(dev, e.Record())
//	}
//	pass, _ := dev.BeginCopyPass()
//	buf.Upload(dev, pass)
//	pass.End()
//	// bind buf.Device() for drawing
//
// The first Append after an Upload starts a new frame: it remaps the staging
// allocation with discard and resets the record count to zero.
package stream

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/gpu"
	"github.com/Faultbox/lilcraft/internal/logger"
)

// MinCapacity is the record capacity of the first staging allocation.
const MinCapacity = 20

// Buffer stages fixed-stride records in CPU-visible memory and copies them
// into a device buffer on Upload. It owns both allocations exclusively.
type Buffer struct {
	name   string
	usage  gpu.BufferUsage
	stride int

	staging gpu.Staging
	device  gpu.Buffer
	mem     []byte // mapped staging view; nil when unmapped

	size     int
	capacity int
	rebuild  bool
	growths  int
	uploaded int // records held by the device buffer
}

// New creates an empty stream buffer. No memory is allocated until the first
// Append. Panics if stride is not positive.
func New(name string, usage gpu.BufferUsage, stride int) *Buffer {
	if stride <= 0 {
		panic(fmt.Sprintf("stream: buffer %q: stride must be positive, got %d", name, stride))
	}
	return &Buffer{
		name:   name,
		usage:  usage,
		stride: stride,
	}
}

// Name returns the debug name.
func (b *Buffer) Name() string { return b.name }

// Stride returns the record size in bytes.
func (b *Buffer) Stride() int { return b.stride }

// Len returns the number of records staged in the current frame.
func (b *Buffer) Len() int { return b.size }

// Cap returns the number of records the staging allocation can hold.
func (b *Buffer) Cap() int { return b.capacity }

// Mapped reports whether the staging allocation is mapped for writing.
func (b *Buffer) Mapped() bool { return b.mem != nil }

// NeedsRebuild reports whether the next Upload recreates the device buffer.
func (b *Buffer) NeedsRebuild() bool { return b.rebuild }

// Growths returns how many times the staging allocation has been resized.
func (b *Buffer) Growths() int { return b.growths }

// Device returns the device buffer, or zero before the first successful Upload.
func (b *Buffer) Device() gpu.Buffer { return b.device }

// Uploaded returns the number of records the device buffer holds, which is
// the count to draw.
func (b *Buffer) Uploaded() int { return b.uploaded }

// Reset drops the staged records without releasing anything. A frame that
// appends nothing after Reset uploads nothing and draws nothing.
func (b *Buffer) Reset() { b.size = 0 }

// Append copies one record into the staging allocation, growing it when full.
// On failure nothing is committed: the record count, capacity and previously
// staged records are left as they were. Panics if len(record) != Stride().
func (b *Buffer) Append(dev gpu.Backend, record []byte) error {
	if len(record) != b.stride {
		panic(fmt.Sprintf("stream: buffer %q: record is %d bytes, stride is %d", b.name, len(record), b.stride))
	}

	if b.mem == nil && b.staging != 0 {
		mem, err := dev.Map(b.staging, true)
		if err != nil {
			logger.Error("failed to map staging buffer",
				zap.String("buffer", b.name),
				zap.Error(err),
			)
			return fmt.Errorf("stream %s: map staging: %w", b.name, err)
		}
		b.mem = mem
		b.size = 0
	}

	if b.size == b.capacity {
		if err := b.grow(dev); err != nil {
			return err
		}
	}

	copy(b.mem[b.size*b.stride:], record)
	b.size++
	return nil
}

// grow moves the staged records into a new allocation twice as large.
func (b *Buffer) grow(dev gpu.Backend) error {
	capacity := MinCapacity
	if b.size > 0 {
		capacity = b.size * 2
	}

	staging, err := dev.CreateStaging(capacity*b.stride, b.name)
	if err != nil {
		logger.Error("failed to create staging buffer",
			zap.String("buffer", b.name),
			zap.Int("capacity", capacity),
			zap.Error(err),
		)
		return fmt.Errorf("stream %s: create staging for %d records: %w", b.name, capacity, err)
	}

	mem, err := dev.Map(staging, false)
	if err != nil {
		dev.ReleaseStaging(staging)
		logger.Error("failed to map staging buffer",
			zap.String("buffer", b.name),
			zap.Int("capacity", capacity),
			zap.Error(err),
		)
		return fmt.Errorf("stream %s: map new staging: %w", b.name, err)
	}

	if b.staging != 0 {
		if b.mem != nil {
			copy(mem, b.mem[:b.size*b.stride])
			dev.Unmap(b.staging)
		}
		dev.ReleaseStaging(b.staging)
	}

	logger.Debug("stream buffer grown",
		zap.String("buffer", b.name),
		zap.Int("from", b.capacity),
		zap.Int("to", capacity),
	)

	b.staging = staging
	b.mem = mem
	b.capacity = capacity
	b.rebuild = true
	b.growths++
	return nil
}

// Upload unmaps the staging allocation and records a copy of the staged
// records into the device buffer. Call it once per frame after all appends.
// Nothing is recorded when no records are staged. The device buffer is
// recreated here, and only here, when the capacity changed since the last
// successful Upload. On failure the device buffer keeps last frame's contents
// and Uploaded still describes them.
func (b *Buffer) Upload(dev gpu.Backend, pass gpu.CopyPass) error {
	if b.mem != nil {
		dev.Unmap(b.staging)
		b.mem = nil
	}

	if b.size == 0 {
		b.uploaded = 0
		return nil
	}

	target := b.device
	if b.rebuild {
		device, err := dev.CreateBuffer(b.capacity*b.stride, b.usage, b.name)
		if err != nil {
			logger.Error("failed to create device buffer",
				zap.String("buffer", b.name),
				zap.Int("bytes", b.capacity*b.stride),
				zap.Error(err),
			)
			return fmt.Errorf("stream %s: create device buffer: %w", b.name, err)
		}
		target = device
	}

	if err := pass.UploadBuffer(b.staging, target, b.size*b.stride, true); err != nil {
		if target != b.device {
			dev.ReleaseBuffer(target)
		}
		logger.Error("failed to upload stream buffer",
			zap.String("buffer", b.name),
			zap.Int("records", b.size),
			zap.Bool("rebuild", b.rebuild),
			zap.Error(err),
		)
		return fmt.Errorf("stream %s: upload: %w", b.name, err)
	}

	// The old buffer is released only once the new one holds this frame.
	if target != b.device {
		if b.device != 0 {
			dev.ReleaseBuffer(b.device)
		}
		b.device = target
		b.rebuild = false
	}
	b.uploaded = b.size
	return nil
}

// Unmap ends the CPU write without recording a copy, for a frame whose copy
// pass never started. The device buffer and Uploaded are unchanged and the
// next Append starts a new frame.
func (b *Buffer) Unmap(dev gpu.Backend) {
	if b.mem != nil {
		dev.Unmap(b.staging)
		b.mem = nil
	}
}

// Free releases the staging allocation and device buffer. Panics if the
// staging allocation is still mapped; Upload or Unmap must run first.
func (b *Buffer) Free(dev gpu.Backend) {
	if b.mem != nil {
		panic(fmt.Sprintf("stream: buffer %q freed while mapped", b.name))
	}

	if b.staging != 0 {
		dev.ReleaseStaging(b.staging)
		b.staging = 0
	}
	if b.device != 0 {
		dev.ReleaseBuffer(b.device)
		b.device = 0
	}
	b.size = 0
	b.capacity = 0
	b.rebuild = false
	b.uploaded = 0
}
