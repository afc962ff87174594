package entity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrBlobOverrun is returned when a reader runs past the end of its data.
var ErrBlobOverrun = errors.New("blob: read past end")

// Blob is a symmetric little-endian codec. The same sequence of calls writes
// fields when the blob is a writer and reads them back into the same
// variables when it is a reader, so one Encode method serves both ways.
// The first failure sticks: later calls do nothing and Err reports it.
type Blob struct {
	writer bool
	data   []byte
	off    int
	err    error
}

// NewWriter returns an empty writing blob.
func NewWriter() *Blob {
	return &Blob{writer: true}
}

// NewReader returns a blob reading data.
func NewReader(data []byte) *Blob {
	return &Blob{data: data}
}

// Writing reports whether b is a writer.
func (b *Blob) Writing() bool { return b.writer }

// Err returns the first failure.
func (b *Blob) Err() error { return b.err }

// Bytes returns the written data.
func (b *Blob) Bytes() []byte { return b.data }

// Remaining returns the number of unread bytes of a reader.
func (b *Blob) Remaining() int { return len(b.data) - b.off }

// Raw transfers len(p) bytes.
func (b *Blob) Raw(p []byte) {
	if b.err != nil {
		return
	}
	if b.writer {
		b.data = append(b.data, p...)
		return
	}
	if b.Remaining() < len(p) {
		b.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBlobOverrun, len(p), b.off, b.Remaining())
		return
	}
	copy(p, b.data[b.off:])
	b.off += len(p)
}

// Uint32 transfers *v.
func (b *Blob) Uint32(v *uint32) {
	var buf [4]byte
	if b.writer {
		binary.LittleEndian.PutUint32(buf[:], *v)
	}
	b.Raw(buf[:])
	if !b.writer && b.err == nil {
		*v = binary.LittleEndian.Uint32(buf[:])
	}
}

// Int32 transfers *v.
func (b *Blob) Int32(v *int32) {
	u := uint32(*v)
	b.Uint32(&u)
	*v = int32(u)
}

// Float32 transfers *v.
func (b *Blob) Float32(v *float32) {
	u := math.Float32bits(*v)
	b.Uint32(&u)
	*v = math.Float32frombits(u)
}
