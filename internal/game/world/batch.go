package world

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/engine/instance"
	"github.com/Faultbox/lilcraft/internal/engine/stream"
	"github.com/Faultbox/lilcraft/internal/gpu"
	"github.com/Faultbox/lilcraft/internal/logger"
)

// BatchStats counts the work of one Build or Upload.
type BatchStats struct {
	Instances int // records appended
	Skipped   int // tiles and entities whose mesh has no stream
	Failed    int // appends or uploads that returned an error
}

// Batches holds one instance stream per mesh.
type Batches struct {
	streams map[string]*stream.Buffer
	names   []string
	warned  map[string]bool
	record  [instance.Size]byte
}

// NewBatches creates an empty stream for each mesh name.
func NewBatches(meshes []string) *Batches {
	b := &Batches{
		streams: make(map[string]*stream.Buffer, len(meshes)),
		warned:  make(map[string]bool),
	}
	for _, name := range meshes {
		if _, ok := b.streams[name]; ok {
			continue
		}
		b.streams[name] = stream.New("instances:"+name, gpu.UsageVertex, instance.Size)
		b.names = append(b.names, name)
	}
	sort.Strings(b.names)
	return b
}

// Stream returns the instance stream for mesh.
func (b *Batches) Stream(mesh string) (*stream.Buffer, bool) {
	s, ok := b.streams[mesh]
	return s, ok
}

// Names returns the mesh names in sorted order.
func (b *Batches) Names() []string { return b.names }

// Build resets every stream and appends one record per tile and entity of w.
// A failed append is counted and the rest of the frame is still built.
func (b *Batches) Build(dev gpu.Backend, w *World) BatchStats {
	var st BatchStats
	for _, s := range b.streams {
		s.Reset()
	}

	for _, t := range w.Tiles() {
		b.append(dev, t.Mesh, t.Transform(), &st)
	}
	for _, e := range w.Entities() {
		b.append(dev, e.Mesh(), e.Transform(), &st)
	}
	return st
}

func (b *Batches) append(dev gpu.Backend, mesh string, t instance.Transform, st *BatchStats) {
	s, ok := b.streams[mesh]
	if !ok {
		st.Skipped++
		if !b.warned[mesh] {
			b.warned[mesh] = true
			logger.Warn("no stream for mesh, skipping its instances", zap.String("mesh", mesh))
		}
		return
	}
	t.Put(b.record[:])
	if err := s.Append(dev, b.record[:]); err != nil {
		st.Failed++
		return
	}
	st.Instances++
}

// Upload records every stream's copy into pass. A stream that fails keeps
// last frame's device contents and the others still upload.
func (b *Batches) Upload(dev gpu.Backend, pass gpu.CopyPass) BatchStats {
	var st BatchStats
	for _, name := range b.names {
		s := b.streams[name]
		if err := s.Upload(dev, pass); err != nil {
			st.Failed++
			continue
		}
		st.Instances += s.Uploaded()
	}
	return st
}

// Unmap ends every stream's CPU write without uploading. Use it when the
// copy pass for a built frame could not be started.
func (b *Batches) Unmap(dev gpu.Backend) {
	for _, s := range b.streams {
		s.Unmap(dev)
	}
}

// Each calls fn for every stream in name order.
func (b *Batches) Each(fn func(mesh string, s *stream.Buffer)) {
	for _, name := range b.names {
		fn(name, b.streams[name])
	}
}

// Free releases every stream. Upload or Unmap must have run since the last
// Build.
func (b *Batches) Free(dev gpu.Backend) {
	for _, s := range b.streams {
		s.Free(dev)
	}
}
