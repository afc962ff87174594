// Package renderer draws baked voxel meshes with OpenGL, one instanced draw
// per mesh.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/engine/instance"
	"github.com/Faultbox/lilcraft/internal/engine/mesh"
	"github.com/Faultbox/lilcraft/internal/engine/shader"
	"github.com/Faultbox/lilcraft/internal/engine/stream"
	"github.com/Faultbox/lilcraft/internal/engine/voxel"
	"github.com/Faultbox/lilcraft/internal/logger"
	"github.com/Faultbox/lilcraft/pkg/math"
)

// Attribute locations shared with the voxel shader.
const (
	attribPacked   = 0
	attribTexCoord = 1
	attribPosition = 2
	attribRotation = 3
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	// PositionScale is the factor meshes were baked with.
	PositionScale float32
}

// Stats counts the work of one frame.
type Stats struct {
	DrawCalls int
	Instances int
	Triangles int
}

// Renderer owns the voxel program and vertex array. Buffer and texture
// handles it draws from are GL object names, as glgpu hands them out.
type Renderer struct {
	config   Config
	program  uint32
	vao      uint32
	uniforms map[string]int32
	stats    Stats
}

// New initializes OpenGL and builds the voxel program. The GL context must be
// current.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	r := &Renderer{config: cfg}

	var err error
	r.program, err = shader.CompileProgram(voxelVertexSource, voxelFragmentSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create voxel program: %w", err)
	}
	r.uniforms, err = shader.Uniforms(r.program, "u_view_proj", "u_scale", "u_palette")
	if err != nil {
		gl.DeleteProgram(r.program)
		return nil, err
	}

	gl.GenVertexArrays(1, &r.vao)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.ClearColor(0.55, 0.75, 0.95, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	return r, nil
}

// Close releases the program and vertex array.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin clears the frame and binds the voxel program.
func (r *Renderer) Begin(viewProj math.Mat4) {
	r.stats = Stats{}
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uniforms["u_view_proj"], 1, false, viewProj.Ptr())
	gl.Uniform1f(r.uniforms["u_scale"], r.config.PositionScale)
	gl.Uniform1i(r.uniforms["u_palette"], 0)
	gl.BindVertexArray(r.vao)
}

// Draw draws every instance uploaded to instances with asset. Streams with
// nothing uploaded are skipped.
func (r *Renderer) Draw(asset *mesh.Asset, instances *stream.Buffer) {
	count := instances.Uploaded()
	if count == 0 || instances.Device() == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(asset.VertexBuffer))
	gl.VertexAttribIPointer(attribPacked, 1, gl.UNSIGNED_INT, voxel.VertexSize, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(attribPacked)
	gl.VertexAttribPointer(attribTexCoord, 1, gl.FLOAT, false, voxel.VertexSize, gl.PtrOffset(4))
	gl.EnableVertexAttribArray(attribTexCoord)

	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(instances.Device()))
	gl.VertexAttribPointer(attribPosition, 3, gl.FLOAT, false, instance.Size, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(attribPosition)
	gl.VertexAttribDivisor(attribPosition, 1)
	gl.VertexAttribPointer(attribRotation, 1, gl.FLOAT, false, instance.Size, gl.PtrOffset(12))
	gl.EnableVertexAttribArray(attribRotation)
	gl.VertexAttribDivisor(attribRotation, 1)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(asset.IndexBuffer))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(asset.Palette))

	gl.DrawElementsInstanced(gl.TRIANGLES, int32(asset.IndexCount), gl.UNSIGNED_SHORT, nil, int32(count))

	r.stats.DrawCalls++
	r.stats.Instances += count
	r.stats.Triangles += count * asset.IndexCount / 3
}

// End unbinds frame state.
func (r *Renderer) End() {
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Size returns the viewport size in pixels.
func (r *Renderer) Size() (width, height int) {
	return r.config.Width, r.config.Height
}

// Stats returns the counters of the last frame.
func (r *Renderer) Stats() Stats { return r.stats }
