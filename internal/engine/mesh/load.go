package mesh

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/engine/texture"
	"github.com/Faultbox/lilcraft/internal/gpu"
	"github.com/Faultbox/lilcraft/internal/logger"
	"github.com/Faultbox/lilcraft/pkg/formats"
)

// LoadOptions configures asset lookup and baking.
type LoadOptions struct {
	Bake        BakeOptions
	GeometryExt string
	ImageExt    string
}

// DefaultLoadOptions returns obj geometry, png palettes and default baking.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Bake:        DefaultBakeOptions(),
		GeometryExt: "obj",
		ImageExt:    "png",
	}
}

// Asset is a baked mesh resident on the device. It is immutable once loaded.
type Asset struct {
	Name         string
	VertexBuffer gpu.Buffer
	IndexBuffer  gpu.Buffer
	Palette      gpu.Texture
	VertexCount  int
	IndexCount   int
}

// Free releases the asset's device resources.
func (a *Asset) Free(dev gpu.Backend) {
	if a.Palette != 0 {
		dev.ReleaseTexture(a.Palette)
		a.Palette = 0
	}
	if a.IndexBuffer != 0 {
		dev.ReleaseBuffer(a.IndexBuffer)
		a.IndexBuffer = 0
	}
	if a.VertexBuffer != 0 {
		dev.ReleaseBuffer(a.VertexBuffer)
		a.VertexBuffer = 0
	}
}

// Paths returns the geometry and palette files for name in dir.
func (o LoadOptions) Paths(dir, name string) (geometry, image string) {
	return filepath.Join(dir, name+"."+o.GeometryExt), filepath.Join(dir, name+"."+o.ImageExt)
}

// Load reads, bakes and uploads the named asset, recording its copies into
// pass. Both files must exist. On any failure everything created so far is
// released and no asset is returned.
func Load(dev gpu.Backend, pass gpu.CopyPass, dir, name string, opts LoadOptions) (*Asset, error) {
	asset, err := load(dev, pass, dir, name, opts)
	if err != nil {
		logger.Error("failed to load mesh",
			zap.String("mesh", name),
			zap.String("dir", dir),
			zap.Error(err),
		)
		return nil, fmt.Errorf("mesh %s: %w", name, err)
	}

	logger.Info("mesh loaded",
		zap.String("mesh", name),
		zap.Int("vertices", asset.VertexCount),
		zap.Int("indices", asset.IndexCount),
	)
	return asset, nil
}

func load(dev gpu.Backend, pass gpu.CopyPass, dir, name string, opts LoadOptions) (_ *Asset, err error) {
	geomPath, imgPath := opts.Paths(dir, name)

	geomData, err := os.ReadFile(geomPath)
	if err != nil {
		return nil, err
	}
	imgData, err := os.ReadFile(imgPath)
	if err != nil {
		return nil, err
	}

	obj, err := formats.ParseOBJ(geomData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", geomPath, err)
	}
	baked, err := Bake(obj, opts.Bake)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", geomPath, err)
	}
	img, err := texture.Decode(imgData, opts.ImageExt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", imgPath, err)
	}

	asset := &Asset{
		Name:        name,
		VertexCount: len(baked.Vertices),
		IndexCount:  len(baked.Indices),
	}
	defer func() {
		if err != nil {
			asset.Free(dev)
		}
	}()

	asset.VertexBuffer, err = uploadBuffer(dev, pass, baked.VertexBytes(), gpu.UsageVertex, name+".vertices")
	if err != nil {
		return nil, err
	}
	asset.IndexBuffer, err = uploadBuffer(dev, pass, baked.IndexBytes(), gpu.UsageIndex, name+".indices")
	if err != nil {
		return nil, err
	}
	asset.Palette, err = texture.Upload(dev, pass, img, name+".palette")
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// uploadBuffer stages data and records its copy into a device buffer of
// exactly len(data) bytes.
func uploadBuffer(dev gpu.Backend, pass gpu.CopyPass, data []byte, usage gpu.BufferUsage, name string) (gpu.Buffer, error) {
	staging, err := gpu.Stage(dev, data, name)
	if err != nil {
		return 0, err
	}
	defer dev.ReleaseStaging(staging)

	buf, err := dev.CreateBuffer(len(data), usage, name)
	if err != nil {
		return 0, fmt.Errorf("create %s buffer %s: %w", usage, name, err)
	}
	if err := pass.UploadBuffer(staging, buf, len(data), false); err != nil {
		dev.ReleaseBuffer(buf)
		return 0, fmt.Errorf("upload %s: %w", name, err)
	}
	return buf, nil
}
