package texture

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/lilcraft/internal/gpu"
	"github.com/Faultbox/lilcraft/internal/logger"
)

// Upload creates a one-level RGBA8 texture holding img and records its copy
// into pass. Nothing is left allocated on failure.
func Upload(dev gpu.Backend, pass gpu.CopyPass, img *image.RGBA, name string) (gpu.Texture, error) {
	img = ToRGBA(img)
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("texture %s: %w: empty image", name, ErrUnsupported)
	}

	staging, err := gpu.Stage(dev, img.Pix, name)
	if err != nil {
		return 0, fmt.Errorf("texture %s: %w", name, err)
	}
	defer dev.ReleaseStaging(staging)

	tex, err := dev.CreateTexture(w, h, name)
	if err != nil {
		return 0, fmt.Errorf("texture %s: create %dx%d: %w", name, w, h, err)
	}
	if err := pass.UploadTexture(staging, tex, w, h); err != nil {
		dev.ReleaseTexture(tex)
		return 0, fmt.Errorf("texture %s: upload: %w", name, err)
	}

	logger.Debug("texture uploaded",
		zap.String("texture", name),
		zap.Int("width", w),
		zap.Int("height", h),
	)
	return tex, nil
}
