// Package texture decodes palette images and uploads them as device textures.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Decoding errors.
var (
	ErrUnsupported = errors.New("unsupported image")
	ErrTruncated   = errors.New("truncated image data")
)

// Decode decodes data according to ext ("png", "bmp" or "tga", with or
// without a leading dot, any case) into tightly packed RGBA8.
func Decode(data []byte, ext string) (*image.RGBA, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		img, err = png.Decode(bytes.NewReader(data))
	case "bmp":
		img, err = bmp.Decode(bytes.NewReader(data))
	case "tga":
		img, err = DecodeTGA(data)
	default:
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ext, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA returns img as an *image.RGBA with origin (0, 0) and no row padding.
// An image already in that form is returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(rgba, image.Point{}, img, b, draw.Src, nil)
	return rgba
}
