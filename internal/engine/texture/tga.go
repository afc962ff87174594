package texture

import (
	"fmt"
	"image"
)

// TGA image types.
const (
	TGATypeUncompressed = 2  // true-color
	TGATypeRLE          = 10 // run-length encoded true-color
)

const tgaHeaderSize = 18

type tgaHeader struct {
	idLength    int
	colorMap    byte
	imageType   byte
	width       int
	height      int
	bpp         int
	topToBottom bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("%w: TGA header", ErrTruncated)
	}
	return tgaHeader{
		idLength:    int(data[0]),
		colorMap:    data[1],
		imageType:   data[2],
		width:       int(data[12]) | int(data[13])<<8,
		height:      int(data[14]) | int(data[15])<<8,
		bpp:         int(data[16]),
		topToBottom: data[17]&0x20 != 0,
	}, nil
}

// DecodeTGA decodes an uncompressed or RLE true-color TGA with 24 or 32 bits
// per pixel. Images without alpha decode as opaque.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}
	if h.colorMap != 0 {
		return nil, fmt.Errorf("%w: color-mapped TGA", ErrUnsupported)
	}
	if h.imageType != TGATypeUncompressed && h.imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: TGA type %d", ErrUnsupported, h.imageType)
	}
	if h.bpp != 24 && h.bpp != 32 {
		return nil, fmt.Errorf("%w: TGA depth %d", ErrUnsupported, h.bpp)
	}
	if h.width == 0 || h.height == 0 {
		return nil, fmt.Errorf("%w: TGA size %dx%d", ErrUnsupported, h.width, h.height)
	}

	offset := tgaHeaderSize + h.idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: TGA id field", ErrTruncated)
	}

	d := tgaDecoder{
		src:   data[offset:],
		img:   image.NewRGBA(image.Rect(0, 0, h.width, h.height)),
		bytes: h.bpp / 8,
		flip:  !h.topToBottom,
	}
	if h.imageType == TGATypeUncompressed {
		err = d.raw(h.width * h.height)
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

// tgaDecoder writes BGR(A) pixels into img in file order.
type tgaDecoder struct {
	src   []byte
	pos   int
	img   *image.RGBA
	bytes int
	flip  bool // rows are stored bottom-up
	n     int  // pixels written
}

func (d *tgaDecoder) total() int {
	b := d.img.Rect
	return b.Dx() * b.Dy()
}

func (d *tgaDecoder) pixel() ([4]byte, error) {
	if d.pos+d.bytes > len(d.src) {
		return [4]byte{}, fmt.Errorf("%w: TGA pixel %d", ErrTruncated, d.n)
	}
	p := d.src[d.pos:]
	px := [4]byte{p[2], p[1], p[0], 0xFF}
	if d.bytes == 4 {
		px[3] = p[3]
	}
	d.pos += d.bytes
	return px, nil
}

func (d *tgaDecoder) put(px [4]byte) {
	w := d.img.Rect.Dx()
	x, y := d.n%w, d.n/w
	if d.flip {
		y = d.img.Rect.Dy() - 1 - y
	}
	i := d.img.PixOffset(x, y)
	copy(d.img.Pix[i:i+4], px[:])
	d.n++
}

func (d *tgaDecoder) raw(count int) error {
	for i := 0; i < count && d.n < d.total(); i++ {
		px, err := d.pixel()
		if err != nil {
			return err
		}
		d.put(px)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	for d.n < d.total() {
		if d.pos >= len(d.src) {
			return fmt.Errorf("%w: TGA packet at pixel %d", ErrTruncated, d.n)
		}
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 == 0 {
			if err := d.raw(count); err != nil {
				return err
			}
			continue
		}

		px, err := d.pixel()
		if err != nil {
			return err
		}
		for i := 0; i < count && d.n < d.total(); i++ {
			d.put(px)
		}
	}
	return nil
}
