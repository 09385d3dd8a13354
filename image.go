package mosaic

import (
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Image is the read-only pixel source the engine partitions: interleaved
// 4-byte RGBA pixels, row-major, with a row stride of Width pixels.
// The engine never writes to Pix.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage wraps an existing RGBA buffer after validating it.
func NewImage(width, height int, pix []byte) (*Image, error) {
	img := &Image{Width: width, Height: height, Pix: pix}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate rejects buffers the partitioning algorithm cannot work on.
func (img *Image) Validate() error {
	if img == nil {
		return errors.Wrap(ErrInvalidImage, "nil image")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return errors.Wrapf(ErrInvalidImage, "zero-area image %dx%d", img.Width, img.Height)
	}
	if need := img.Width * img.Height * 4; len(img.Pix) < need {
		return errors.Wrapf(ErrInvalidImage, "buffer holds %d bytes, %dx%d needs %d",
			len(img.Pix), img.Width, img.Height, need)
	}
	return nil
}

// Stride returns the row stride in pixels.
func (img *Image) Stride() int {
	return img.Width
}

// Bounds returns the full image rectangle.
func (img *Image) Bounds() Rect {
	return Rect{Width: img.Width, Height: img.Height}
}

// FromImage converts any image.Image to a straight-alpha RGBA buffer.
// Tightly packed *image.NRGBA sources are used without copying.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == w*4 {
		return &Image{Width: w, Height: h, Pix: n.Pix}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{Width: w, Height: h, Pix: dst.Pix}
}

// DecodeImage decodes PNG, JPEG, GIF, BMP or WebP data and returns the pixel
// buffer together with the detected format name.
func DecodeImage(r io.Reader) (*Image, string, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image")
	}
	img := FromImage(src)
	if err := img.Validate(); err != nil {
		return nil, format, err
	}
	return img, format, nil
}

// LoadImage opens and decodes an image file.
func LoadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	img, _, err := DecodeImage(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return img, nil
}
