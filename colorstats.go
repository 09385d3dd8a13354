package mosaic

import (
	"image/color"
	"math"
)

// RGB is an averaged color with components in [0, 255]. Components are kept
// as float64 so averages of large regions are not truncated.
type RGB struct {
	R, G, B float64
}

// RGBA rounds the color to 8 bits per channel and returns it fully opaque.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 255}
}

// Unit returns the components scaled to [0, 1].
func (c RGB) Unit() (r, g, b float64) {
	return c.R / 255, c.G / 255, c.B / 255
}

func to8(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// AverageColor returns the mean color of the w×h region at (x, y) of an
// interleaved RGBA buffer whose rows are stride pixels wide. Alpha is ignored.
// The region must lie inside the buffer and must not be empty.
func AverageColor(pix []byte, x, y, w, h, stride int) RGB {
	var sr, sg, sb uint64
	for row := y; row < y+h; row++ {
		off := (row*stride + x) * 4
		for end := off + w*4; off < end; off += 4 {
			sr += uint64(pix[off])
			sg += uint64(pix[off+1])
			sb += uint64(pix[off+2])
		}
	}
	n := float64(w * h)
	return RGB{
		R: float64(sr) / n,
		G: float64(sg) / n,
		B: float64(sb) / n,
	}
}

// ErrorScore returns the root-mean-squared Euclidean RGB distance of every
// pixel in the region from avg. A nil avg is computed from the region first.
// A uniform region scores 0; a region straddling a hard color edge scores high.
func ErrorScore(pix []byte, x, y, w, h, stride int, avg *RGB) float64 {
	var mean RGB
	if avg != nil {
		mean = *avg
	} else {
		mean = AverageColor(pix, x, y, w, h, stride)
	}

	var sum float64
	for row := y; row < y+h; row++ {
		off := (row*stride + x) * 4
		for end := off + w*4; off < end; off += 4 {
			dr := float64(pix[off]) - mean.R
			dg := float64(pix[off+1]) - mean.G
			db := float64(pix[off+2]) - mean.B
			sum += dr*dr + dg*dg + db*db
		}
	}
	return math.Sqrt(sum / float64(w*h))
}

// regionStats computes both statistics for r in one call.
func regionStats(img *Image, r Rect) (RGB, float64) {
	avg := AverageColor(img.Pix, r.X, r.Y, r.Width, r.Height, img.Stride())
	return avg, ErrorScore(img.Pix, r.X, r.Y, r.Width, r.Height, img.Stride(), &avg)
}
