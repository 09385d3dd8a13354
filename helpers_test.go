package mosaic

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

// testImage builds a w×h image whose pixel colors come from fn.
func testImage(w, h int, fn func(x, y int) (r, g, b uint8)) *Image {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := fn(x, y)
			i := (y*w + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, 255
		}
	}
	return &Image{Width: w, Height: h, Pix: pix}
}

func solidImage(w, h int, r, g, b uint8) *Image {
	return testImage(w, h, func(int, int) (uint8, uint8, uint8) { return r, g, b })
}

// cornerImage is the 2×2 image with a white top-left pixel and three black ones.
func cornerImage() *Image {
	return testImage(2, 2, func(x, y int) (uint8, uint8, uint8) {
		if x == 0 && y == 0 {
			return 255, 255, 255
		}
		return 0, 0, 0
	})
}

func checkerImage(w, h int) *Image {
	return testImage(w, h, func(x, y int) (uint8, uint8, uint8) {
		if (x+y)%2 == 0 {
			return 255, 255, 255
		}
		return 0, 0, 0
	})
}

// noiseImage fills a w×h image from a fixed linear congruential sequence so
// runs are reproducible.
func noiseImage(w, h int, seed uint32) *Image {
	state := seed
	next := func() uint8 {
		state = state*1664525 + 1013904223
		return uint8(state >> 24)
	}
	return testImage(w, h, func(x, y int) (uint8, uint8, uint8) {
		// Blocky structure plus noise gives uneven errors across quadrants.
		base := uint8((x/4 + y/3) * 37)
		return base + next()/8, next(), base ^ next()/4
	})
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func newTestScheduler(t *testing.T, cfg Config, opts ...Option) *Scheduler {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s, err := NewScheduler(cfg, opts...)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func leafBounds(t *Tree) []Rect {
	var out []Rect
	for _, l := range t.AppendLeaves(nil) {
		out = append(out, l.Bounds)
	}
	return out
}
