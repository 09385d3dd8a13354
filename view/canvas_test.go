package view

import (
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/mosaic"
	"github.com/tanema/gween/ease"
)

var (
	gray  = mosaic.RGB{R: 64, G: 64, B: 64}
	white = mosaic.RGB{R: 255, G: 255, B: 255}
	black = mosaic.RGB{}
)

func rootLeaves() []mosaic.Leaf {
	return []mosaic.Leaf{{ID: 0, Parent: mosaic.NoNode, Bounds: mosaic.Rect{Width: 2, Height: 2}, Color: gray}}
}

func childLeaves() []mosaic.Leaf {
	return []mosaic.Leaf{
		{ID: 1, Parent: 0, Bounds: mosaic.Rect{X: 0, Y: 0, Width: 1, Height: 1}, Depth: 1, Color: white},
		{ID: 2, Parent: 0, Bounds: mosaic.Rect{X: 1, Y: 0, Width: 1, Height: 1}, Depth: 1, Color: black},
		{ID: 3, Parent: 0, Bounds: mosaic.Rect{X: 0, Y: 1, Width: 1, Height: 1}, Depth: 1, Color: black},
		{ID: 4, Parent: 0, Bounds: mosaic.Rect{X: 1, Y: 1, Width: 1, Height: 1}, Depth: 1, Color: black},
	}
}

func nearRGB(a, b mosaic.RGB) bool {
	return math.Abs(a.R-b.R) < 0.5 && math.Abs(a.G-b.G) < 0.5 && math.Abs(a.B-b.B) < 0.5
}

// --- Reconciliation ---

func TestCanvasDrawReplacesSplitParent(t *testing.T) {
	c := NewCanvas(1, 0)
	c.Draw(rootLeaves())
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	c.Draw(childLeaves())
	if c.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", c.Len())
	}
	if _, ok := c.tiles[0]; ok {
		t.Error("split parent should be dropped")
	}
	if got, _ := c.ColorAt(0, 0); got != white {
		t.Errorf("ColorAt(0,0) = %+v, want white without fades", got)
	}
	if c.Fading() != 0 {
		t.Errorf("Fading() = %d, want 0", c.Fading())
	}
}

func TestCanvasFadesFromParentColor(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Ease = ease.Linear
	c.Draw(rootLeaves())
	c.Draw(childLeaves())

	if c.Fading() != 4 {
		t.Fatalf("Fading() = %d, want 4", c.Fading())
	}
	if got, _ := c.ColorAt(0, 0); got != gray {
		t.Errorf("new child starts at %+v, want parent gray", got)
	}

	c.Update(0.5)
	got, _ := c.ColorAt(0, 0)
	if want := (mosaic.RGB{R: 159.5, G: 159.5, B: 159.5}); !nearRGB(got, want) {
		t.Errorf("halfway color = %+v, want ~%+v", got, want)
	}

	c.Update(0.5)
	if got, _ := c.ColorAt(0, 0); got != white {
		t.Errorf("faded color = %+v, want white", got)
	}
	if got, _ := c.ColorAt(1, 1); got != black {
		t.Errorf("faded color = %+v, want black", got)
	}
	if c.Fading() != 0 {
		t.Errorf("Fading() = %d, want 0", c.Fading())
	}
}

func TestCanvasKeepsRunningFadeAcrossDraws(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Ease = ease.Linear
	c.Draw(rootLeaves())
	c.Draw(childLeaves())
	c.Update(0.5)
	before, _ := c.ColorAt(0, 0)

	// Republishing the same leaves must not restart the fade.
	c.Draw(childLeaves())
	after, _ := c.ColorAt(0, 0)
	if after != before || c.Fading() != 4 {
		t.Errorf("color %+v -> %+v, Fading() = %d", before, after, c.Fading())
	}
}

func TestCanvasNoFadeWithoutDisplayedParent(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Draw(childLeaves())
	if c.Fading() != 0 {
		t.Errorf("Fading() = %d, want 0 when the parent was never shown", c.Fading())
	}
	if got, _ := c.ColorAt(0, 0); got != white {
		t.Errorf("ColorAt(0,0) = %+v, want white", got)
	}
}

func TestCanvasResetAndReusedIDs(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Draw(childLeaves())
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("Len() after Reset = %d", c.Len())
	}
	if _, ok := c.ColorAt(0, 0); ok {
		t.Error("ColorAt should find nothing after Reset")
	}

	// Same ID with different bounds is a different block.
	c.Draw(childLeaves())
	moved := childLeaves()
	moved[0].Bounds = mosaic.Rect{Width: 2, Height: 1}
	moved[0].Color = gray
	c.Draw(moved[:1])
	if got, _ := c.ColorAt(1, 0); got != gray {
		t.Errorf("ColorAt(1,0) = %+v, want gray", got)
	}
}

func TestCanvasDrawTo(t *testing.T) {
	c := NewCanvas(4, 0)
	c.Outline = true
	c.Draw(childLeaves())
	dst := ebiten.NewImage(8, 8)
	c.DrawTo(dst) // must not panic
}
