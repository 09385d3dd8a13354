package view

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/mosaic"
	"github.com/tanema/gween/ease"
)

// WhitePixel is a 1x1 white image used to draw solid blocks. Each block is
// the pixel scaled to its bounds and tinted with its color.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(color.White)
}

// tile is one displayed block. color is what is on screen right now and may
// lag target while a fade runs.
type tile struct {
	id     mosaic.NodeID
	bounds mosaic.Rect
	color  mosaic.RGB
	target mosaic.RGB
	fade   *TweenGroup
	gen    uint32
}

// Canvas is a mosaic.Renderer that keeps the published leaves as tiles and
// draws them onto an ebiten image. A leaf that replaces a displayed parent
// fades from the parent's on-screen color to its own.
type Canvas struct {
	// Scale maps image pixels to screen pixels.
	Scale float64
	// FadeDuration is the length of the parent-to-child fade in seconds.
	// Zero shows new blocks at their final color immediately.
	FadeDuration float32
	// Ease is the fade curve. Nil means ease.OutQuad.
	Ease ease.TweenFunc
	// Outline draws a 1px line along the top and left edge of every block.
	Outline      bool
	OutlineColor color.RGBA

	tiles map[mosaic.NodeID]*tile
	order []*tile
	gen   uint32
	fades int
}

// NewCanvas creates a canvas with the given pixel scale and fade duration.
func NewCanvas(scale float64, fade float32) *Canvas {
	return &Canvas{
		Scale:        scale,
		FadeDuration: fade,
		OutlineColor: color.RGBA{A: 96},
		tiles:        make(map[mosaic.NodeID]*tile),
	}
}

// Draw implements mosaic.Renderer. It reconciles the tile set with leaves:
// unchanged leaves keep their tile (and any running fade), new leaves get a
// tile, and tiles whose leaf is gone are dropped.
func (c *Canvas) Draw(leaves []mosaic.Leaf) {
	if c.tiles == nil {
		c.tiles = make(map[mosaic.NodeID]*tile)
	}
	c.gen++
	c.order = c.order[:0]
	for i := range leaves {
		l := &leaves[i]
		t, ok := c.tiles[l.ID]
		if !ok || t.bounds != l.Bounds {
			t = c.newTile(l)
			c.tiles[l.ID] = t
		}
		t.gen = c.gen
		c.order = append(c.order, t)
	}
	for id, t := range c.tiles {
		if t.gen != c.gen {
			delete(c.tiles, id)
		}
	}
	c.countFades()
}

func (c *Canvas) newTile(l *mosaic.Leaf) *tile {
	t := &tile{id: l.ID, bounds: l.Bounds, color: l.Color, target: l.Color}
	if c.FadeDuration <= 0 {
		return t
	}
	parent, ok := c.tiles[l.Parent]
	if !ok || parent.gen != c.gen-1 {
		return t
	}
	fn := c.Ease
	if fn == nil {
		fn = ease.OutQuad
	}
	t.color = parent.color
	t.fade = TweenColor(&t.color, l.Color, c.FadeDuration, fn)
	return t
}

// Update advances running fades by dt seconds.
func (c *Canvas) Update(dt float32) {
	if c.fades == 0 {
		return
	}
	for _, t := range c.order {
		if t.fade == nil {
			continue
		}
		t.fade.Update(dt)
		if t.fade.Done {
			t.fade = nil
			t.color = t.target
		}
	}
	c.countFades()
}

func (c *Canvas) countFades() {
	c.fades = 0
	for _, t := range c.order {
		if t.fade != nil {
			c.fades++
		}
	}
}

// Fading reports the number of tiles still fading in.
func (c *Canvas) Fading() int { return c.fades }

// Len returns the number of displayed tiles.
func (c *Canvas) Len() int { return len(c.order) }

// Reset drops every tile, as when a new run starts with reused node IDs.
func (c *Canvas) Reset() {
	clear(c.tiles)
	c.order = c.order[:0]
	c.fades = 0
}

// ColorAt returns the on-screen color of the tile covering image pixel
// (x, y) and whether one exists.
func (c *Canvas) ColorAt(x, y int) (mosaic.RGB, bool) {
	for _, t := range c.order {
		if t.bounds.Contains(x, y) {
			return t.color, true
		}
	}
	return mosaic.RGB{}, false
}

// DrawTo draws every tile onto dst.
func (c *Canvas) DrawTo(dst *ebiten.Image) {
	scale := c.Scale
	if scale <= 0 {
		scale = 1
	}
	var op ebiten.DrawImageOptions
	for _, t := range c.order {
		b := t.bounds
		drawRect(dst, &op, float64(b.X)*scale, float64(b.Y)*scale,
			float64(b.Width)*scale, float64(b.Height)*scale, t.color.RGBA())
	}
	if !c.Outline {
		return
	}
	for _, t := range c.order {
		b := t.bounds
		x, y := float64(b.X)*scale, float64(b.Y)*scale
		drawRect(dst, &op, x, y, float64(b.Width)*scale, 1, c.OutlineColor)
		drawRect(dst, &op, x, y, 1, float64(b.Height)*scale, c.OutlineColor)
	}
}

// drawRect fills a rectangle with a straight-alpha color.
func drawRect(dst *ebiten.Image, op *ebiten.DrawImageOptions, x, y, w, h float64, clr color.RGBA) {
	op.GeoM.Reset()
	op.GeoM.Scale(w, h)
	op.GeoM.Translate(x, y)
	op.ColorScale.Reset()
	a := float32(clr.A) / 255
	op.ColorScale.Scale(float32(clr.R)/255*a, float32(clr.G)/255*a, float32(clr.B)/255*a, a)
	dst.DrawImage(WhitePixel, op)
}
