package view

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/phanxgames/mosaic"
)

// Overlay is a mosaic.StatsSink that shows the latest counters, the live
// settings and the frame rate in the top-left corner of the screen.
type Overlay struct {
	// Settings supplies the live settings line. Nil hides it.
	Settings func() mosaic.Config
	Visible  bool

	stats   mosaic.Stats
	bg      *ebiten.Image
	lastFPS float64
	elapsed float64
}

// NewOverlay creates a visible overlay.
func NewOverlay(settings func() mosaic.Config) *Overlay {
	return &Overlay{Settings: settings, Visible: true}
}

// Update implements mosaic.StatsSink.
func (o *Overlay) Update(st mosaic.Stats) {
	o.stats = st
}

// Stats returns the last stats received.
func (o *Overlay) Stats() mosaic.Stats { return o.stats }

// Tick samples the frame rate about twice a second.
func (o *Overlay) Tick(dt float64) {
	o.elapsed += dt
	if o.elapsed < 0.5 {
		return
	}
	o.elapsed = 0
	o.lastFPS = ebiten.ActualFPS()
}

// Text returns the overlay contents.
func (o *Overlay) Text() string {
	st := o.stats
	var b strings.Builder
	fmt.Fprintf(&b, "%s  nodes %d  depth %d\n", st.State, st.NodeCount, st.MaxDepth)
	fmt.Fprintf(&b, "pending %d  error %.2f\n", st.Pending, st.MeanError)
	fmt.Fprintf(&b, "tick %.2fms  fps %.1f", st.TickMillis(), o.lastFPS)
	if o.Settings != nil {
		cfg := o.Settings()
		fmt.Fprintf(&b, "\nthreshold %.1f  max depth %d  batch %d", cfg.Threshold, cfg.MaxDepth, cfg.SplitsPerTick)
	}
	return b.String()
}

// Draw prints the overlay over a translucent panel.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if !o.Visible {
		return
	}
	if o.bg == nil {
		// Enough for four lines of debug font.
		o.bg = ebiten.NewImage(280, 68)
		o.bg.Fill(color.RGBA{0, 0, 0, 128})
	}
	screen.DrawImage(o.bg, nil)
	ebitenutil.DebugPrintAt(screen, o.Text(), 4, 2)
}
