package view

import "github.com/hajimehoshi/ebiten/v2"

// RunConfig holds window settings for Run.
type RunConfig struct {
	Title string
	// Width and Height are the window size. Zero uses the game's layout size.
	Width, Height int
	Resizable     bool
	// TPS overrides the tick rate, and with it the scheduler rate. Zero keeps
	// ebiten's default of 60.
	TPS int
}

// Run opens a window and runs the game until it is closed or the attached
// test runner finishes with ExitWhenDone set.
func Run(g *Game, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		w, h = g.Layout(0, 0)
	}
	title := cfg.Title
	if title == "" {
		title = "mosaic"
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	return ebiten.RunGame(g)
}
