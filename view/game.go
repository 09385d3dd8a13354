package view

import (
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/mosaic"
	"github.com/sirupsen/logrus"
)

// GameConfig configures a Game.
type GameConfig struct {
	Config        mosaic.Config
	Scale         float64 // screen pixels per image pixel
	FadeDuration  float32 // seconds; 0 disables fades
	Outline       bool
	ThresholdStep float64
	ScreenshotDir string
	ShowOverlay   bool

	// Stats receives every update in addition to the overlay, e.g. a
	// *mosaic.PrometheusStats. Optional.
	Stats mosaic.StatsSink
	// Reload delivers settings from a mosaic.ConfigWatcher. Optional.
	Reload <-chan mosaic.Config
	Logger logrus.FieldLogger
}

// DefaultGameConfig returns the settings used by the viewer.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Config:        mosaic.DefaultConfig(),
		Scale:         1,
		FadeDuration:  0.25,
		ThresholdStep: 1,
		ScreenshotDir: "screenshots",
		ShowOverlay:   true,
	}
}

// Game is an ebiten.Game that partitions one image progressively, one
// scheduler tick per frame.
type Game struct {
	// ExitWhenDone ends the game loop once an attached test runner finishes.
	ExitWhenDone  bool
	ScreenshotDir string

	img      *mosaic.Image
	sched    *mosaic.Scheduler
	canvas   *Canvas
	overlay  *Overlay
	controls *Controls
	runner   *TestRunner
	reload   <-chan mosaic.Config
	scale    float64

	screenshotQueue []string
	log             logrus.FieldLogger
	now             func() time.Time
}

// NewGame builds the scheduler, canvas and overlay for img and starts the
// first run.
func NewGame(img *mosaic.Image, gc GameConfig) (*Game, error) {
	log := gc.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if gc.Scale <= 0 {
		gc.Scale = 1
	}
	canvas := NewCanvas(gc.Scale, gc.FadeDuration)
	canvas.Outline = gc.Outline
	overlay := NewOverlay(nil)
	overlay.Visible = gc.ShowOverlay

	sched, err := mosaic.NewScheduler(gc.Config,
		mosaic.WithRenderer(canvas),
		mosaic.WithStats(mosaic.MultiStats{overlay, gc.Stats}),
		mosaic.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	overlay.Settings = sched.Settings
	if err := sched.Start(img); err != nil {
		return nil, err
	}
	return &Game{
		ScreenshotDir: gc.ScreenshotDir,
		img:           img,
		sched:         sched,
		canvas:        canvas,
		overlay:       overlay,
		controls:      NewControls(gc.ThresholdStep),
		reload:        gc.Reload,
		scale:         gc.Scale,
		log:           log,
		now:           time.Now,
	}, nil
}

// Scheduler returns the game's scheduler.
func (g *Game) Scheduler() *mosaic.Scheduler { return g.sched }

// Canvas returns the game's canvas.
func (g *Game) Canvas() *Canvas { return g.canvas }

// Overlay returns the stats overlay.
func (g *Game) Overlay() *Overlay { return g.overlay }

// SetTestRunner attaches a TestRunner. Its step method is called from Update
// before input is handled each frame.
func (g *Game) SetTestRunner(runner *TestRunner) {
	g.runner = runner
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	dt := float32(1.0 / float64(ebiten.TPS()))
	return g.update(dt, g.controls.Read())
}

func (g *Game) update(dt float32, actions []Action) error {
	g.drainReloads()
	if g.runner != nil {
		g.runner.step(g)
	}
	for _, a := range actions {
		if err := g.Do(a); err != nil {
			g.log.WithError(err).WithField("action", a.String()).Debug("action rejected")
		}
	}
	g.sched.Tick()
	g.canvas.Update(dt)
	g.overlay.Tick(float64(dt))

	if g.ExitWhenDone && g.runner != nil && g.runner.Done() && len(g.screenshotQueue) == 0 {
		return ebiten.Termination
	}
	return nil
}

// drainReloads applies every pending config reload, in order.
func (g *Game) drainReloads() {
	if g.reload == nil {
		return
	}
	for {
		select {
		case cfg, ok := <-g.reload:
			if !ok {
				g.reload = nil
				return
			}
			if err := g.sched.Apply(cfg); err != nil {
				g.log.WithError(err).Warn("config reload not applied")
			}
		default:
			return
		}
	}
}

// Do performs a single user action.
func (g *Game) Do(a Action) error {
	cfg := g.sched.Settings()
	switch a {
	case ActionThresholdUp:
		return g.sched.SetThreshold(cfg.Threshold + g.controls.ThresholdStep)
	case ActionThresholdDown:
		return g.sched.SetThreshold(math.Max(0, cfg.Threshold-g.controls.ThresholdStep))
	case ActionDepthUp:
		return g.sched.SetMaxDepth(cfg.MaxDepth + 1)
	case ActionDepthDown:
		if cfg.MaxDepth == 0 {
			return nil
		}
		return g.sched.SetMaxDepth(cfg.MaxDepth - 1)
	case ActionTogglePause:
		if g.sched.State() == mosaic.StateIdle {
			g.sched.Resume()
		} else {
			g.sched.Stop()
		}
	case ActionRestart:
		return g.Restart()
	case ActionScreenshot:
		g.Screenshot("manual")
	case ActionToggleOverlay:
		g.overlay.Visible = !g.overlay.Visible
	}
	return nil
}

// Restart discards the current partition and starts over on the same image
// with the current settings.
func (g *Game) Restart() error {
	g.canvas.Reset()
	return g.sched.Start(g.img)
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.canvas.DrawTo(screen)
	g.overlay.Draw(screen)
	g.flushScreenshots(screen)
}

// Layout implements ebiten.Game. The logical screen is the image at Scale.
func (g *Game) Layout(_, _ int) (int, int) {
	return int(math.Ceil(float64(g.img.Width) * g.scale)), int(math.Ceil(float64(g.img.Height) * g.scale))
}
