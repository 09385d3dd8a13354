package view

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Action is a user command mapped from the keyboard.
type Action uint8

const (
	ActionThresholdUp   Action = iota // raise the split threshold by one step
	ActionThresholdDown               // lower the split threshold by one step
	ActionDepthUp                     // allow one more level
	ActionDepthDown                   // allow one level less
	ActionTogglePause                 // stop or resume the run
	ActionRestart                     // restart on the same image
	ActionScreenshot                  // queue a screenshot
	ActionToggleOverlay               // show or hide the stats overlay
)

func (a Action) String() string {
	switch a {
	case ActionThresholdUp:
		return "threshold-up"
	case ActionThresholdDown:
		return "threshold-down"
	case ActionDepthUp:
		return "depth-up"
	case ActionDepthDown:
		return "depth-down"
	case ActionTogglePause:
		return "toggle-pause"
	case ActionRestart:
		return "restart"
	case ActionScreenshot:
		return "screenshot"
	case ActionToggleOverlay:
		return "toggle-overlay"
	default:
		return "unknown"
	}
}

// Key repeat timing in ticks for held threshold keys.
const (
	repeatDelay    = 20
	repeatInterval = 4
)

// Controls maps keys to actions.
//
//	Up / Down   threshold ± ThresholdStep (repeats while held)
//	] / [       max depth ± 1
//	Space       pause / resume
//	R           restart
//	S           screenshot
//	Tab         toggle overlay
type Controls struct {
	ThresholdStep float64
	buf           []Action
}

// NewControls creates controls with the given threshold step.
func NewControls(step float64) *Controls {
	return &Controls{ThresholdStep: step}
}

// Read returns the actions triggered this tick. The slice is reused by the
// next call.
func (c *Controls) Read() []Action {
	c.buf = c.buf[:0]
	if repeating(ebiten.KeyArrowUp) {
		c.buf = append(c.buf, ActionThresholdUp)
	}
	if repeating(ebiten.KeyArrowDown) {
		c.buf = append(c.buf, ActionThresholdDown)
	}
	keys := [...]struct {
		key    ebiten.Key
		action Action
	}{
		{ebiten.KeyBracketRight, ActionDepthUp},
		{ebiten.KeyBracketLeft, ActionDepthDown},
		{ebiten.KeySpace, ActionTogglePause},
		{ebiten.KeyR, ActionRestart},
		{ebiten.KeyS, ActionScreenshot},
		{ebiten.KeyTab, ActionToggleOverlay},
	}
	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k.key) {
			c.buf = append(c.buf, k.action)
		}
	}
	return c.buf
}

// repeating reports a fresh press, then every repeatInterval ticks once the
// key has been held for repeatDelay ticks.
func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d >= repeatDelay && (d-repeatDelay)%repeatInterval == 0)
}
