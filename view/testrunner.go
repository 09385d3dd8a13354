package view

import (
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var knownActions = map[string]bool{
	"threshold":  true,
	"depth":      true,
	"splits":     true,
	"wait":       true,
	"waitIdle":   true,
	"screenshot": true,
	"stop":       true,
	"resume":     true,
	"restart":    true,
}

// TestRunner sequences setting changes, waits and screenshots across frames
// for automated visual testing. Attach to a Game via SetTestRunner.
//
//	{"steps": [
//	  {"action": "waitIdle"},
//	  {"action": "screenshot", "label": "coarse"},
//	  {"action": "threshold", "value": 2},
//	  {"action": "waitIdle", "frames": 600},
//	  {"action": "screenshot", "label": "fine"}
//	]}
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	idleWait  int // remaining frames for waitIdle; -1 waits without limit
	waiting   bool
	done      bool
}

// LoadTestScript parses a JSON test script and returns a TestRunner ready
// to be attached to a Game via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, errors.Wrap(err, "parse test script")
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, errors.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the test runner by one frame. Called from Game.Update before
// the scheduler ticks.
func (r *TestRunner) step(g *Game) {
	if r.done {
		return
	}
	if r.waiting {
		if g.sched.Active() && r.idleWait != 0 {
			if r.idleWait > 0 {
				r.idleWait--
			}
			return
		}
		r.waiting = false
	}
	// Count down wait frames.
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	var err error
	switch st.Action {
	case "threshold":
		err = g.sched.SetThreshold(st.Value)
	case "depth":
		err = g.sched.SetMaxDepth(int(st.Value))
	case "splits":
		err = g.sched.SetSplitsPerTick(int(st.Value))
	case "screenshot":
		g.Screenshot(st.Label)
	case "stop":
		g.sched.Stop()
	case "resume":
		g.sched.Resume()
	case "restart":
		err = g.Restart()
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "waitIdle":
		r.waiting = true
		r.idleWait = -1
		if st.Frames > 0 {
			r.idleWait = st.Frames
		}
	}
	if err != nil {
		g.log.WithError(err).WithField("action", st.Action).Warn("test step failed")
	}

	// Check if we've reached the end after executing.
	if r.cursor >= len(r.steps) && r.waitCount == 0 && !r.waiting {
		r.done = true
	}
}
