package mosaic

import (
	"time"

	"github.com/google/uuid"
)

// Renderer receives the current leaf set after every tick that changed the
// tree. The slice is owned by the scheduler and is overwritten by the next
// publishing tick: draw (or copy) synchronously and do not mutate it.
type Renderer interface {
	Draw(leaves []Leaf)
}

// StatsSink receives counters after every tick that changed the tree.
type StatsSink interface {
	Update(stats Stats)
}

// Stats describes the tree after a tick.
type Stats struct {
	RunID        uuid.UUID
	State        State
	NodeCount    int
	LeafCount    int
	MaxDepth     int
	Splits       int
	Pending      int
	MeanError    float64
	TickDuration time.Duration // time spent inside the publishing tick
	Elapsed      time.Duration // time since Start
}

// TickMillis returns TickDuration in fractional milliseconds.
func (s Stats) TickMillis() float64 {
	return float64(s.TickDuration) / float64(time.Millisecond)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(leaves []Leaf)

// Draw calls f(leaves).
func (f RendererFunc) Draw(leaves []Leaf) { f(leaves) }

// StatsFunc adapts a function to the StatsSink interface.
type StatsFunc func(stats Stats)

// Update calls f(stats).
func (f StatsFunc) Update(stats Stats) { f(stats) }

// MultiStats fans one update out to several sinks in order.
type MultiStats []StatsSink

// Update forwards stats to every non-nil sink.
func (m MultiStats) Update(stats Stats) {
	for _, s := range m {
		if s != nil {
			s.Update(stats)
		}
	}
}
